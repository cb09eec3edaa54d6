// Package record defines the relationship-group record that flows through the
// grouping phase of an import and its fixed-width binary slot encoding.
//
// A relationship group summarises, for one node and one relationship type, where
// the node's relationship chains start and end in each direction. Groups of the
// same node are linked through Next, forming the node's group chain.
package record
