package record

import "fmt"

// NullReference marks an absent record pointer (no relationship, no next group).
const NullReference int64 = -1

// Direction selects one of the relationship chains of a group.
type Direction uint8

const (
	// Outgoing relationships start at the owning node.
	Outgoing Direction = iota
	// Incoming relationships end at the owning node.
	Incoming
	// Loop relationships start and end at the owning node.
	Loop

	numDirections = 3
)

// String implements fmt.Stringer.
func (d Direction) String() string {
	switch d {
	case Outgoing:
		return "outgoing"
	case Incoming:
		return "incoming"
	case Loop:
		return "loop"
	default:
		return fmt.Sprintf("direction(%d)", uint8(d))
	}
}

// Group is a relationship-group record.
//
// Records are immutable once produced by an upstream step; steps that need a
// modified record build a new value.
type Group struct {
	// ID is the group record id, NullReference if not yet allocated.
	ID int64
	// OwningNode is the node this group belongs to.
	OwningNode uint64
	// Type is the relationship type id.
	Type uint32
	// Next is the id of the next group in the owning node's chain.
	Next int64
	// First holds the first relationship id per direction.
	First [numDirections]int64
	// Last holds the last relationship id per direction.
	Last [numDirections]int64
}

// NewGroup returns a group for node and relationship type with every
// reference set to NullReference.
func NewGroup(node uint64, relType uint32) Group {
	g := Group{
		ID:         NullReference,
		OwningNode: node,
		Type:       relType,
		Next:       NullReference,
	}
	for d := range numDirections {
		g.First[d] = NullReference
		g.Last[d] = NullReference
	}
	return g
}

// WithChain returns a copy of g whose chain in direction d spans first..last.
func (g Group) WithChain(d Direction, first, last int64) Group {
	g.First[d] = first
	g.Last[d] = last
	return g
}

// Empty reports whether the group references no relationship in any direction.
func (g Group) Empty() bool {
	for d := range numDirections {
		if g.First[d] != NullReference {
			return false
		}
	}
	return true
}

// String implements fmt.Stringer.
func (g Group) String() string {
	return fmt.Sprintf("Group[id=%d,node=%d,type=%d,next=%d,out=%d..%d,in=%d..%d,loop=%d..%d]",
		g.ID, g.OwningNode, g.Type, g.Next,
		g.First[Outgoing], g.Last[Outgoing],
		g.First[Incoming], g.Last[Incoming],
		g.First[Loop], g.Last[Loop])
}
