package staging

// None is the output type of terminal steps.
type None struct{}

// Batch is an ordered chunk of homogeneous records, the unit of flow control.
// A batch is handed to exactly one worker and processed as a whole.
type Batch[T any] struct {
	// Seq is the submission sequence number assigned by the Feeder.
	Seq uint64
	// Records must not be modified once the batch was sent.
	Records []T
}

// Len returns the number of records in the batch.
func (b Batch[T]) Len() int {
	return len(b.Records)
}

// Derive returns a batch of records that keeps the sequence number of b.
func Derive[Out, In any](b Batch[In], records []Out) Batch[Out] {
	return Batch[Out]{Seq: b.Seq, Records: records}
}
