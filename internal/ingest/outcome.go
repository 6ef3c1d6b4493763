package ingest

// State names a step of the per-batch state machine:
//
//	Fetched -> { Normalized -> Stored -> Published | FailedAt(k) } -> Completed | Aborted
type State string

const (
	StateFetched    State = "fetched"
	StateNormalized State = "normalized"
	StateStored     State = "stored"
	StatePublished  State = "published"
	StateCompleted  State = "completed"
	StateAborted    State = "aborted"
)

// Outcome describes how far a run got.
type Outcome struct {
	State State
	// Fetched is the number of articles the feed returned.
	Fetched int
	// Processed is the number of records durably written. On abort it is the durable prefix.
	Processed int
	// FailedAt is the 1-based position of the article whose store write failed, 0 otherwise.
	FailedAt int
	// NotifyFailures counts stored records whose publish failed.
	NotifyFailures int
	Cause          error
}

// Completed reports whether every fetched article was stored.
func (o Outcome) Completed() bool { return o.State == StateCompleted }
