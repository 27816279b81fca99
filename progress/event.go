// Package progress parses the free-form status lines emitted by retrieve
// tools into typed events and aggregates them into (completed, remaining)
// snapshots with end-of-operation status validation.
package progress

// Event is a typed progress event derived from one backend status line.
// The concrete types are RetrieveProgress and StoreProgress.
type Event interface {
	// StatusCode returns the DIMSE status carried by the event (0-0xFFFF).
	StatusCode() int

	event()
}

// RetrieveProgress reports cumulative sub-operation counts from a
// C-GET-RSP line. The backend never reports a remaining count.
type RetrieveProgress struct {
	PCID      int
	Completed int
	Failed    int
	Warning   int
	Status    int
}

// StatusCode returns the DIMSE status of the response.
func (e RetrieveProgress) StatusCode() int { return e.Status }

func (RetrieveProgress) event() {}

// StoreProgress reports one stored object from a C-STORE-RSP line.
type StoreProgress struct {
	PCID   int
	Status int
}

// StatusCode returns the DIMSE status of the response.
func (e StoreProgress) StatusCode() int { return e.Status }

func (StoreProgress) event() {}

// Snapshot is one element of the aggregated progress stream. Remaining is
// -1 while unknown; it is advisory, not a guarantee of outstanding work.
type Snapshot struct {
	Completed int
	Remaining int
}
