package progress

// Aggregator folds an ordered event stream into (completed, remaining)
// snapshots, one per event, and records the terminal status. It is used for
// a single fetch operation and is not safe for concurrent use.
type Aggregator struct {
	completed int
	remaining int
	last      Event
}

// NewAggregator returns an aggregator with no progress observed yet:
// completed 0, remaining unknown (-1).
func NewAggregator() *Aggregator {
	return &Aggregator{remaining: -1}
}

// Apply folds one event into the aggregate and returns the snapshot to
// emit for it. A retrieve event carries the authoritative completed count
// and exhausts the advisory remaining count; a store event counts one
// stored object and leaves remaining untouched.
func (a *Aggregator) Apply(ev Event) Snapshot {
	switch e := ev.(type) {
	case RetrieveProgress:
		a.completed = e.Completed
		a.remaining = 0
	case StoreProgress:
		a.completed++
	}
	a.last = ev
	return Snapshot{Completed: a.completed, Remaining: a.remaining}
}

// Observed reports whether any event has been applied.
func (a *Aggregator) Observed() bool { return a.last != nil }

// FinalStatus returns the status of the last applied event. It is only
// meaningful when Observed reports true; a non-zero value is a terminal
// failure of the operation.
func (a *Aggregator) FinalStatus() int {
	if a.last == nil {
		return 0
	}
	return a.last.StatusCode()
}
