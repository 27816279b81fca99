package client

import (
	"github.com/openrad/dcmfetch/errors"
	"github.com/openrad/dcmfetch/interfaces"
	"github.com/openrad/dcmfetch/progress"
)

// FetchStream is a lazy, single-pass, non-restartable sequence of progress
// snapshots for one running fetch. Use it like a scanner:
//
//	stream, err := client.Fetch(ctx, req)
//	if err != nil { ... }
//	defer stream.Close()
//	for stream.Next() {
//	    snap := stream.Snapshot()
//	    ...
//	}
//	if err := stream.Err(); err != nil { ... }
//
// Each Next may block until the backend produces its next progress line.
// A terminal failure surfaces through Err only after every observed
// snapshot has been delivered.
type FetchStream struct {
	server string
	job    interfaces.FetchJob
	agg    *progress.Aggregator
	snap   progress.Snapshot
	err    error
	done   bool
}

// Next advances to the next progress snapshot. It returns false when the
// stream is exhausted or closed; Err then reports how the fetch ended.
func (s *FetchStream) Next() bool {
	if s.done {
		return false
	}

	ev, ok := <-s.job.Events()
	if !ok {
		s.finish()
		return false
	}

	s.snap = s.agg.Apply(ev)
	return true
}

// finish determines the terminal outcome once the event stream has ended.
// With events observed, the last event's status alone decides; with none,
// a backend process failure does.
func (s *FetchStream) finish() {
	s.done = true
	procErr := s.job.Wait()

	if s.agg.Observed() {
		if status := s.agg.FinalStatus(); status != 0 {
			s.err = errors.NewRetrieveFailedError(s.server, status)
		}
	} else if procErr != nil {
		s.err = errors.NewRetrieveProcessError(s.server, procErr)
	}

	s.job.Close()
}

// Snapshot returns the snapshot produced by the last successful Next.
func (s *FetchStream) Snapshot() progress.Snapshot { return s.snap }

// Err returns the terminal error of the fetch, if any. It is only
// meaningful once Next has returned false.
func (s *FetchStream) Err() error { return s.err }

// Close terminates the underlying backend if it is still running and
// releases its resources. It is safe to call on every exit path.
func (s *FetchStream) Close() error {
	s.done = true
	return s.job.Close()
}
