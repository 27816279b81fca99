package backend

import (
	"context"
	"sync"

	"github.com/openrad/dcmfetch/progress"
)

// fetchJob is the shared FetchJob implementation. A producer goroutine
// emits events, closes the channel when the backend is done, records the
// terminal error and closes done. Close cancels the producer's context and
// waits for it to wind down, so the backend process is never leaked.
type fetchJob struct {
	events chan progress.Event
	cancel context.CancelFunc
	done   chan struct{}

	once sync.Once

	mu  sync.Mutex
	err error
}

func newFetchJob(cancel context.CancelFunc) *fetchJob {
	return &fetchJob{
		events: make(chan progress.Event),
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

func (j *fetchJob) Events() <-chan progress.Event { return j.events }

func (j *fetchJob) Wait() error {
	<-j.done
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

func (j *fetchJob) Close() error {
	j.once.Do(j.cancel)
	<-j.done
	return nil
}

// emit delivers one event unless the job has been canceled.
func (j *fetchJob) emit(ctx context.Context, ev progress.Event) {
	select {
	case j.events <- ev:
	case <-ctx.Done():
	}
}

// finish records the terminal error and releases waiters. Must be called
// exactly once, by the producer, after its last emit.
func (j *fetchJob) finish(err error) {
	j.mu.Lock()
	j.err = err
	j.mu.Unlock()
	close(j.events)
	close(j.done)
}
