// Package interfaces contains the backend contracts consumed by the
// dispatch layer and the client façade.
package interfaces

import (
	"context"

	"github.com/openrad/dcmfetch/aettable"
	"github.com/openrad/dcmfetch/progress"
	"github.com/openrad/dcmfetch/query"
	"github.com/openrad/dcmfetch/types"
)

// Querier executes a bounded hierarchical query against one archive node.
// Query blocks until the backend has fully completed and returns every
// matched record.
type Querier interface {
	// Name identifies the backend in errors and logs.
	Name() string

	// QueryLevels is the backend's fixed level-capability table for queries.
	QueryLevels() []types.Level

	Query(ctx context.Context, srv *aettable.Server, level types.Level, directives []query.Directive) ([]types.ResultRecord, error)
}

// Fetcher starts a long-running retrieval of image files into a directory
// and reports progress through a FetchJob.
type Fetcher interface {
	// Name identifies the backend in errors and logs.
	Name() string

	// FetchLevels is the backend's fixed level-capability table for fetches.
	FetchLevels() []types.Level

	Fetch(ctx context.Context, srv *aettable.Server, level types.Level, saveDir string, directives []query.Directive) (FetchJob, error)
}

// FetchJob is a running retrieval. Events delivers typed progress events in
// arrival order and is closed when the backend finishes. The job owns the
// underlying process and temporary resources; Close must be called on every
// exit path, including early abandonment.
type FetchJob interface {
	Events() <-chan progress.Event

	// Wait blocks until the backend has finished and returns its process
	// error, if any. It must only be called after Events is closed or the
	// job is canceled.
	Wait() error

	// Close cancels the job if still running, releases its resources and
	// reaps the backend process. Safe to call more than once.
	Close() error
}
