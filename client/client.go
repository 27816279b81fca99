// Package client provides the caller-facing query/fetch interface over the
// dispatched backends.
package client

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/openrad/dcmfetch/aettable"
	"github.com/openrad/dcmfetch/backend"
	"github.com/openrad/dcmfetch/progress"
	"github.com/openrad/dcmfetch/query"
	"github.com/openrad/dcmfetch/toolkit"
	"github.com/openrad/dcmfetch/types"
)

// Config holds client configuration
type Config struct {
	Table      *aettable.Table  // node table, required
	Toolkit    *toolkit.Toolkit // dcm4che tools; nil disables the F and G facilities
	LocalAET   string           // local (calling) AE title (default: derived from hostname)
	Logger     *slog.Logger     // logger (default: slog.Default())
	HTTPClient *http.Client     // client for the web backend (default: http.DefaultClient)
}

// Client dispatches queries and fetches to the capable backend per server.
type Client struct {
	table    *aettable.Table
	backends *backend.Set
	localAET string
	logger   *slog.Logger
}

// New creates a client from the given configuration.
func New(config Config) (*Client, error) {
	if config.Table == nil {
		return nil, fmt.Errorf("client requires a node table")
	}

	localAET := config.LocalAET
	if localAET == "" {
		localAET = DefaultLocalAET()
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	backends := &backend.Set{
		Web: backend.NewWeb(config.HTTPClient, logger),
	}
	if config.Toolkit != nil {
		backends.Find = backend.NewFindTool(config.Toolkit, localAET, logger)
		backends.Get = backend.NewGetTool(config.Toolkit, localAET, logger)
	}

	return &Client{
		table:    config.Table,
		backends: backends,
		localAET: localAET,
		logger:   logger,
	}, nil
}

// DefaultLocalAET derives the local calling AE title from the hostname:
// short name, dashes stripped, truncated to 11 characters, plus a "Store"
// suffix. The suffix is historical; an AE title holds at most 16 characters.
func DefaultLocalAET() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "dcmfetch"
	}
	short, _, _ := strings.Cut(host, ".")
	short = strings.ReplaceAll(short, "-", "")
	if len(short) > 11 {
		short = short[:11]
	}
	return short + "Store"
}

// LocalAET returns the calling AE title in use.
func (c *Client) LocalAET() string { return c.localAET }

// QueryRequest describes one hierarchical query.
type QueryRequest struct {
	Server string
	Level  types.Level
	Attrs  query.Attrs

	// SortKey optionally names an attribute to sort the records by,
	// ascending. Unset leaves backend order.
	SortKey string
}

// Query resolves the capable backend for the server, runs the query and
// returns the full result set once the backend has completed.
func (c *Client) Query(ctx context.Context, req *QueryRequest) ([]types.ResultRecord, error) {
	if req == nil {
		return nil, fmt.Errorf("query request cannot be nil")
	}

	srv, err := c.table.Lookup(req.Server)
	if err != nil {
		return nil, err
	}

	q, err := c.backends.QuerierFor(srv, req.Level)
	if err != nil {
		return nil, err
	}

	directives := query.Build(req.Level, req.Attrs)

	c.logger.Debug("dispatching query",
		"server", req.Server, "backend", q.Name(), "level", req.Level)

	records, err := q.Query(ctx, srv, req.Level, directives)
	if err != nil {
		return nil, err
	}

	if req.SortKey != "" {
		key := req.SortKey
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].Get(key) < records[j].Get(key)
		})
	}

	return records, nil
}

// FetchRequest describes one retrieval into a destination directory.
type FetchRequest struct {
	Server  string
	Level   types.Level
	SaveDir string
	Attrs   query.Attrs
}

// Fetch resolves the capable backend for the server, starts the retrieval
// and returns a lazy, single-pass stream of progress snapshots. The stream
// must be closed; closing it before exhaustion terminates the backend.
func (c *Client) Fetch(ctx context.Context, req *FetchRequest) (*FetchStream, error) {
	if req == nil {
		return nil, fmt.Errorf("fetch request cannot be nil")
	}

	srv, err := c.table.Lookup(req.Server)
	if err != nil {
		return nil, err
	}

	f, err := c.backends.FetcherFor(srv, req.Level)
	if err != nil {
		return nil, err
	}

	directives := query.Build(req.Level, req.Attrs)

	c.logger.Debug("dispatching fetch",
		"server", req.Server, "backend", f.Name(), "level", req.Level, "save_dir", req.SaveDir)

	job, err := f.Fetch(ctx, srv, req.Level, req.SaveDir, directives)
	if err != nil {
		return nil, err
	}

	return &FetchStream{
		server: req.Server,
		job:    job,
		agg:    progress.NewAggregator(),
	}, nil
}
