// Command dcmfetch queries a DICOM archive and optionally retrieves the
// matching images.
//
// Usage:
//
//	dcmfetch -table aettable.yaml -server Server -level series [-sort SeriesNumber] PatientID=123 Modality=
//	dcmfetch -table aettable.yaml -server Server -level series -fetch ./out StudyInstanceUID=1.2 SeriesInstanceUID=1.2.3
//
// Attribute arguments are Keyword=Value pairs; an empty value requests the
// attribute back without matching on it.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/openrad/dcmfetch/aettable"
	"github.com/openrad/dcmfetch/client"
	"github.com/openrad/dcmfetch/query"
	"github.com/openrad/dcmfetch/toolkit"
	"github.com/openrad/dcmfetch/types"
)

func main() {
	var (
		tablePath = flag.String("table", "aettable.yaml", "node table file")
		server    = flag.String("server", "", "server name from the node table")
		levelName = flag.String("level", "study", "hierarchy level (patient|study|series|image)")
		sortKey   = flag.String("sort", "", "attribute to sort query results by")
		fetchDir  = flag.String("fetch", "", "retrieve matching images into this directory instead of printing records")
		localAET  = flag.String("aet", "", "local calling AE title (default: derived from hostname)")
		verbose   = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	if *server == "" {
		fmt.Fprintln(os.Stderr, "a -server name is required")
		flag.Usage()
		os.Exit(2)
	}

	level, err := types.ParseLevel(*levelName)
	if err != nil {
		logger.Error("Invalid level", "error", err)
		os.Exit(2)
	}

	attrs, err := parseAttrs(flag.Args())
	if err != nil {
		logger.Error("Invalid attribute argument", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	table, err := aettable.Load(*tablePath)
	if err != nil {
		logger.Error("Failed to load node table", "error", err)
		os.Exit(1)
	}

	// The toolkit is optional: web-only tables work without it.
	tk, err := toolkit.Discover(ctx)
	if err != nil {
		logger.Warn("dcm4che toolkit unavailable, web access only", "error", err)
		tk = nil
	}

	c, err := client.New(client.Config{
		Table:    table,
		Toolkit:  tk,
		LocalAET: *localAET,
		Logger:   logger,
	})
	if err != nil {
		logger.Error("Failed to create client", "error", err)
		os.Exit(1)
	}

	if *fetchDir != "" {
		if err := runFetch(ctx, c, *server, level, *fetchDir, attrs); err != nil {
			logger.Error("Fetch failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := runQuery(ctx, c, *server, level, *sortKey, attrs); err != nil {
		logger.Error("Query failed", "error", err)
		os.Exit(1)
	}
}

func parseAttrs(args []string) (query.Attrs, error) {
	attrs := make(query.Attrs, 0, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("expected Keyword=Value, got %q", arg)
		}
		attrs = append(attrs, query.Attr{Key: key, Value: value})
	}
	return attrs, nil
}

func runQuery(ctx context.Context, c *client.Client, server string, level types.Level, sortKey string, attrs query.Attrs) error {
	records, err := c.Query(ctx, &client.QueryRequest{
		Server:  server,
		Level:   level,
		Attrs:   attrs,
		SortKey: sortKey,
	})
	if err != nil {
		return err
	}

	for _, rec := range records {
		keys := make([]string, 0, len(rec))
		for k := range rec {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fields := make([]string, 0, len(keys))
		for _, k := range keys {
			fields = append(fields, fmt.Sprintf("%s=%s", k, rec[k]))
		}
		fmt.Println(strings.Join(fields, "\t"))
	}

	slog.Info("Query complete", "matches", len(records))
	return nil
}

func runFetch(ctx context.Context, c *client.Client, server string, level types.Level, saveDir string, attrs query.Attrs) error {
	if err := os.MkdirAll(saveDir, 0o755); err != nil {
		return fmt.Errorf("failed to create save dir: %w", err)
	}

	stream, err := c.Fetch(ctx, &client.FetchRequest{
		Server:  server,
		Level:   level,
		SaveDir: saveDir,
		Attrs:   attrs,
	})
	if err != nil {
		return err
	}
	defer stream.Close()

	for stream.Next() {
		snap := stream.Snapshot()
		if snap.Remaining >= 0 {
			fmt.Printf("\rretrieved %d (remaining %d)", snap.Completed, snap.Remaining)
		} else {
			fmt.Printf("\rretrieved %d", snap.Completed)
		}
	}
	fmt.Println()

	if err := stream.Err(); err != nil {
		return err
	}

	slog.Info("Fetch complete", "save_dir", saveDir)
	return nil
}
