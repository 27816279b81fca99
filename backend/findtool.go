package backend

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/openrad/dcmfetch/aettable"
	"github.com/openrad/dcmfetch/errors"
	"github.com/openrad/dcmfetch/query"
	"github.com/openrad/dcmfetch/toolkit"
	"github.com/openrad/dcmfetch/types"
)

// FindTool is the query backend wrapping the dcm4che findscu tool.
type FindTool struct {
	tk       *toolkit.Toolkit
	localAET string
	logger   *slog.Logger
}

// NewFindTool creates a find-tool backend bound to a validated toolkit.
func NewFindTool(tk *toolkit.Toolkit, localAET string, logger *slog.Logger) *FindTool {
	if logger == nil {
		logger = slog.Default()
	}
	return &FindTool{tk: tk, localAET: localAET, logger: logger}
}

// Name identifies the backend.
func (f *FindTool) Name() string { return "findscu" }

// QueryLevels reports the levels findscu can query: all of them.
func (f *FindTool) QueryLevels() []types.Level { return types.Levels }

// Query runs findscu, writing one XML result document per match into a
// private temporary directory, and parses them into records. The temporary
// directory is removed before Query returns, on every path.
func (f *FindTool) Query(ctx context.Context, srv *aettable.Server, level types.Level, directives []query.Directive) ([]types.ResultRecord, error) {
	tmpdir, err := os.MkdirTemp("", "dcmfetch")
	if err != nil {
		return nil, fmt.Errorf("failed to create query work dir: %w", err)
	}
	defer os.RemoveAll(tmpdir)

	args := toolArgs(f.localAET, srv, level, directives)
	args = append(args, "-X", "-I", "--out-dir", tmpdir, "--out-file", "match")

	f.logger.Debug("running find tool", "server", srv.Name, "level", level, "args", args)

	cmd := exec.CommandContext(ctx, f.tk.FindSCU, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, errors.NewQueryFailedError(srv.Name, strings.TrimSpace(string(output)), err)
	}

	files, err := filepath.Glob(filepath.Join(tmpdir, "*"))
	if err != nil {
		return nil, errors.NewQueryFailedError(srv.Name, "", err)
	}

	requested := requestedKeys(directives)
	records := make([]types.ResultRecord, 0, len(files))
	for _, file := range files {
		rec, err := parseNativeXMLFile(file, requested)
		if err != nil {
			return nil, errors.NewQueryFailedError(srv.Name, "", err)
		}
		records = append(records, rec)
	}

	f.logger.Debug("find tool query complete", "server", srv.Name, "matches", len(records))

	return records, nil
}
