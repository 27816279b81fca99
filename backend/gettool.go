package backend

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os/exec"

	"github.com/openrad/dcmfetch/aettable"
	"github.com/openrad/dcmfetch/interfaces"
	"github.com/openrad/dcmfetch/progress"
	"github.com/openrad/dcmfetch/query"
	"github.com/openrad/dcmfetch/toolkit"
	"github.com/openrad/dcmfetch/types"
)

// GetTool is the fetch backend wrapping the dcm4che getscu tool. Retrieved
// files are written by the tool itself; this backend only owns the process
// and turns its log output into progress events.
type GetTool struct {
	tk       *toolkit.Toolkit
	localAET string
	logger   *slog.Logger
}

// NewGetTool creates a get-tool backend bound to a validated toolkit.
func NewGetTool(tk *toolkit.Toolkit, localAET string, logger *slog.Logger) *GetTool {
	if logger == nil {
		logger = slog.Default()
	}
	return &GetTool{tk: tk, localAET: localAET, logger: logger}
}

// Name identifies the backend.
func (g *GetTool) Name() string { return "getscu" }

// FetchLevels reports the levels getscu can retrieve: all of them.
func (g *GetTool) FetchLevels() []types.Level { return types.Levels }

// Fetch starts getscu retrieving into saveDir and returns a job streaming
// the progress events scraped from the tool's output. Closing the job
// terminates the process.
func (g *GetTool) Fetch(ctx context.Context, srv *aettable.Server, level types.Level, saveDir string, directives []query.Directive) (interfaces.FetchJob, error) {
	args := toolArgs(g.localAET, srv, level, directives)
	args = append(args, "--directory", saveDir)
	if g.tk.StoreTCS != "" {
		args = append(args, "--store-tcs", g.tk.StoreTCS)
	}

	ctx, cancel := context.WithCancel(ctx)

	cmd := exec.CommandContext(ctx, g.tk.GetSCU, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open get tool pipe: %w", err)
	}

	g.logger.Debug("running get tool", "server", srv.Name, "level", level, "args", args)

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start get tool: %w", err)
	}

	job := newFetchJob(cancel)

	go func() {
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			if ev, ok := progress.Parse(scanner.Text()); ok {
				job.emit(ctx, ev)
			}
		}

		err := cmd.Wait()
		if ctx.Err() != nil {
			// Canceled by the consumer; the kill-induced exit status is
			// not a backend failure.
			err = nil
		}
		job.finish(err)
	}()

	return job, nil
}
