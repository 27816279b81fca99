// Package toolkit locates and validates the dcm4che command-line tools the
// CLI backends shell out to. Discovery is an explicit initialization step:
// it produces a Toolkit value that is passed into the backends, never
// ambient process state.
package toolkit

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/openrad/dcmfetch/errors"
)

// Conventional dcm4che install locations searched after any caller-supplied
// paths and before PATH.
var defaultSearchPaths = []string{
	"/usr/local/dcm4che3/bin",
	"/usr/local/dcm4che/bin",
	"/usr/local/bin",
}

// Toolkit holds the validated locations of the dcm4che tools.
type Toolkit struct {
	FindSCU string // findscu executable
	GetSCU  string // getscu executable

	// StoreTCS is the optional presentation-context properties file passed
	// to getscu so that incoming c-store sub-operations negotiate cleanly.
	// Empty when no such file was found next to the tools.
	StoreTCS string
}

// Discover locates findscu and getscu, validates each by running it with
// -V, and returns the resulting Toolkit. Caller-supplied paths are searched
// before the conventional dcm4che locations and PATH.
func Discover(ctx context.Context, searchPaths ...string) (*Toolkit, error) {
	findscu, err := locate(ctx, "findscu", searchPaths)
	if err != nil {
		return nil, err
	}
	getscu, err := locate(ctx, "getscu", searchPaths)
	if err != nil {
		return nil, err
	}

	tk := &Toolkit{FindSCU: findscu, GetSCU: getscu}

	// An omnibus context list shipped alongside the tools, if any.
	tcs := filepath.Join(filepath.Dir(getscu), "store-tcs.properties")
	if info, err := os.Stat(tcs); err == nil && !info.IsDir() {
		tk.StoreTCS = tcs
	}

	return tk, nil
}

func locate(ctx context.Context, name string, searchPaths []string) (string, error) {
	var candidates []string
	for _, dir := range append(append([]string{}, searchPaths...), defaultSearchPaths...) {
		candidates = append(candidates, filepath.Join(dir, name))
	}

	for _, candidate := range candidates {
		if isExecutable(candidate) {
			return validate(ctx, name, candidate)
		}
	}

	// Fall back to PATH.
	if path, err := exec.LookPath(name); err == nil {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		return validate(ctx, name, abs)
	}

	return "", fmt.Errorf("%w: can't find external dcm4che command %q", errors.ErrToolkitNotFound, name)
}

// validate checks the candidate actually runs by invoking it with -V,
// discarding its output.
func validate(ctx context.Context, name, path string) (string, error) {
	cmd := exec.CommandContext(ctx, path, "-V")
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w: %s at %s failed validation: %v", errors.ErrToolkitNotFound, name, path, err)
	}
	return path, nil
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Mode()&0o111 != 0
}
