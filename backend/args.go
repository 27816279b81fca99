package backend

import (
	"fmt"

	"github.com/openrad/dcmfetch/aettable"
	"github.com/openrad/dcmfetch/query"
	"github.com/openrad/dcmfetch/types"
)

// toolArgs builds the argument list shared by findscu and getscu: bind and
// connect specs, the information-model and level pair, then one argument
// pair per directive. Directive order is preserved.
func toolArgs(localAET string, srv *aettable.Server, level types.Level, directives []query.Directive) []string {
	args := []string{
		"--bind", localAET,
		"--connect", fmt.Sprintf("%s@%s:%d", srv.AET, srv.Host, srv.Port),
		"-M", string(level.InformationModel()),
		"-L", level.String(),
	}

	for _, d := range directives {
		if d.IsReturn() {
			args = append(args, "-r", d.Key)
		} else {
			args = append(args, "-m", d.Key+"="+d.Value)
		}
	}

	return args
}

// requestedKeys collects the attribute keywords named by a directive list.
func requestedKeys(directives []query.Directive) map[string]bool {
	keys := make(map[string]bool, len(directives))
	for _, d := range directives {
		keys[d.Key] = true
	}
	return keys
}
