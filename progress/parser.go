package progress

import (
	"regexp"
	"strconv"
)

// The tools log asynchronously and free-form; only two line shapes carry
// progress. Both start with a HH:MM:SS,mmm timestamp and an INFO marker.
// The C-GET-RSP usually only arrives at the very end of the transfer.
//
// example: 23:00:36,960 INFO  - FINDSCU->CRICStore(1) >>
// 1:C-GET-RSP[pcid=1, completed=3, failed=0, warning=0, status=0H
var retrieveRE = regexp.MustCompile(
	`^\d\d:\d\d:\d\d,\d{1,3}\s+INFO\s+.*\d+:C-GET-RSP\[pcid=(\d+),\s+completed=(\d+),\s+failed=(\d+),\s+warning=(\d+),\s+status=([\dA-Fa-f]{1,4})H`)

// example: 23:00:36,845 INFO  - FINDSCU->CRICStore(1) <<
// 4:C-STORE-RSP[pcid=87, status=0H
var storeRE = regexp.MustCompile(
	`^\d\d:\d\d:\d\d,\d{1,3}\s+INFO\s+-\s+.*\d+:C-STORE-RSP\[pcid=(\d+),\s+status=([\dA-Fa-f]{1,4})H`)

// Parse classifies one line of backend output. It returns the typed event
// and true when the line matches either progress grammar, or nil and false
// for any other line. Unmatched lines are not an error.
func Parse(line string) (Event, bool) {
	if m := retrieveRE.FindStringSubmatch(line); m != nil {
		status, err := strconv.ParseInt(m[5], 16, 32)
		if err != nil {
			return nil, false
		}
		return RetrieveProgress{
			PCID:      atoi(m[1]),
			Completed: atoi(m[2]),
			Failed:    atoi(m[3]),
			Warning:   atoi(m[4]),
			Status:    int(status),
		}, true
	}

	if m := storeRE.FindStringSubmatch(line); m != nil {
		status, err := strconv.ParseInt(m[2], 16, 32)
		if err != nil {
			return nil, false
		}
		return StoreProgress{
			PCID:   atoi(m[1]),
			Status: int(status),
		}, true
	}

	return nil, false
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s) // digits only by construction of the patterns
	return n
}
