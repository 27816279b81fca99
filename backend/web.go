package backend

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/openrad/dcmfetch/aettable"
	"github.com/openrad/dcmfetch/errors"
	"github.com/openrad/dcmfetch/interfaces"
	"github.com/openrad/dcmfetch/progress"
	"github.com/openrad/dcmfetch/query"
	"github.com/openrad/dcmfetch/types"
)

// Status reported on the synthetic terminal event when a web retrieval
// fails partway: DIMSE "unable to process".
const webFailureStatus = 0x0110

// fetchWorkers bounds concurrent series downloads in a study-level fetch.
const fetchWorkers = 4

// Web is the DICOMweb backend: QIDO-RS for queries, WADO-RS for fetches.
// The server's AET field doubles as the service root path on the node.
type Web struct {
	client *http.Client
	logger *slog.Logger
}

// NewWeb creates a web backend using the given HTTP client.
func NewWeb(client *http.Client, logger *slog.Logger) *Web {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Web{client: client, logger: logger}
}

// Name identifies the backend.
func (w *Web) Name() string { return "web" }

// QueryLevels reports the levels QIDO-RS can search. There is no
// patient-level search resource in QIDO-RS.
func (w *Web) QueryLevels() []types.Level {
	return []types.Level{types.LevelStudy, types.LevelSeries, types.LevelImage}
}

// FetchLevels reports the levels WADO-RS can retrieve.
func (w *Web) FetchLevels() []types.Level {
	return []types.Level{types.LevelStudy, types.LevelSeries}
}

var qidoResource = map[types.Level]string{
	types.LevelStudy:  "studies",
	types.LevelSeries: "series",
	types.LevelImage:  "instances",
}

func baseURL(srv *aettable.Server) string {
	return fmt.Sprintf("http://%s:%d/%s", srv.Host, srv.Port, strings.Trim(srv.AET, "/"))
}

// Query performs a QIDO-RS search and maps the DICOM JSON response into
// records keyed by attribute keyword.
func (w *Web) Query(ctx context.Context, srv *aettable.Server, level types.Level, directives []query.Directive) ([]types.ResultRecord, error) {
	params := url.Values{}
	for _, d := range directives {
		if d.IsReturn() {
			params.Add("includefield", includeField(d.Key))
		} else {
			params.Add(d.Key, d.Value)
		}
	}

	endpoint := fmt.Sprintf("%s/%s?%s", baseURL(srv), qidoResource[level], params.Encode())
	w.logger.Debug("qido-rs search", "server", srv.Name, "url", endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.NewQueryFailedError(srv.Name, "", err)
	}
	req.Header.Set("Accept", "application/dicom+json")
	setAuth(req, srv)

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, errors.NewQueryFailedError(srv.Name, "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return []types.ResultRecord{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.NewQueryFailedError(srv.Name,
			fmt.Sprintf("%s: %s", resp.Status, strings.TrimSpace(string(body))), nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewQueryFailedError(srv.Name, "", err)
	}

	records, err := recordsFromJSON(body, requestedKeys(directives))
	if err != nil {
		return nil, errors.NewQueryFailedError(srv.Name, "", err)
	}
	return records, nil
}

// Fetch retrieves a study or series over WADO-RS into saveDir, emitting a
// store event per written instance and a terminal retrieve event carrying
// the outcome status. Study fetches download their series concurrently.
func (w *Web) Fetch(ctx context.Context, srv *aettable.Server, level types.Level, saveDir string, directives []query.Directive) (interfaces.FetchJob, error) {
	studyUID := filterValue(directives, "StudyInstanceUID")
	if studyUID == "" {
		return nil, fmt.Errorf("web fetch requires a StudyInstanceUID filter")
	}

	var paths []string
	switch level {
	case types.LevelSeries:
		seriesUID := filterValue(directives, "SeriesInstanceUID")
		if seriesUID == "" {
			return nil, fmt.Errorf("web series fetch requires a SeriesInstanceUID filter")
		}
		paths = []string{fmt.Sprintf("studies/%s/series/%s", studyUID, seriesUID)}
	case types.LevelStudy:
		uids, err := w.seriesUIDs(ctx, srv, studyUID)
		if err != nil {
			return nil, err
		}
		for _, uid := range uids {
			paths = append(paths, fmt.Sprintf("studies/%s/series/%s", studyUID, uid))
		}
	default:
		return nil, fmt.Errorf("web fetch does not support level %s", level)
	}

	ctx, cancel := context.WithCancel(ctx)
	job := newFetchJob(cancel)

	go func() {
		var (
			counter instanceCounter
			g, gctx = errgroup.WithContext(ctx)
		)
		g.SetLimit(fetchWorkers)

		for _, path := range paths {
			path := path
			g.Go(func() error {
				return w.fetchPart(gctx, srv, path, saveDir, &counter, job)
			})
		}

		err := g.Wait()
		if ctx.Err() != nil {
			// Abandoned by the consumer; no terminal event is owed.
			job.finish(nil)
			return
		}

		status := 0
		if err != nil {
			w.logger.Warn("wado-rs retrieve failed", "server", srv.Name, "error", err)
			status = webFailureStatus
		}
		job.emit(ctx, progress.RetrieveProgress{
			PCID:      1,
			Completed: counter.count(),
			Status:    status,
		})
		job.finish(nil)
	}()

	return job, nil
}

// seriesUIDs lists the series of a study via QIDO-RS.
func (w *Web) seriesUIDs(ctx context.Context, srv *aettable.Server, studyUID string) ([]string, error) {
	records, err := w.Query(ctx, srv, types.LevelSeries, []query.Directive{
		{Key: "StudyInstanceUID", Value: studyUID},
		{Key: "SeriesInstanceUID"},
	})
	if err != nil {
		return nil, err
	}

	uids := make([]string, 0, len(records))
	for _, rec := range records {
		if uid := rec.Get("SeriesInstanceUID"); uid != "" {
			uids = append(uids, uid)
		}
	}
	if len(uids) == 0 {
		return nil, fmt.Errorf("study %s has no series to retrieve", studyUID)
	}
	return uids, nil
}

// fetchPart downloads one multipart/related WADO-RS response and writes
// each part into saveDir, emitting a store event per written file.
func (w *Web) fetchPart(ctx context.Context, srv *aettable.Server, path, saveDir string, counter *instanceCounter, job *fetchJob) error {
	endpoint := fmt.Sprintf("%s/%s", baseURL(srv), path)
	w.logger.Debug("wado-rs retrieve", "server", srv.Name, "url", endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", `multipart/related; type="application/dicom"`)
	setAuth(req, srv)

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("retrieve of %s returned %s", path, resp.Status)
	}

	mediaType, mtParams, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		return fmt.Errorf("unexpected retrieve content type %q", resp.Header.Get("Content-Type"))
	}

	reader := multipart.NewReader(resp.Body, mtParams["boundary"])
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("malformed multipart response: %w", err)
		}

		n := counter.next()
		name := filepath.Join(saveDir, fmt.Sprintf("%08d.dcm", n))
		if err := writePart(name, part); err != nil {
			return err
		}

		job.emit(ctx, progress.StoreProgress{PCID: 1, Status: 0})
	}
}

func writePart(name string, part *multipart.Part) error {
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	if _, err := io.Copy(f, part); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return f.Close()
}

func setAuth(req *http.Request, srv *aettable.Server) {
	if srv.Auth == "" {
		return
	}
	user, pass, _ := strings.Cut(srv.Auth, ":")
	req.SetBasicAuth(user, pass)
}

func filterValue(directives []query.Directive, key string) string {
	for _, d := range directives {
		if d.Key == key && !d.IsReturn() {
			return d.Value
		}
	}
	return ""
}

// instanceCounter numbers written instances across concurrent downloads.
type instanceCounter struct {
	mu sync.Mutex
	n  int
}

func (c *instanceCounter) next() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return c.n
}

func (c *instanceCounter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}
