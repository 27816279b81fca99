package backend

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrad/dcmfetch/aettable"
	dferrors "github.com/openrad/dcmfetch/errors"
	"github.com/openrad/dcmfetch/query"
	"github.com/openrad/dcmfetch/toolkit"
	"github.com/openrad/dcmfetch/types"
)

func testServer(facilities ...aettable.Facility) *aettable.Server {
	fset := make(map[aettable.Facility]bool, len(facilities))
	for _, f := range facilities {
		fset[f] = true
	}
	return &aettable.Server{
		Name:       "Server",
		AET:        "CRICStore",
		Host:       "pacs.example.org",
		Port:       11112,
		Facilities: fset,
	}
}

func testSet() *Set {
	tk := &toolkit.Toolkit{FindSCU: "/opt/dcm4che/bin/findscu", GetSCU: "/opt/dcm4che/bin/getscu"}
	return &Set{
		Web:  NewWeb(nil, nil),
		Find: NewFindTool(tk, "TestStore", nil),
		Get:  NewGetTool(tk, "TestStore", nil),
	}
}

func TestQuerierPrefersWebOverFindTool(t *testing.T) {
	set := testSet()

	q, err := set.QuerierFor(testServer(aettable.FacilityWeb, aettable.FacilityFind), types.LevelSeries)
	require.NoError(t, err)
	assert.Equal(t, "web", q.Name())

	q, err = set.QuerierFor(testServer(aettable.FacilityFind), types.LevelSeries)
	require.NoError(t, err)
	assert.Equal(t, "findscu", q.Name())
}

func TestFetcherPrefersWebOverGetTool(t *testing.T) {
	set := testSet()

	f, err := set.FetcherFor(testServer(aettable.FacilityWeb, aettable.FacilityGet), types.LevelSeries)
	require.NoError(t, err)
	assert.Equal(t, "web", f.Name())

	f, err = set.FetcherFor(testServer(aettable.FacilityGet), types.LevelSeries)
	require.NoError(t, err)
	assert.Equal(t, "getscu", f.Name())
}

func TestDispatchUnsupportedServer(t *testing.T) {
	set := testSet()

	_, err := set.QuerierFor(testServer(aettable.FacilityGet), types.LevelStudy)
	assert.True(t, stderrors.Is(err, dferrors.ErrUnsupportedServer))

	_, err = set.FetcherFor(testServer(aettable.FacilityFind), types.LevelStudy)
	assert.True(t, stderrors.Is(err, dferrors.ErrUnsupportedServer))

	_, err = set.FetcherFor(testServer(), types.LevelStudy)
	assert.True(t, stderrors.Is(err, dferrors.ErrUnsupportedServer))
}

func TestDispatchUnsupportedLevel(t *testing.T) {
	set := testSet()

	// QIDO-RS has no patient-level search; precedence still picks web and
	// the level check fails rather than falling back to the find tool.
	_, err := set.QuerierFor(testServer(aettable.FacilityWeb, aettable.FacilityFind), types.LevelPatient)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, dferrors.ErrUnsupportedLevel))

	var levelErr *dferrors.UnsupportedLevelError
	require.True(t, stderrors.As(err, &levelErr))
	assert.Equal(t, "web", levelErr.Backend)
	assert.Equal(t, types.LevelPatient, levelErr.Level)

	_, err = set.FetcherFor(testServer(aettable.FacilityWeb), types.LevelImage)
	assert.True(t, stderrors.Is(err, dferrors.ErrUnsupportedLevel))
}

func TestDispatchNilBackendDisablesFacility(t *testing.T) {
	// No toolkit: a find-only server cannot be queried.
	set := &Set{Web: NewWeb(nil, nil)}

	_, err := set.QuerierFor(testServer(aettable.FacilityFind), types.LevelStudy)
	assert.True(t, stderrors.Is(err, dferrors.ErrUnsupportedServer))
}

func TestToolArgsOrdering(t *testing.T) {
	srv := testServer(aettable.FacilityFind)
	args := toolArgs("TestStore", srv, types.LevelSeries, []query.Directive{
		{Key: "PatientID", Value: "123"},
		{Key: "Modality"},
	})

	assert.Equal(t, []string{
		"--bind", "TestStore",
		"--connect", "CRICStore@pacs.example.org:11112",
		"-M", "PatientRoot",
		"-L", "SERIES",
		"-m", "PatientID=123",
		"-r", "Modality",
	}, args)
}
