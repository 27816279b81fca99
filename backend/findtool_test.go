package backend

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrad/dcmfetch/aettable"
	dferrors "github.com/openrad/dcmfetch/errors"
	"github.com/openrad/dcmfetch/query"
	"github.com/openrad/dcmfetch/toolkit"
	"github.com/openrad/dcmfetch/types"
)

// writeFakeTool writes an executable shell script standing in for a
// dcm4che tool.
func writeFakeTool(t *testing.T, name, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script tool stubs")
	}
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

// fakeFindScript emulates findscu: it locates the --out-dir argument and
// drops two XML match documents there.
const fakeFindScript = `#!/bin/sh
outdir=""
prev=""
for arg in "$@"; do
  if [ "$prev" = "--out-dir" ]; then outdir="$arg"; fi
  prev="$arg"
done
cat > "$outdir/match1.dcm.xml" <<'EOF'
<NativeDicomModel>
  <DicomAttribute keyword="PatientID" tag="00100020" vr="LO"><Value number="1">123</Value></DicomAttribute>
  <DicomAttribute keyword="Modality" tag="00080060" vr="CS"><Value number="1">MR</Value></DicomAttribute>
</NativeDicomModel>
EOF
cat > "$outdir/match2.dcm.xml" <<'EOF'
<NativeDicomModel>
  <DicomAttribute keyword="PatientID" tag="00100020" vr="LO"><Value number="1">123</Value></DicomAttribute>
  <DicomAttribute keyword="Modality" tag="00080060" vr="CS"><Value number="1">CT</Value></DicomAttribute>
</NativeDicomModel>
EOF
exit 0
`

func TestFindToolQuery(t *testing.T) {
	tk := &toolkit.Toolkit{FindSCU: writeFakeTool(t, "findscu", fakeFindScript)}
	ft := NewFindTool(tk, "TestStore", nil)

	directives := query.Build(types.LevelSeries, query.Attrs{
		{Key: "PatientID", Value: "123"},
		{Key: "Modality"},
	})

	records, err := ft.Query(context.Background(), testServer(aettable.FacilityFind), types.LevelSeries, directives)
	require.NoError(t, err)
	require.Len(t, records, 2)

	modalities := []string{records[0].Get("Modality"), records[1].Get("Modality")}
	assert.ElementsMatch(t, []string{"MR", "CT"}, modalities)
	assert.Equal(t, "123", records[0].Get("PatientID"))
}

func TestFindToolQueryFailure(t *testing.T) {
	tk := &toolkit.Toolkit{FindSCU: writeFakeTool(t, "findscu", "#!/bin/sh\necho 'unable to connect' >&2\nexit 1\n")}
	ft := NewFindTool(tk, "TestStore", nil)

	_, err := ft.Query(context.Background(), testServer(aettable.FacilityFind), types.LevelStudy, nil)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, dferrors.ErrQueryFailed))

	var qfe *dferrors.QueryFailedError
	require.True(t, stderrors.As(err, &qfe))
	assert.Contains(t, qfe.Output, "unable to connect")
}

func TestFindToolQueryNoMatches(t *testing.T) {
	tk := &toolkit.Toolkit{FindSCU: writeFakeTool(t, "findscu", "#!/bin/sh\nexit 0\n")}
	ft := NewFindTool(tk, "TestStore", nil)

	records, err := ft.Query(context.Background(), testServer(aettable.FacilityFind), types.LevelPatient, nil)
	require.NoError(t, err)
	assert.Empty(t, records)
}
