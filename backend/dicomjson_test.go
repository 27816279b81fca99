package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrad/dcmfetch/types"
)

const sampleDicomJSON = `[
  {
    "00100010": {"vr": "PN", "Value": [{"Alphabetic": "Doe^Jane"}]},
    "00100020": {"vr": "LO", "Value": ["02401845"]},
    "0020000D": {"vr": "UI", "Value": ["1.2.840.1"]},
    "00200011": {"vr": "IS", "Value": [3]},
    "00080060": {"vr": "CS"},
    "7FE11001": {"vr": "OB", "Value": ["private"]}
  },
  {
    "00100020": {"vr": "LO", "Value": ["02401846"]}
  }
]`

func TestRecordsFromJSON(t *testing.T) {
	requested := map[string]bool{
		"PatientID":        true,
		"StudyInstanceUID": true,
		"SeriesNumber":     true,
		"Modality":         true,
	}

	records, err := recordsFromJSON([]byte(sampleDicomJSON), requested)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, types.ResultRecord{
		"PatientName":      "Doe",
		"PatientID":        "02401845",
		"StudyInstanceUID": "1.2.840.1",
		"SeriesNumber":     "3",
	}, records[0])

	// Modality had no Value: absent, not an error.
	_, present := records[0]["Modality"]
	assert.False(t, present)

	assert.Equal(t, types.ResultRecord{"PatientID": "02401846"}, records[1])
}

func TestRecordsFromJSONMalformed(t *testing.T) {
	_, err := recordsFromJSON([]byte(`{"not": "an array"}`), nil)
	assert.Error(t, err)
}

func TestKeywordForTag(t *testing.T) {
	assert.Equal(t, "StudyInstanceUID", keywordForTag("0020000D"))
	assert.Equal(t, "PatientName", keywordForTag("00100010"))
	assert.Equal(t, "", keywordForTag("nonsense"))
	assert.Equal(t, "", keywordForTag("0020"))
}

func TestIncludeField(t *testing.T) {
	assert.Equal(t, "0008103E", includeField("SeriesDescription"))
	// Unknown keywords pass through for the server to judge.
	assert.Equal(t, "NoSuchKeyword", includeField("NoSuchKeyword"))
}
