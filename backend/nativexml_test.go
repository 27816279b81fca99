package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrad/dcmfetch/types"
)

const sampleNativeXML = `<?xml version="1.0" encoding="UTF-8"?>
<NativeDicomModel xml:space="preserve">
  <DicomAttribute tag="00100010" vr="PN" keyword="PatientName">
    <PersonName number="1">
      <Alphabetic>
        <FamilyName>Doe</FamilyName>
        <GivenName>Jane</GivenName>
      </Alphabetic>
    </PersonName>
  </DicomAttribute>
  <DicomAttribute tag="00100020" vr="LO" keyword="PatientID">
    <Value number="1">02401845</Value>
  </DicomAttribute>
  <DicomAttribute tag="00080060" vr="CS" keyword="Modality">
    <Value number="1">MR</Value>
  </DicomAttribute>
  <DicomAttribute tag="00081030" vr="LO" keyword="StudyDescription"></DicomAttribute>
  <DicomAttribute tag="00200011" vr="IS" keyword="SeriesNumber">
    <Value number="1">3</Value>
  </DicomAttribute>
</NativeDicomModel>`

func TestParseNativeXML(t *testing.T) {
	requested := map[string]bool{
		"PatientID":        true,
		"Modality":         true,
		"StudyDescription": true,
	}

	rec, err := parseNativeXML([]byte(sampleNativeXML), requested)
	require.NoError(t, err)

	assert.Equal(t, types.ResultRecord{
		// PatientName is structured: family-name component only, and it is
		// extracted whether or not it was requested.
		"PatientName": "Doe",
		"PatientID":   "02401845",
		"Modality":    "MR",
	}, rec)

	// StudyDescription had no Value element: absent, not an error.
	_, present := rec["StudyDescription"]
	assert.False(t, present)

	// SeriesNumber was not requested.
	_, present = rec["SeriesNumber"]
	assert.False(t, present)
}

func TestParseNativeXMLMalformed(t *testing.T) {
	_, err := parseNativeXML([]byte("<NativeDicomModel><DicomAttribute>"), nil)
	assert.Error(t, err)
}
