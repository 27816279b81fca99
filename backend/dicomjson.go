package backend

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/gradienthealth/dicom/dicomtag"

	"github.com/openrad/dcmfetch/types"
)

// QIDO-RS responses key attributes by "GGGGEEEE" tag strings while the
// caller-facing API speaks keywords; the dictionary in dicomtag bridges
// the two.

// includeField renders a keyword in the tag form some QIDO servers insist
// on for includefield, falling back to the keyword itself when it is not
// in the dictionary.
func includeField(keyword string) string {
	info, err := dicomtag.FindByName(keyword)
	if err != nil {
		return keyword
	}
	return fmt.Sprintf("%04X%04X", info.Tag.Group, info.Tag.Element)
}

// keywordForTag resolves a "GGGGEEEE" response key to its keyword, or ""
// when the tag is private or unknown.
func keywordForTag(tagStr string) string {
	if len(tagStr) != 8 {
		return ""
	}
	group, err := strconv.ParseUint(tagStr[:4], 16, 16)
	if err != nil {
		return ""
	}
	element, err := strconv.ParseUint(tagStr[4:], 16, 16)
	if err != nil {
		return ""
	}
	info, err := dicomtag.Find(dicomtag.Tag{Group: uint16(group), Element: uint16(element)})
	if err != nil {
		return ""
	}
	return info.Name
}

// jsonAttribute is one attribute of a DICOM JSON dataset.
type jsonAttribute struct {
	VR    string            `json:"vr"`
	Value []json.RawMessage `json:"Value"`
}

// recordsFromJSON maps a QIDO-RS DICOM JSON array into records holding the
// requested keywords. PatientName is structured; its family-name component
// is extracted. Attributes without a Value are simply absent.
func recordsFromJSON(data []byte, requested map[string]bool) ([]types.ResultRecord, error) {
	var datasets []map[string]jsonAttribute
	if err := json.Unmarshal(data, &datasets); err != nil {
		return nil, fmt.Errorf("malformed dicom json response: %w", err)
	}

	records := make([]types.ResultRecord, 0, len(datasets))
	for _, ds := range datasets {
		rec := types.ResultRecord{}
		for tagStr, attr := range ds {
			keyword := keywordForTag(tagStr)
			if keyword == "" || len(attr.Value) == 0 {
				continue
			}
			if keyword == "PatientName" {
				if name := jsonFamilyName(attr.Value[0]); name != "" {
					rec[keyword] = name
				}
				continue
			}
			if !requested[keyword] {
				continue
			}
			if v := jsonScalar(attr.Value[0]); v != "" {
				rec[keyword] = v
			}
		}
		records = append(records, rec)
	}

	return records, nil
}

// jsonFamilyName extracts the family-name component of a PN value object.
func jsonFamilyName(raw json.RawMessage) string {
	var pn struct {
		Alphabetic string `json:"Alphabetic"`
	}
	if err := json.Unmarshal(raw, &pn); err != nil {
		return ""
	}
	family, _, _ := strings.Cut(pn.Alphabetic, "^")
	return family
}

// jsonScalar renders a DICOM JSON value element as a string. Numeric VRs
// (IS, US, ...) arrive as JSON numbers.
func jsonScalar(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
