package backend

import (
	"encoding/xml"
	"fmt"
	"os"
	"strings"

	"github.com/openrad/dcmfetch/types"
)

// findscu -X writes one NativeDicomModel document per match. Each requested
// attribute appears as a DicomAttribute element identified by keyword; a
// missing Value element means the archive holds no value, not an error.
type nativeModel struct {
	XMLName    xml.Name          `xml:"NativeDicomModel"`
	Attributes []nativeAttribute `xml:"DicomAttribute"`
}

type nativeAttribute struct {
	Keyword     string       `xml:"keyword,attr"`
	Values      []string     `xml:"Value"`
	PersonNames []personName `xml:"PersonName"`
}

type personName struct {
	Alphabetic *alphabeticName `xml:"Alphabetic"`
}

type alphabeticName struct {
	FamilyName string `xml:"FamilyName"`
}

// parseNativeXMLFile parses one result document into a record holding the
// requested keywords. PatientName is structured; its family-name component
// is extracted.
func parseNativeXMLFile(path string, requested map[string]bool) (types.ResultRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read result file: %w", err)
	}
	return parseNativeXML(data, requested)
}

func parseNativeXML(data []byte, requested map[string]bool) (types.ResultRecord, error) {
	var doc nativeModel
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("malformed result document: %w", err)
	}

	rec := types.ResultRecord{}
	for _, attr := range doc.Attributes {
		if attr.Keyword == "PatientName" {
			if name := attr.familyName(); name != "" {
				rec[attr.Keyword] = name
			}
			continue
		}
		if !requested[attr.Keyword] {
			continue
		}
		if len(attr.Values) > 0 {
			rec[attr.Keyword] = strings.TrimSpace(attr.Values[0])
		}
	}

	return rec, nil
}

func (a nativeAttribute) familyName() string {
	for _, pn := range a.PersonNames {
		if pn.Alphabetic != nil && pn.Alphabetic.FamilyName != "" {
			return pn.Alphabetic.FamilyName
		}
	}
	return ""
}
