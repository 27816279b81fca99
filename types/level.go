// Package types defines the hierarchy levels, per-level attribute
// requirements and result records shared by all dcmfetch backends.
package types

import (
	"fmt"
	"strings"
)

// Level represents a query/retrieve hierarchy level.
type Level string

const (
	LevelPatient Level = "PATIENT"
	LevelStudy   Level = "STUDY"
	LevelSeries  Level = "SERIES"
	LevelImage   Level = "IMAGE"
)

// Levels lists all hierarchy levels in coarse-to-fine order.
var Levels = []Level{LevelPatient, LevelStudy, LevelSeries, LevelImage}

// ParseLevel converts a case-insensitive level name ("patient", "STUDY", ...)
// into a Level.
func ParseLevel(s string) (Level, error) {
	switch Level(strings.ToUpper(s)) {
	case LevelPatient:
		return LevelPatient, nil
	case LevelStudy:
		return LevelStudy, nil
	case LevelSeries:
		return LevelSeries, nil
	case LevelImage:
		return LevelImage, nil
	}
	return "", fmt.Errorf("unknown hierarchy level %q", s)
}

// String returns the level name as used on tool command lines.
func (l Level) String() string { return string(l) }

// Model identifies the query/retrieve information model used for a level.
type Model string

const (
	ModelPatientRoot Model = "PatientRoot"
	ModelStudyRoot   Model = "StudyRoot"
)

// InformationModel returns the information model the dcm4che tools expect
// for the given level. Study-level operations use the study-root model; all
// other levels use patient root.
func (l Level) InformationModel() Model {
	if l == LevelStudy {
		return ModelStudyRoot
	}
	return ModelPatientRoot
}

// mandatoryKeys lists, per level, the attributes every request at that level
// must carry, in canonical order. They are requested as return keys when the
// caller does not mention them, so that result records are always minimally
// identifiable.
var mandatoryKeys = map[Level][]string{
	LevelPatient: {
		"PatientName", "PatientID", "PatientBirthDate", "PatientSex",
	},
	LevelStudy: {
		"PatientID", "StudyID", "StudyInstanceUID", "StudyDate", "StudyDescription",
	},
	LevelSeries: {
		"PatientID", "StudyInstanceUID", "Modality", "SeriesNumber",
		"SeriesInstanceUID", "SeriesDescription", "BodyPartExamined",
	},
	LevelImage: {
		"PatientID", "StudyInstanceUID", "SeriesInstanceUID",
		"InstanceNumber", "SOPInstanceUID",
	},
}

// MandatoryKeys returns the canonical mandatory return attributes for a
// level. The returned slice is a copy and may be modified by the caller.
func (l Level) MandatoryKeys() []string {
	keys := mandatoryKeys[l]
	out := make([]string, len(keys))
	copy(out, keys)
	return out
}
