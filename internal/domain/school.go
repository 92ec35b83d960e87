package domain

import (
	"strings"
	"time"
)

type SchoolLevel string

const (
	LevelUnknown    SchoolLevel = ""
	LevelElementary SchoolLevel = "초"
	LevelMiddle     SchoolLevel = "중"
	LevelHigh       SchoolLevel = "고"
)

var levelSuffixes = []struct {
	suffix string
	level  SchoolLevel
}{
	{suffix: "초등학교", level: LevelElementary},
	{suffix: "여자중학교", level: LevelMiddle},
	{suffix: "여자고등학교", level: LevelHigh},
	{suffix: "중학교", level: LevelMiddle},
	{suffix: "고등학교", level: LevelHigh},
	{suffix: "여중", level: LevelMiddle},
	{suffix: "여고", level: LevelHigh},
	{suffix: "초", level: LevelElementary},
	{suffix: "중", level: LevelMiddle},
	{suffix: "고", level: LevelHigh},
}

var levelMarkers = []struct {
	marker string
	level  SchoolLevel
}{
	{marker: "초등", level: LevelElementary},
	{marker: "중학", level: LevelMiddle},
	{marker: "고등", level: LevelHigh},
}

// DetectLevel infers the school level from naming conventions. The name's
// ending decides first so that names like 중앙고 or 고덕중 are not misread by
// the level syllable they start with.
func DetectLevel(name string) SchoolLevel {
	compact := strings.Join(strings.Fields(name), "")
	if compact == "" {
		return LevelUnknown
	}

	for _, s := range levelSuffixes {
		if strings.HasSuffix(compact, s.suffix) {
			return s.level
		}
	}

	for _, m := range levelMarkers {
		if strings.Contains(compact, m.marker) {
			return m.level
		}
	}

	return LevelUnknown
}

// Admits reports whether a candidate name is compatible with the level. An
// unknown level admits every candidate.
func (l SchoolLevel) Admits(name string) bool {
	if l == LevelUnknown {
		return true
	}

	return DetectLevel(name) == l
}

// SchoolRecord is the first row an authoritative registry returned for a query.
type SchoolRecord struct {
	Name       string
	Code       string
	OfficeCode string
	OfficeName string
	Location   string
	Raw        map[string]any
	CachedAt   time.Time
}

func (r SchoolRecord) Region() string {
	if r.OfficeName != "" {
		return r.OfficeName
	}

	return r.OfficeCode
}

func (r SchoolRecord) IsZero() bool {
	return r.Name == "" && r.Code == ""
}

// Expired reports whether the record was captured more than ttl before now.
// Records without a capture time never expire.
func (r SchoolRecord) Expired(now time.Time, ttl time.Duration) bool {
	if r.CachedAt.IsZero() || ttl <= 0 {
		return false
	}

	return now.Sub(r.CachedAt) > ttl
}
