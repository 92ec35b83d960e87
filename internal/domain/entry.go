package domain

import "time"

// VisitEntry is one extracted bullet. School is never empty: it falls back to
// SchoolRaw when no resolution strategy produced a canonical name.
// DurationKnown separates an explicit zero from a duration that could not be
// worked out.
type VisitEntry struct {
	Bullet          string
	CreatedAt       time.Time
	VisitDate       string
	Reporter        string
	SchoolRaw       string
	School          string
	SchoolLevel     SchoolLevel
	RegistryName    string
	RegistryCode    string
	Region          string
	Location        string
	VisitStart      string
	VisitEnd        string
	DurationMinutes int
	DurationKnown   bool
	Subject         string
	Teacher         string
	Publisher       string
	Contact         string
	Tags            []string
	Conversation    string
	AssignedOwner   string
}

func (e VisitEntry) GroupKey() string {
	return e.VisitDate + "||" + e.School
}
