package domain

type SubjectRecord struct {
	Subject       string
	Teacher       string
	Contact       string
	Tags          []string
	AssignedOwner string
	Conversation  string
	FollowUp      string
}

// AggregatedVisit holds the visit-level fields of the first contributing entry
// and one SubjectRecord per entry, in extraction order.
type AggregatedVisit struct {
	VisitDate       string
	School          string
	SchoolLevel     SchoolLevel
	Region          string
	VisitStart      string
	VisitEnd        string
	DurationMinutes int
	DurationKnown   bool
	Subjects        []SubjectRecord
}

type VisitPayload struct {
	Staff  string
	Visits []AggregatedVisit
}
