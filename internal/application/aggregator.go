package application

import (
	"strings"

	"github.com/cmass-sales/visitlog/internal/domain"
)

// Aggregate groups entries by visit date and canonical school in first-seen
// order. The first entry of a group decides the visit-level fields.
func Aggregate(entries []domain.VisitEntry) []domain.AggregatedVisit {
	var visits []domain.AggregatedVisit
	index := map[string]int{}

	for _, e := range entries {
		key := e.GroupKey()
		i, ok := index[key]
		if !ok {
			i = len(visits)
			index[key] = i
			visits = append(visits, domain.AggregatedVisit{
				VisitDate:       e.VisitDate,
				School:          e.School,
				SchoolLevel:     e.SchoolLevel,
				Region:          e.Region,
				VisitStart:      e.VisitStart,
				VisitEnd:        e.VisitEnd,
				DurationMinutes: e.DurationMinutes,
				DurationKnown:   e.DurationKnown,
			})
		}

		visits[i].Subjects = append(visits[i].Subjects, domain.SubjectRecord{
			Subject:       e.Subject,
			Teacher:       e.Teacher,
			Contact:       e.Contact,
			Tags:          append([]string(nil), e.Tags...),
			AssignedOwner: e.AssignedOwner,
			Conversation:  e.Conversation,
			FollowUp:      strings.Join(e.Tags, ","),
		})
	}

	return visits
}
