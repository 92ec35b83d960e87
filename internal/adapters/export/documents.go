package export

import (
	"strings"

	"github.com/cmass-sales/visitlog/internal/domain"
)

// CreatedAtLayout renders timestamps without a zone, the way the visit
// import endpoint expects them.
const CreatedAtLayout = "2006-01-02T15:04:05"

// EntryDocument is the JSON shape of one extracted entry.
type EntryDocument struct {
	Bullet          string `json:"bullet"`
	CreatedAt       string `json:"created_at"`
	Staff           string `json:"staff"`
	VisitDate       string `json:"visit_date"`
	School          string `json:"school"`
	RegistryName    string `json:"neis_name"`
	RegistryCode    string `json:"neis_code"`
	SchoolLevel     string `json:"schoolLevel"`
	Region          string `json:"region"`
	Location        string `json:"location"`
	VisitStart      string `json:"visitStart"`
	VisitEnd        string `json:"visitEnd"`
	DurationMinutes *int   `json:"visitDurationMinutes"`
	Subject         string `json:"subject"`
	Teacher         string `json:"teacher"`
	Publisher       string `json:"publisher"`
	AssignedSales   string `json:"assigned_sales"`
	Contact         string `json:"contact"`
	FollowUp        string `json:"followUp"`
	Conversation    string `json:"conversation"`
	Meetings        string `json:"meetings"`
}

type VisitDocument struct {
	VisitDate       string            `json:"visitDate"`
	School          string            `json:"school"`
	SchoolLevel     string            `json:"schoolLevel"`
	Region          string            `json:"region"`
	VisitStart      string            `json:"visitStart"`
	VisitEnd        string            `json:"visitEnd"`
	DurationMinutes *int              `json:"visitDurationMinutes"`
	Subjects        []SubjectDocument `json:"subjects"`
}

type SubjectDocument struct {
	Subject       string   `json:"subject"`
	Teacher       string   `json:"teacher"`
	Contact       string   `json:"contact"`
	Meetings      []string `json:"meetings"`
	AssignedSales string   `json:"assigned_sales"`
	Conversation  string   `json:"conversation"`
	FollowUp      string   `json:"followUp"`
}

// PayloadDocument is the aggregated body accepted by the visit import endpoint.
type PayloadDocument struct {
	Staff  string          `json:"staff"`
	Visits []VisitDocument `json:"visits"`
}

func NewEntryDocument(e domain.VisitEntry) EntryDocument {
	tags := strings.Join(e.Tags, ",")

	return EntryDocument{
		Bullet:          e.Bullet,
		CreatedAt:       formatCreatedAt(e),
		Staff:           e.Reporter,
		VisitDate:       e.VisitDate,
		School:          e.School,
		RegistryName:    e.RegistryName,
		RegistryCode:    e.RegistryCode,
		SchoolLevel:     string(e.SchoolLevel),
		Region:          e.Region,
		Location:        e.Location,
		VisitStart:      e.VisitStart,
		VisitEnd:        e.VisitEnd,
		DurationMinutes: minutes(e.DurationMinutes, e.DurationKnown),
		Subject:         e.Subject,
		Teacher:         e.Teacher,
		Publisher:       e.Publisher,
		AssignedSales:   e.AssignedOwner,
		Contact:         e.Contact,
		FollowUp:        tags,
		Conversation:    e.Conversation,
		Meetings:        tags,
	}
}

func NewVisitDocument(v domain.AggregatedVisit) VisitDocument {
	subjects := make([]SubjectDocument, 0, len(v.Subjects))
	for _, s := range v.Subjects {
		meetings := append([]string{}, s.Tags...)
		subjects = append(subjects, SubjectDocument{
			Subject:       s.Subject,
			Teacher:       s.Teacher,
			Contact:       s.Contact,
			Meetings:      meetings,
			AssignedSales: s.AssignedOwner,
			Conversation:  s.Conversation,
			FollowUp:      s.FollowUp,
		})
	}

	return VisitDocument{
		VisitDate:       v.VisitDate,
		School:          v.School,
		SchoolLevel:     string(v.SchoolLevel),
		Region:          v.Region,
		VisitStart:      v.VisitStart,
		VisitEnd:        v.VisitEnd,
		DurationMinutes: minutes(v.DurationMinutes, v.DurationKnown),
		Subjects:        subjects,
	}
}

func NewPayloadDocument(p domain.VisitPayload) PayloadDocument {
	visits := make([]VisitDocument, 0, len(p.Visits))
	for _, v := range p.Visits {
		visits = append(visits, NewVisitDocument(v))
	}

	return PayloadDocument{Staff: p.Staff, Visits: visits}
}

func formatCreatedAt(e domain.VisitEntry) string {
	if e.CreatedAt.IsZero() {
		return ""
	}

	return e.CreatedAt.Format(CreatedAtLayout)
}

// An unknown duration is exported as null. Positive minutes always count as
// known.
func minutes(n int, known bool) *int {
	if n < 0 || (n == 0 && !known) {
		return nil
	}

	return &n
}
