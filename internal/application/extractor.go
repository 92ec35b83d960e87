package application

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/cmass-sales/visitlog/internal/domain"
	"github.com/cmass-sales/visitlog/internal/ports"
	"github.com/rs/zerolog"
)

var (
	// bulletRE matches "가. 학교명 (09:00~10:10) (70분)". The minutes group is
	// required.
	bulletRE = regexp.MustCompile(`(?m)(?:^|\n)\s*([가-힣A-Za-z0-9])\.\s*([가-힣A-Za-z0-9\.\s\-]+?)\s*\(\s*(\d{1,2}:\d{2})\s*[~\-–—]{1,2}\s*(\d{1,2}:\d{2})\s*\)\s*(?:\(?\s*(\d{1,3})분\s*\)?)`)

	// subjectRE matches "정보(김병길-교학사)" and "정보 (김병길)".
	subjectRE = regexp.MustCompile(`([가-힣A-Za-z0-9\s]+?)\s*\(\s*([가-힣A-Za-z\s]+?)(?:\s*-\s*([가-힣A-Za-z\s]+?))?\s*\)`)
)

const (
	// blockHeaderReach is how far into a message, in characters, the first
	// bullet may start for the message to count as a list under an earlier
	// header.
	blockHeaderReach = 5

	fallbackSubject = "기타"
)

// Extractor turns messages into visit entries. It remembers the last
// reporter header it saw, so one Extractor must see the messages of a
// transcript in order.
type Extractor struct {
	vocab    domain.Vocabulary
	staff    StaffDirectory
	resolver *SchoolResolver
	clock    ports.Clock
	fallback string
	log      zerolog.Logger

	blockReporter string
}

func NewExtractor(vocab domain.Vocabulary, resolver *SchoolResolver, clock ports.Clock, fallbackReporter string, log zerolog.Logger) *Extractor {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &Extractor{
		vocab:    vocab,
		staff:    NewStaffDirectory(vocab),
		resolver: resolver,
		clock:    clock,
		fallback: fallbackReporter,
		log:      log,
	}
}

// Reset forgets the current block reporter.
func (x *Extractor) Reset() {
	x.blockReporter = ""
}

// ExtractAll extracts every message of one transcript in order.
func (x *Extractor) ExtractAll(ctx context.Context, msgs []domain.RawMessage) []domain.VisitEntry {
	x.Reset()

	var entries []domain.VisitEntry
	for _, msg := range msgs {
		if ctx.Err() != nil {
			break
		}
		entries = append(entries, x.Extract(ctx, msg)...)
	}

	return entries
}

type bulletMatch struct {
	start    int
	label    string
	school   string
	from     string
	to       string
	explicit string
}

// Extract returns the entries of one message, or nil when the speaker is not
// allowed or no bullet matched.
func (x *Extractor) Extract(ctx context.Context, msg domain.RawMessage) []domain.VisitEntry {
	text := msg.Text
	brackets := bracketTokens(text)
	if !x.staff.Admits(msg.Sender, brackets) {
		return nil
	}

	reporter := x.staff.Normalize(x.staff.Reporter(msg.Sender, brackets, x.fallback))
	if header, ok := x.staff.Header(msg.Sender, brackets); ok {
		x.blockReporter = x.staff.Normalize(header)
	}

	bullets := findBullets(text)
	if len(bullets) == 0 {
		return nil
	}

	effective := reporter
	if x.blockReporter != "" && utf8.RuneCountInString(text[:bullets[0].start]) <= blockHeaderReach {
		effective = x.blockReporter
	}

	created := x.clock.Now().UTC()
	if msg.HasTimestamp() {
		created = *msg.Timestamp
	}

	tags := ExtractTags(text, x.vocab)

	var entries []domain.VisitEntry
	for i, b := range bullets {
		end := len(text)
		if i+1 < len(bullets) {
			end = bullets[i+1].start
		}
		bulletText := strings.TrimSpace(text[b.start:end])

		raw := CleanSchoolToken(strings.TrimSpace(b.school))
		school := x.resolver.Resolve(ctx, raw, ResolveHint{Context: text, Reporter: effective})
		if strings.TrimSpace(school) == "" {
			school = raw
		}
		profile := x.resolver.Profile(ctx, school)

		contact := ExtractContact(bulletText)
		if contact == "" {
			contact = ExtractContact(text)
		}

		duration, durationKnown := VisitDuration(b.from, b.to, b.explicit)

		base := domain.VisitEntry{
			Bullet:          b.label,
			CreatedAt:       created,
			VisitDate:       created.Format("2006-01-02"),
			Reporter:        effective,
			SchoolRaw:       raw,
			School:          school,
			SchoolLevel:     domain.DetectLevel(school),
			Region:          profile.Region,
			Location:        profile.Location,
			VisitStart:      b.from,
			VisitEnd:        b.to,
			DurationMinutes: duration,
			DurationKnown:   durationKnown,
			Contact:         contact,
			Tags:            tags,
			AssignedOwner:   profile.Owner,
		}
		if base.VisitStart == "" && msg.HasTimestamp() {
			base.VisitStart = created.Format("15:04")
		}
		if profile.HasRecord {
			base.RegistryName = profile.Record.Name
			base.RegistryCode = profile.Record.Code
		}
		if base.AssignedOwner == "" {
			base.AssignedOwner = effective
		}

		subjects := subjectRE.FindAllStringSubmatch(bulletText, -1)
		if len(subjects) == 0 {
			entry := base
			entry.Subject = DetectSubject(text, x.vocab.SubjectKeywords)
			if entry.Subject == "" {
				entry.Subject = fallbackSubject
			}
			entry.Teacher = msg.Sender
			entry.Conversation = bulletText
			entries = append(entries, entry)
			continue
		}

		for _, m := range subjects {
			entry := base
			entry.Subject = strings.TrimSpace(m[1])
			entry.Teacher = strings.TrimSpace(m[2])
			if entry.Teacher == "" {
				entry.Teacher = msg.Sender
			}
			entry.Publisher = NormalizePublisher(m[3])
			entry.Conversation = strings.TrimSpace(m[0])
			entries = append(entries, entry)
		}
	}

	x.log.Debug().
		Str("reporter", effective).
		Int("bullets", len(bullets)).
		Int("entries", len(entries)).
		Msg("message extracted")

	return entries
}

func findBullets(text string) []bulletMatch {
	locs := bulletRE.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}

	bullets := make([]bulletMatch, 0, len(locs))
	for _, loc := range locs {
		g := submatches(text, loc)
		bullets = append(bullets, bulletMatch{
			start:    loc[0],
			label:    strings.TrimSpace(g[1]),
			school:   g[2],
			from:     g[3],
			to:       g[4],
			explicit: g[5],
		})
	}

	return bullets
}
