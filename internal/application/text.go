package application

import (
	"regexp"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/cmass-sales/visitlog/internal/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	phoneRE          = regexp.MustCompile(`(01[016789][-\s]?\d{3,4}[-\s]?\d{4})`)
	publisherSplitRE = regexp.MustCompile(`[-–—/\\.:]`)
	detailHeaderRE   = regexp.MustCompile(`^(세부업무\s*[:\-–—]*)`)
	leadingBulletRE  = regexp.MustCompile(`^\s*[가-힣A-Za-z0-9]\.\s*`)
	schoolSuffixRE   = regexp.MustCompile(`([가-힣A-Za-z0-9\s\-]+?(?:초등학교|중학교|고등학교|학교|여중|여고|여자중학교|여자고등학교))`)
	genderedTailRE   = regexp.MustCompile(`([\p{L}\p{N}_\s\-]*\S*(?:여중|여고|여자중|여자고)\S*)`)
)

// lineChains strips format characters (BOM, zero-width joiners) and composes
// Hangul jamo so that exports saved with decomposed text still match.
var lineChains = sync.Pool{
	New: func() any {
		return transform.Chain(runes.Remove(runes.In(unicode.Cf)), norm.NFC)
	},
}

func normalizeLine(line string) string {
	if line == "" {
		return ""
	}

	tr := lineChains.Get().(transform.Transformer)
	out, _, err := transform.String(tr, line)
	tr.Reset()
	lineChains.Put(tr)
	if err != nil {
		return line
	}

	return out
}

// foldForMatch removes all whitespace and case-folds s for similarity scoring.
func foldForMatch(s string) string {
	compact := strings.Join(strings.Fields(s), "")
	return cases.Fold().String(compact)
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizePublisher keeps the token after the last separator, so
// "김병길-교학사" becomes "교학사".
func NormalizePublisher(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	parts := publisherSplitRE.Split(trimmed, -1)
	for i := len(parts) - 1; i >= 0; i-- {
		if part := strings.TrimSpace(parts[i]); part != "" {
			return part
		}
	}

	return trimmed
}

// CleanSchoolToken drops header words and bullet labels captured with a
// school token and narrows it to the part that looks like a school name.
func CleanSchoolToken(token string) string {
	if token == "" {
		return token
	}

	t := detailHeaderRE.ReplaceAllString(token, "")
	t = leadingBulletRE.ReplaceAllString(t, "")
	t = collapseSpaces(t)

	if m := schoolSuffixRE.FindStringSubmatch(t); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := genderedTailRE.FindStringSubmatch(t); m != nil {
		return strings.TrimSpace(m[1])
	}

	return t
}

func ExtractContact(text string) string {
	if m := phoneRE.FindStringSubmatch(text); m != nil {
		return m[1]
	}

	return ""
}

func DetectSubject(text string, keywords []string) string {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, kw) {
			return kw
		}
	}

	return ""
}

// ExtractTags maps synonyms first and explicit tags second, each tag listed
// once in first-found order.
func ExtractTags(text string, vocab domain.Vocabulary) []string {
	if text == "" {
		return nil
	}

	var found []string
	add := func(tag string) {
		for _, existing := range found {
			if existing == tag {
				return
			}
		}
		found = append(found, tag)
	}

	for _, syn := range vocab.TagSynonyms {
		if syn.Keyword != "" && strings.Contains(text, syn.Keyword) {
			add(syn.Tag)
		}
	}
	for _, tag := range vocab.ActivityTags {
		if tag != "" && strings.Contains(text, tag) {
			add(tag)
		}
	}

	return found
}

func minutesOfDay(hhmm string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(hhmm), ":")
	if !ok {
		return 0, domain.ErrInvalidTimeOfDay
	}

	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, domain.ErrInvalidTimeOfDay
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return 0, domain.ErrInvalidTimeOfDay
	}

	return h*60 + m, nil
}

// MinutesBetween returns end-start in minutes. An end earlier than the start
// is read as the next day.
func MinutesBetween(start, end string) (int, error) {
	s, err := minutesOfDay(start)
	if err != nil {
		return 0, err
	}
	e, err := minutesOfDay(end)
	if err != nil {
		return 0, err
	}

	diff := e - s
	if diff < 0 {
		diff += 24 * 60
	}

	return diff, nil
}

// VisitDuration prefers the explicitly written minutes and falls back to the
// time range.
func VisitDuration(start, end, explicit string) (int, bool) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		if minutes, err := strconv.Atoi(explicit); err == nil && minutes >= 0 {
			return minutes, true
		}
	}

	if start == "" || end == "" {
		return 0, false
	}

	minutes, err := MinutesBetween(start, end)
	if err != nil {
		return 0, false
	}

	return minutes, true
}
