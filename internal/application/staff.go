package application

import (
	"regexp"
	"strings"

	"github.com/cmass-sales/visitlog/internal/domain"
)

var (
	bracketTokenRE   = regexp.MustCompile(`\[([^\]]+)\]`)
	outerBracketsRE  = regexp.MustCompile(`^[\[\(\s]+|[\]\)\s]+$`)
	bracketsReplacer = strings.NewReplacer("(", " ", ")", " ", "[", " ", "]", " ")
)

// StaffDirectory knows which speakers report visits and how their names are
// shortened in output records.
type StaffDirectory struct {
	allowed    []string
	aliases    map[string]string
	shortNames []string
}

func NewStaffDirectory(vocab domain.Vocabulary) StaffDirectory {
	return StaffDirectory{
		allowed:    vocab.AllowedSpeakers,
		aliases:    vocab.StaffAliases,
		shortNames: vocab.StaffShortNames,
	}
}

func bracketTokens(text string) []string {
	matches := bracketTokenRE.FindAllStringSubmatch(text, -1)
	tokens := make([]string, 0, len(matches))
	for _, m := range matches {
		if token := strings.TrimSpace(m[1]); token != "" {
			tokens = append(tokens, token)
		}
	}

	return tokens
}

// Admits reports whether the sender or any bracketed token contains an
// allowed speaker identity.
func (d StaffDirectory) Admits(sender string, brackets []string) bool {
	if d.containsAllowed(sender) {
		return true
	}
	for _, token := range brackets {
		if d.containsAllowed(token) {
			return true
		}
	}

	return false
}

func (d StaffDirectory) containsAllowed(s string) bool {
	_, ok := d.allowedIn(s)
	return ok
}

func (d StaffDirectory) allowedIn(s string) (string, bool) {
	if s == "" {
		return "", false
	}
	for _, name := range d.allowed {
		if strings.Contains(s, name) {
			return name, true
		}
	}

	return "", false
}

// matchToken accepts a bracketed token naming the speaker fully, partially or
// by the last word of the identity (the personal name).
func (d StaffDirectory) matchToken(token string) (string, bool) {
	for _, name := range d.allowed {
		if strings.Contains(token, name) || strings.Contains(name, token) || strings.Contains(token, lastWord(name)) {
			return name, true
		}
	}

	return "", false
}

// Reporter resolves who posted a message: the sender, then a bracketed
// token, then a surname match against the sender, then fallback.
func (d StaffDirectory) Reporter(sender string, brackets []string, fallback string) string {
	if name, ok := d.allowedIn(sender); ok {
		return name
	}
	for _, token := range brackets {
		if name, ok := d.matchToken(token); ok {
			return name
		}
	}
	if sender != "" {
		for _, name := range d.allowed {
			if strings.Contains(sender, lastWord(name)) {
				return name
			}
		}
	}

	return fallback
}

// Header returns the identity a message announces for the block of bullets
// that follows it. Bracketed tokens win over the sender field.
func (d StaffDirectory) Header(sender string, brackets []string) (string, bool) {
	for _, token := range brackets {
		if name, ok := d.matchToken(token); ok {
			return name, true
		}
	}

	return d.allowedIn(sender)
}

// Normalize shortens a staff identity: "[씨마스 조영환 부장]" becomes "조영환".
func (d StaffDirectory) Normalize(name string) string {
	s := strings.TrimSpace(name)
	if s == "" {
		return ""
	}

	s = outerBracketsRE.ReplaceAllString(s, "")
	s = collapseSpaces(bracketsReplacer.Replace(s))

	if alias, ok := d.aliases[s]; ok {
		return alias
	}
	for _, short := range d.shortNames {
		if short != "" && strings.Contains(s, short) {
			return short
		}
	}

	return s
}

func lastWord(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return name
	}

	return fields[len(fields)-1]
}

// NormalizeStaffName shortens name with the vocabulary's staff tables.
func NormalizeStaffName(name string, vocab domain.Vocabulary) string {
	return NewStaffDirectory(vocab).Normalize(name)
}
