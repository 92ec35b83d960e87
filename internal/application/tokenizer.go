package application

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cmass-sales/visitlog/internal/domain"
)

// Timestamp headers are only recognised at the start of a line, after
// optional separator decoration such as "-----".
const headerPrefix = `^[\s\-=\[(]*`

var (
	isoTimestampRE   = regexp.MustCompile(headerPrefix + `(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2})`)
	dateTimeRE       = regexp.MustCompile(headerPrefix + `(\d{4})[\-./](\d{1,2})[\-./](\d{1,2})(?:[ T](\d{1,2}):(\d{2})(?::(\d{2}))?)?`)
	kakaoTimestampRE = regexp.MustCompile(headerPrefix + `(\d{4})\s*(?:년|\.)\s*(\d{1,2})\s*(?:월|\.)\s*(\d{1,2})\s*(?:일|\.)?[\s,]*(?:(오전|오후)\s*)?(?:(\d{1,2}):(\d{2}))?`)
)

const afternoonMarker = "오후"

// Tokenize splits transcript lines into messages. A line opening with a
// recognised timestamp starts a new message; any other line continues the
// current one. Timestamps are naive wall-clock times carried in UTC.
func Tokenize(lines []string) []domain.RawMessage {
	var msgs []domain.RawMessage

	for _, raw := range lines {
		line := normalizeLine(strings.TrimRight(raw, "\r\n"))
		if strings.TrimSpace(line) == "" {
			if len(msgs) > 0 {
				msgs[len(msgs)-1].Text += "\n"
			}
			continue
		}

		if ts, rest, ok := matchHeader(line); ok {
			sender, text := splitSender(rest)
			msgs = append(msgs, domain.RawMessage{Timestamp: ts, Sender: sender, Text: text})
			continue
		}

		if len(msgs) > 0 {
			msgs[len(msgs)-1].Text += "\n" + line
			continue
		}

		msgs = append(msgs, domain.RawMessage{Text: strings.TrimSpace(line)})
	}

	return msgs
}

// matchHeader tries the machine-readable form first, then the numeric date
// form, then the localized year/month/day form. A recognised header whose
// components do not form a valid time yields a nil timestamp.
func matchHeader(line string) (*time.Time, string, bool) {
	if loc := isoTimestampRE.FindStringSubmatchIndex(line); loc != nil {
		var ts *time.Time
		if parsed, err := time.Parse("2006-01-02T15:04:05", line[loc[2]:loc[3]]); err == nil {
			ts = &parsed
		}
		return ts, strings.TrimSpace(line[loc[1]:]), true
	}

	if m := dateTimeRE.FindStringSubmatchIndex(line); m != nil {
		rest := strings.TrimSpace(line[m[1]:])
		if rest == "" {
			return nil, "", false
		}
		g := submatches(line, m)
		return buildTimestamp(g[1], g[2], g[3], g[4], g[5], g[6], ""), rest, true
	}

	if m := kakaoTimestampRE.FindStringSubmatchIndex(line); m != nil {
		rest := strings.TrimSpace(line[m[1]:])
		if rest == "" {
			return nil, "", false
		}
		g := submatches(line, m)
		return buildTimestamp(g[1], g[2], g[3], g[5], g[6], "", g[4]), rest, true
	}

	return nil, "", false
}

func submatches(s string, loc []int) []string {
	out := make([]string, len(loc)/2)
	for i := range out {
		if loc[2*i] >= 0 {
			out[i] = s[loc[2*i]:loc[2*i+1]]
		}
	}

	return out
}

func buildTimestamp(year, month, day, hour, minute, second, meridiem string) *time.Time {
	y, errY := strconv.Atoi(year)
	mo, errM := strconv.Atoi(month)
	d, errD := strconv.Atoi(day)
	if errY != nil || errM != nil || errD != nil {
		return nil
	}

	h, mi, s := 0, 0, 0
	if hour != "" {
		var err error
		if h, err = strconv.Atoi(hour); err != nil {
			return nil
		}
		if mi, err = strconv.Atoi(minute); err != nil {
			return nil
		}
	}
	if second != "" {
		var err error
		if s, err = strconv.Atoi(second); err != nil {
			return nil
		}
	}

	if meridiem == afternoonMarker && h < 12 {
		h += 12
	}

	if mo < 1 || mo > 12 || d < 1 || h > 23 || mi > 59 || s > 59 {
		return nil
	}

	ts := time.Date(y, time.Month(mo), d, h, mi, s, 0, time.UTC)
	if ts.Day() != d {
		return nil
	}

	return &ts
}

// splitSender cuts at the first colon. Without a colon the whole remainder is
// message text.
func splitSender(rest string) (string, string) {
	sender, text, ok := strings.Cut(rest, ":")
	if !ok {
		return "", strings.TrimSpace(rest)
	}

	sender = strings.TrimLeft(strings.TrimSpace(sender), ", ")
	return sender, strings.TrimSpace(text)
}
