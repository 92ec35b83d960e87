package summary

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/cmass-sales/visitlog/internal/domain"
)

// maxVisitLines caps the visit list; the rest is summarised in one line.
const maxVisitLines = 10

// Output names a file the run wrote.
type Output struct {
	Kind  string
	Path  string
	Count int
}

type Report struct {
	Input         string
	RunID         string
	MessageCount  int
	Entries       []domain.VisitEntry
	Visits        []domain.AggregatedVisit
	Outputs       []Output
	LookupEnabled bool
}

// RegistryCoverage is the percentage of entries whose school carries a
// registry record.
func (r Report) RegistryCoverage() float64 {
	if len(r.Entries) == 0 {
		return 0
	}

	matched := 0
	for _, e := range r.Entries {
		if e.RegistryName != "" || e.RegistryCode != "" {
			matched++
		}
	}

	return 100 * float64(matched) / float64(len(r.Entries))
}

func renderView(report Report, s styles) string {
	lines := []string{
		s.title.Render("KakaoTalk Visit Conversion"),
		s.header.Render(fmt.Sprintf("messages: %d  entries: %d  visits: %d", report.MessageCount, len(report.Entries), len(report.Visits))),
	}
	if report.Input != "" {
		lines = append(lines, s.meta.Render("input: "+report.Input))
	}
	if report.RunID != "" {
		lines = append(lines, s.meta.Render("run: "+report.RunID))
	}

	lines = append(lines, s.section.Render(coverageLine(report, s)))

	if len(report.Visits) == 0 {
		lines = append(lines, s.section.Render(s.empty.Render("No visits extracted.")))
	} else {
		lines = append(lines, s.section.Render(renderVisits(report.Visits, s)))
	}

	if len(report.Outputs) > 0 {
		lines = append(lines, s.section.Render(renderOutputs(report.Outputs, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func coverageLine(report Report, s styles) string {
	coverage := report.RegistryCoverage()
	line := lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.key.Render("registry:"),
		" ",
		renderProgressBar(coverage, 24, s),
		" ",
		s.detail.Render(fmt.Sprintf("%2.0f%% matched", coverage)),
	)

	if !report.LookupEnabled {
		line += " " + s.warning.Render("[lookup disabled]")
	}

	return line
}

func renderVisits(visits []domain.AggregatedVisit, s styles) string {
	parts := make([]string, 0, min(len(visits), maxVisitLines)+1)
	for _, v := range visits[:min(len(visits), maxVisitLines)] {
		parts = append(parts, visitLine(v, s))
	}

	if hidden := len(visits) - maxVisitLines; hidden > 0 {
		parts = append(parts, s.empty.Render(fmt.Sprintf("... %d more", hidden)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func visitLine(v domain.AggregatedVisit, s styles) string {
	title := v.School
	if v.SchoolLevel != domain.LevelUnknown {
		title = fmt.Sprintf("%s (%s)", v.School, v.SchoolLevel)
	}

	meta := []string{v.VisitDate}
	if window := visitWindow(v); window != "" {
		meta = append(meta, window)
	}
	if v.Region != "" {
		meta = append(meta, v.Region)
	}
	meta = append(meta, subjectLabel(v.Subjects))

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.visit.Render(title),
		" ",
		s.meta.Render(strings.Join(meta, " · ")),
	)
}

func visitWindow(v domain.AggregatedVisit) string {
	window := v.VisitStart
	if v.VisitEnd != "" {
		window += "-" + v.VisitEnd
	}
	if v.DurationMinutes > 0 {
		window = strings.TrimSpace(fmt.Sprintf("%s %d분", window, v.DurationMinutes))
	}

	return window
}

func subjectLabel(subjects []domain.SubjectRecord) string {
	names := make([]string, 0, len(subjects))
	for _, subject := range subjects {
		names = append(names, subject.Subject)
	}

	return strings.Join(names, ", ")
}

func renderOutputs(outputs []Output, s styles) string {
	parts := make([]string, 0, len(outputs))
	for _, out := range outputs {
		parts = append(parts, lipgloss.JoinHorizontal(
			lipgloss.Top,
			s.key.Render(out.Kind+":"),
			" ",
			s.detail.Render(fmt.Sprintf("%s (%d)", out.Path, out.Count)),
		))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderProgressBar(percent float64, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	filled := int(math.Round(float64(width) * clampPercent(percent) / 100))
	filled = max(0, min(filled, width))

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", width-filled)),
		s.barBracket.Render("]"),
	)
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
