package domain

import "strings"

// RosterRow mirrors one line of the sales assignment sheet.
type RosterRow struct {
	Office     string
	District   string
	Region     string
	SchoolCode string
	School     string
	Owner      string
}

// RegionTokens lists the row's region hints from the most to the least specific.
func (r RosterRow) RegionTokens() []string {
	tokens := make([]string, 0, 3)
	for _, value := range []string{r.Region, r.District, r.Office} {
		if value != "" {
			tokens = append(tokens, value)
		}
	}

	return tokens
}

type Roster struct {
	rows []RosterRow
}

func NewRoster(rows []RosterRow) Roster {
	kept := make([]RosterRow, 0, len(rows))
	for _, row := range rows {
		if strings.TrimSpace(row.School) == "" {
			continue
		}
		kept = append(kept, row)
	}

	return Roster{rows: kept}
}

func (r Roster) Len() int {
	return len(r.rows)
}

func (r Roster) Rows() []RosterRow {
	return append([]RosterRow(nil), r.rows...)
}

// SchoolNames returns the distinct school names in file order.
func (r Roster) SchoolNames() []string {
	seen := make(map[string]struct{}, len(r.rows))
	names := make([]string, 0, len(r.rows))
	for _, row := range r.rows {
		if _, ok := seen[row.School]; ok {
			continue
		}
		seen[row.School] = struct{}{}
		names = append(names, row.School)
	}

	return names
}

// Owner returns the owner of the last row naming school.
func (r Roster) Owner(school string) (string, bool) {
	owner, found := "", false
	for _, row := range r.rows {
		if row.School == school {
			owner, found = row.Owner, true
		}
	}

	return owner, found
}

func (r Roster) RowsFor(school string) []RosterRow {
	var matched []RosterRow
	for _, row := range r.rows {
		if row.School == school {
			matched = append(matched, row)
		}
	}

	return matched
}

// Matching returns the distinct school names that contain token or are
// contained in it, in file order.
func (r Roster) Matching(token string) []string {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}

	var matched []string
	seen := map[string]struct{}{}
	for _, row := range r.rows {
		if !strings.Contains(row.School, token) && !strings.Contains(token, row.School) {
			continue
		}
		if _, ok := seen[row.School]; ok {
			continue
		}
		seen[row.School] = struct{}{}
		matched = append(matched, row.School)
	}

	return matched
}

func (r Roster) HasSchool(school string) bool {
	_, ok := r.Owner(school)
	return ok
}
