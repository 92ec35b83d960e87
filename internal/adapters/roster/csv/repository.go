package csv

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cmass-sales/visitlog/internal/domain"
	"github.com/cmass-sales/visitlog/internal/ports"
	"golang.org/x/text/unicode/norm"
)

const DefaultPath = "sales_staff.csv"

const (
	columnOffice     = "시도교육청"
	columnDistrict   = "교육지원청"
	columnRegion     = "지역"
	columnSchoolCode = "정보공시학교코드"
	columnSchool     = "학교명"
	columnSchoolAlt  = "학교"
	columnOwner      = "담당자"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// schoolMarkers identify cells that look like school names in a sheet
// without a usable header.
var schoolMarkers = []string{"학교", "중학교", "고등학교", "초등학교", "여중", "여고"}

// Repository reads the sales assignment sheet.
type Repository struct {
	path string
}

var _ ports.RosterRepository = (*Repository)(nil)

func NewRepository(path string) *Repository {
	if path == "" {
		path = DefaultPath
	}

	return &Repository{path: path}
}

func (r *Repository) Load(ctx context.Context) (domain.Roster, error) {
	if err := ctx.Err(); err != nil {
		return domain.Roster{}, err
	}

	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.Roster{}, fmt.Errorf("%w: %s", domain.ErrRosterNotFound, r.path)
		}
		return domain.Roster{}, fmt.Errorf("read roster file: %w", err)
	}

	rows, err := Parse(bytes.NewReader(data))
	if err != nil {
		return domain.Roster{}, fmt.Errorf("parse roster file %s: %w", r.path, err)
	}

	return domain.NewRoster(rows), nil
}

// Parse decodes roster rows. A sheet whose header names no school column is
// scanned cell by cell for school-like names instead.
func Parse(reader io.Reader) ([]domain.RosterRow, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	records, err := newReader(data).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := indexHeader(records[0])
	schoolCol, ok := header[columnSchool]
	if !ok {
		schoolCol, ok = header[columnSchoolAlt]
	}
	if !ok {
		return scanCells(records), nil
	}

	rows := make([]domain.RosterRow, 0, len(records)-1)
	for _, record := range records[1:] {
		rows = append(rows, domain.RosterRow{
			Office:     cell(record, header, columnOffice),
			District:   cell(record, header, columnDistrict),
			Region:     cell(record, header, columnRegion),
			SchoolCode: cell(record, header, columnSchoolCode),
			School:     at(record, schoolCol),
			Owner:      cell(record, header, columnOwner),
		})
	}

	return rows, nil
}

func newReader(data []byte) *csv.Reader {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	return reader
}

func indexHeader(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = normalize(name)
		if _, exists := index[name]; !exists {
			index[name] = i
		}
	}

	return index
}

func cell(record []string, header map[string]int, column string) string {
	i, ok := header[column]
	if !ok {
		return ""
	}

	return at(record, i)
}

func at(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}

	return normalize(record[i])
}

func scanCells(records [][]string) []domain.RosterRow {
	var rows []domain.RosterRow
	for _, record := range records {
		for _, value := range record {
			value = normalize(value)
			if value == "" || !looksLikeSchool(value) {
				continue
			}
			rows = append(rows, domain.RosterRow{School: value})
		}
	}

	return rows
}

func looksLikeSchool(value string) bool {
	for _, marker := range schoolMarkers {
		if strings.Contains(value, marker) {
			return true
		}
	}

	return false
}

func normalize(value string) string {
	return strings.TrimSpace(norm.NFC.String(value))
}
