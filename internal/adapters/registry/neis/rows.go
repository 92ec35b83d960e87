package neis

import (
	"fmt"
	"slices"
	"strings"

	"github.com/cmass-sales/visitlog/internal/domain"
)

var locationFields = []string{"LCTN_ADRES", "ORG_RDNMA", "ORG_RDNMA_DTL", "SCHUL_ADDR", "ADRES"}

// Rows collects the school rows of a schoolInfo response. The usual shape is
// {"schoolInfo": [{"head": [...]}, {"row": [...]}]}; any other top-level list
// holding row objects is accepted too, in key order.
func Rows(doc map[string]any) []map[string]any {
	if rows := rowsIn(doc["schoolInfo"]); len(rows) > 0 {
		return rows
	}

	keys := make([]string, 0, len(doc))
	for key := range doc {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	var rows []map[string]any
	for _, key := range keys {
		rows = append(rows, rowsIn(doc[key])...)
	}

	return rows
}

func rowsIn(value any) []map[string]any {
	parts, ok := value.([]any)
	if !ok {
		return nil
	}

	var rows []map[string]any
	for _, part := range parts {
		block, ok := part.(map[string]any)
		if !ok {
			continue
		}
		list, ok := block["row"].([]any)
		if !ok {
			continue
		}
		for _, item := range list {
			if row, ok := item.(map[string]any); ok {
				rows = append(rows, row)
			}
		}
	}

	return rows
}

// Record maps one registry row. officeCode fills in the jurisdiction when the
// row does not carry one.
func Record(row map[string]any, officeCode string) domain.SchoolRecord {
	office := first(row, "ATPT_OFCDC_SC_CODE", "ATPT_CODE")
	if office == "" {
		office = officeCode
	}

	officeName := first(row, "ATPT_OFCDC_SC_NM", "ATPT_OFCDC_SC_NAME", "ATPT_OFCDC_SC_CODE")
	if officeName == "" {
		officeName = office
	}

	return domain.SchoolRecord{
		Name:       first(row, "SCHUL_NM", "SCHUL_NAME"),
		Code:       first(row, "SD_SCHUL_CODE", "SCHOOL_CODE"),
		OfficeCode: office,
		OfficeName: officeName,
		Location:   first(row, locationFields...),
		Raw:        row,
	}
}

func first(row map[string]any, keys ...string) string {
	for _, key := range keys {
		if s := text(row[key]); s != "" {
			return s
		}
	}

	return ""
}

func text(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strings.TrimSpace(fmt.Sprintf("%.0f", v))
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
