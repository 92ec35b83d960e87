package export

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cmass-sales/visitlog/internal/domain"
)

// CSVHeader is the column order of the migration sheet.
var CSVHeader = []string{
	"record_id", "bullet", "created_at", "staff", "visit_date", "school", "schoolLevel", "region", "location",
	"visitStart", "visitEnd", "visitDurationMinutes", "subject", "teacher", "publisher", "contact",
	"followUp", "conversation", "meetings",
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteCSV writes a UTF-8 sheet with a byte order mark and CRLF rows so that
// spreadsheet tools open Hangul correctly. record_id stays blank; the import
// side assigns it.
func WriteCSV(w io.Writer, entries []domain.VisitEntry) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("write csv bom: %w", err)
	}

	writer := csv.NewWriter(w)
	writer.UseCRLF = true

	if err := writer.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, e := range entries {
		doc := NewEntryDocument(e)
		duration := ""
		if doc.DurationMinutes != nil {
			duration = strconv.Itoa(*doc.DurationMinutes)
		}

		row := []string{
			"", doc.Bullet, doc.CreatedAt, doc.Staff, doc.VisitDate, doc.School, doc.SchoolLevel, doc.Region,
			doc.Location, doc.VisitStart, doc.VisitEnd, duration, doc.Subject, doc.Teacher, doc.Publisher,
			doc.Contact, doc.FollowUp, doc.Conversation, doc.Meetings,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}

	return nil
}

// WritePayload writes the aggregated payload as indented JSON.
func WritePayload(w io.Writer, payload domain.VisitPayload) error {
	return writeIndented(w, NewPayloadDocument(payload))
}

// WriteEntries writes one compact JSON document per line.
func WriteEntries(w io.Writer, entries []domain.VisitEntry) error {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)

	for _, e := range entries {
		if err := encoder.Encode(NewEntryDocument(e)); err != nil {
			return fmt.Errorf("encode entry: %w", err)
		}
	}

	return nil
}

// WritePreview prints up to limit entries and visits as indented JSON.
func WritePreview(w io.Writer, entries []domain.VisitEntry, visits []domain.AggregatedVisit, limit int) error {
	if _, err := fmt.Fprintf(w, "\n--- Preview entries (first %d) ---\n", limit); err != nil {
		return err
	}
	for _, e := range entries[:min(limit, len(entries))] {
		if err := writeIndented(w, NewEntryDocument(e)); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "\n--- Preview aggregated visits (first %d) ---\n", limit); err != nil {
		return err
	}
	for _, v := range visits[:min(limit, len(visits))] {
		if err := writeIndented(w, NewVisitDocument(v)); err != nil {
			return err
		}
	}

	return nil
}

// WriteFile creates path, including missing parent directories, and hands a
// buffered writer to write.
func WriteFile(path string, write func(io.Writer) error) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close output file: %w", closeErr)
		}
	}()

	buffered := bufio.NewWriter(file)
	if err := write(buffered); err != nil {
		return err
	}
	if err := buffered.Flush(); err != nil {
		return fmt.Errorf("flush output file: %w", err)
	}

	return nil
}

func writeIndented(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	return nil
}
