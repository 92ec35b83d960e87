package export

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cmass-sales/visitlog/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntries() []domain.VisitEntry {
	return []domain.VisitEntry{
		{
			Bullet:          "가",
			CreatedAt:       time.Date(2025, 10, 28, 13, 0, 0, 0, time.UTC),
			VisitDate:       "2025-10-28",
			Reporter:        "조영환",
			SchoolRaw:       "숭덕여중",
			School:          "숭덕여자중학교",
			SchoolLevel:     domain.LevelMiddle,
			RegistryName:    "숭덕여자중학교",
			RegistryCode:    "7130123",
			Region:          "서울특별시교육청",
			Location:        "서울특별시 동작구",
			VisitStart:      "13:00",
			VisitEnd:        "14:10",
			DurationMinutes: 70,
			Subject:         "정보",
			Teacher:         "김병길",
			Publisher:       "교학사",
			Contact:         "010-1234-5678",
			Tags:            []string{"브로슈어", "명함"},
			Conversation:    "정보(김병길-교학사), \"자료\" 요청",
			AssignedOwner:   "조영환",
		},
		{
			Bullet:      "나",
			VisitDate:   "2025-10-28",
			Reporter:    "조영환",
			School:      "한빛고",
			SchoolLevel: domain.LevelHigh,
			Subject:     "기타",
			Teacher:     "씨마스 조영환",
		},
	}
}

func TestWriteCSVUsesBOMAndCRLF(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleEntries()))

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "\ufeffrecord_id,bullet,created_at,"))

	lines := strings.Split(strings.TrimSuffix(out, "\r\n"), "\r\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "\ufeff"+strings.Join(CSVHeader, ","), lines[0])
	assert.Equal(t,
		`,가,2025-10-28T13:00:00,조영환,2025-10-28,숭덕여자중학교,중,서울특별시교육청,서울특별시 동작구,13:00,14:10,70,정보,김병길,교학사,010-1234-5678,"브로슈어,명함","정보(김병길-교학사), ""자료"" 요청","브로슈어,명함"`,
		lines[1])
	assert.Equal(t, ",나,,조영환,2025-10-28,한빛고,고,,,,,,기타,씨마스 조영환,,,,,", lines[2])
}

func TestWriteCSVHeaderOnlyForNoEntries(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))

	assert.Equal(t, "\ufeff"+strings.Join(CSVHeader, ",")+"\r\n", buf.String())
	assert.Len(t, CSVHeader, 19)
}

func TestWritePayloadShape(t *testing.T) {
	t.Parallel()

	entries := sampleEntries()
	payload := domain.VisitPayload{
		Staff: "조영환",
		Visits: []domain.AggregatedVisit{{
			VisitDate:       "2025-10-28",
			School:          "숭덕여자중학교",
			SchoolLevel:     domain.LevelMiddle,
			VisitStart:      "13:00",
			VisitEnd:        "14:10",
			DurationMinutes: 70,
			Subjects: []domain.SubjectRecord{
				{Subject: "정보", Teacher: "김병길", Tags: entries[0].Tags, FollowUp: "브로슈어,명함", AssignedOwner: "조영환"},
				{Subject: "수학", Teacher: "박선생"},
			},
		}},
	}

	var buf bytes.Buffer
	require.NoError(t, WritePayload(&buf, payload))
	assert.Contains(t, buf.String(), "\n  \"staff\": \"조영환\"")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	visits := decoded["visits"].([]any)
	require.Len(t, visits, 1)
	visit := visits[0].(map[string]any)
	assert.Equal(t, "숭덕여자중학교", visit["school"])
	assert.Equal(t, "중", visit["schoolLevel"])
	assert.EqualValues(t, 70, visit["visitDurationMinutes"])

	subjects := visit["subjects"].([]any)
	require.Len(t, subjects, 2)
	first := subjects[0].(map[string]any)
	assert.Equal(t, []any{"브로슈어", "명함"}, first["meetings"])
	assert.Equal(t, "조영환", first["assigned_sales"])
	assert.Equal(t, "브로슈어,명함", first["followUp"])
	assert.Equal(t, []any{}, subjects[1].(map[string]any)["meetings"])
}

func TestWritePayloadEmptyVisitsIsArray(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WritePayload(&buf, domain.VisitPayload{}))

	assert.JSONEq(t, `{"staff": "", "visits": []}`, buf.String())
}

func TestWriteEntriesOneDocumentPerLine(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteEntries(&buf, sampleEntries()))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "7130123", first["neis_code"])
	assert.Equal(t, "브로슈어,명함", first["meetings"])
	assert.Equal(t, "2025-10-28T13:00:00", first["created_at"])

	var second map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Nil(t, second["visitDurationMinutes"])
	assert.Contains(t, second, "visitDurationMinutes")
}

func TestWritePreviewLimitsOutput(t *testing.T) {
	t.Parallel()

	entries := make([]domain.VisitEntry, 0, 7)
	for range 7 {
		entries = append(entries, sampleEntries()[1])
	}

	var buf bytes.Buffer
	require.NoError(t, WritePreview(&buf, entries, nil, 5))

	assert.Equal(t, 5, strings.Count(buf.String(), `"bullet": "나"`))
	assert.Contains(t, buf.String(), "--- Preview aggregated visits (first 5) ---")
}

func TestWriteFileCreatesParents(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out", "entries.jsonl")
	require.NoError(t, WriteFile(path, func(w io.Writer) error {
		return WriteEntries(w, sampleEntries()[:1])
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"school":"숭덕여자중학교"`)
}

func TestWritersKeepKnownZeroDuration(t *testing.T) {
	t.Parallel()

	entries := []domain.VisitEntry{{
		Bullet:        "가",
		VisitDate:     "2025-10-28",
		School:        "한빛중학교",
		VisitStart:    "09:00",
		VisitEnd:      "09:00",
		DurationKnown: true,
		Subject:       "정보",
	}}

	var csvBuf bytes.Buffer
	require.NoError(t, WriteCSV(&csvBuf, entries))
	assert.Contains(t, csvBuf.String(), ",09:00,09:00,0,정보,")

	var jsonBuf bytes.Buffer
	require.NoError(t, WriteEntries(&jsonBuf, entries))
	assert.Contains(t, jsonBuf.String(), `"visitDurationMinutes":0`)

	var payloadBuf bytes.Buffer
	visit := domain.AggregatedVisit{VisitDate: "2025-10-28", School: "한빛중학교", DurationKnown: true}
	require.NoError(t, WritePayload(&payloadBuf, domain.VisitPayload{Visits: []domain.AggregatedVisit{visit}}))
	assert.Contains(t, payloadBuf.String(), `"visitDurationMinutes": 0`)
}
