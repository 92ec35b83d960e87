package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cmass-sales/visitlog/internal/adapters/cachestore/jsonfile"
	"github.com/cmass-sales/visitlog/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rosterFixture = "시도교육청,교육지원청,지역,정보공시학교코드,학교명,담당자\n" +
	"서울특별시교육청,서울강남교육지원청,서울,S0001,서울한빛중학교,조영환\n" +
	"부산광역시교육청,부산동래교육지원청,부산,S0002,부산한빛중학교,임준호\n"

const snapshotFixture = `{"schoolInfo":[{"head":[]},{"row":[
	{"SCHUL_NM":"서울한빛중학교","SD_SCHUL_CODE":"7130001","ATPT_OFCDC_SC_CODE":"B10","ATPT_OFCDC_SC_NM":"서울특별시교육청","ORG_RDNMA":"서울특별시 강남구"}]}]}`

const transcriptFixture = "2025-10-28 09:00 [씨마스 임준호 차장]: 가. 한빛중 (09:00~09:40) (40분) 정보(김선생-교학사) 010-1234-5678\r\n" +
	"2025-10-28 09:05 김외부: 가. 숭덕여중 (10:40~11:50) (70분)\r\n"

type fixture struct {
	home      string
	dir       string
	roster    string
	snapshots string
	cache     string
	input     string
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	dir := t.TempDir()
	f := fixture{
		home:      t.TempDir(),
		dir:       dir,
		roster:    filepath.Join(dir, "sales_staff.csv"),
		snapshots: filepath.Join(dir, "neis_*.json"),
		cache:     filepath.Join(dir, "neis_cache.json"),
		input:     filepath.Join(dir, "chat.txt"),
	}

	require.NoError(t, os.WriteFile(f.roster, []byte(rosterFixture), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "neis_seoul.json"), []byte(snapshotFixture), 0o600))
	require.NoError(t, os.WriteFile(f.input, []byte(transcriptFixture), 0o600))

	return f
}

func (f fixture) args(args ...string) []string {
	return append([]string{
		"--roster", f.roster,
		"--snapshots", f.snapshots,
		"--cache-path", f.cache,
		"--log-level", "error",
	}, args...)
}

func TestConvertWritesAllOutputs(t *testing.T) {
	f := newFixture(t)
	outCSV := filepath.Join(f.dir, "out", "visits.csv")
	outJSON := filepath.Join(f.dir, "out", "visits.json")
	outEntries := filepath.Join(f.dir, "out", "entries.jsonl")

	stdout, _, err := executeCLI(t, f.home, f.args(
		"convert", "-i", f.input, "-s", "임준호", "--no-lookup",
		"--out-csv", outCSV, "--out-json", outJSON, "--out-entries", outEntries,
	)...)
	require.NoError(t, err)
	assert.Contains(t, stdout, "KakaoTalk Visit Conversion")
	assert.Contains(t, stdout, "messages: 2  entries: 1  visits: 1")
	assert.NotContains(t, stdout, "--- Preview entries")

	csvData, err := os.ReadFile(outCSV)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(csvData, []byte("\ufeffrecord_id,")))
	assert.Contains(t, string(csvData), "부산한빛중학교")
	assert.Contains(t, string(csvData), "\r\n")

	var payload struct {
		Staff  string `json:"staff"`
		Visits []struct {
			School   string `json:"school"`
			Subjects []struct {
				Subject       string `json:"subject"`
				AssignedSales string `json:"assigned_sales"`
			} `json:"subjects"`
		} `json:"visits"`
	}
	jsonData, err := os.ReadFile(outJSON)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(jsonData, &payload))
	assert.Equal(t, "임준호", payload.Staff)
	require.Len(t, payload.Visits, 1)
	assert.Equal(t, "부산한빛중학교", payload.Visits[0].School)
	require.Len(t, payload.Visits[0].Subjects, 1)
	assert.Equal(t, "정보", payload.Visits[0].Subjects[0].Subject)
	assert.Equal(t, "임준호", payload.Visits[0].Subjects[0].AssignedSales)

	entryData, err := os.ReadFile(outEntries)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(entryData)), "\n")
	require.Len(t, lines, 1)
	assert.True(t, json.Valid([]byte(lines[0])))
	assert.Contains(t, lines[0], `"visitDurationMinutes":40`)
}

func TestConvertPreviewsWithoutOutputs(t *testing.T) {
	f := newFixture(t)

	stdout, _, err := executeCLI(t, f.home, f.args("convert", "-i", f.input, "--no-lookup")...)
	require.NoError(t, err)
	assert.Contains(t, stdout, "--- Preview entries (first 5) ---")
	assert.Contains(t, stdout, "--- Preview aggregated visits (first 5) ---")
	assert.Contains(t, stdout, "부산한빛중학교")
}

func TestConvertJSONSummary(t *testing.T) {
	f := newFixture(t)

	stdout, _, err := executeCLI(t, f.home, f.args("convert", "-i", f.input, "--no-lookup", "--json")...)
	require.NoError(t, err)

	var summary convertSummary
	require.NoError(t, json.Unmarshal([]byte(stdout), &summary))
	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, 2, summary.Messages)
	assert.Equal(t, 1, summary.Entries)
	assert.Equal(t, 1, summary.Visits)
	assert.False(t, summary.LookupEnabled)
	assert.Empty(t, summary.Outputs)
}

func TestConvertMissingInput(t *testing.T) {
	f := newFixture(t)

	_, _, err := executeCLI(t, f.home, f.args("convert", "-i", filepath.Join(f.dir, "missing.txt"), "--no-lookup")...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input file not found")
}

func TestConvertRequiresInputFlag(t *testing.T) {
	f := newFixture(t)

	_, _, err := executeCLI(t, f.home, f.args("convert")...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag(s) \"input\" not set")
}

func TestConvertWithoutRosterStillRuns(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.Remove(f.roster))

	stdout, _, err := executeCLI(t, f.home, f.args("convert", "-i", f.input, "--no-lookup", "--json")...)
	require.NoError(t, err)
	assert.Contains(t, stdout, `"entries": 1`)
}

func TestInvalidCacheBackendFailsBeforeRunning(t *testing.T) {
	f := newFixture(t)

	_, _, err := executeCLI(t, f.home, f.args("--cache-backend", "redis", "convert", "-i", f.input)...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load configuration")
}

func TestConvertWithSQLiteCache(t *testing.T) {
	f := newFixture(t)
	dbPath := filepath.Join(f.dir, "neis_cache.db")

	_, _, err := executeCLI(t, f.home,
		"--roster", f.roster, "--snapshots", f.snapshots, "--log-level", "error",
		"--cache-backend", "sqlite", "--cache-path", dbPath,
		"convert", "-i", f.input, "--no-lookup", "--json",
	)
	require.NoError(t, err)
	assert.FileExists(t, dbPath)
}

func TestConvertSurvivesUnopenableSQLiteCache(t *testing.T) {
	f := newFixture(t)
	dbPath := filepath.Join(f.dir, "missing-dir", "nested", "neis_cache.db")
	outJSON := filepath.Join(f.dir, "visits.json")

	_, stderr, err := executeCLI(t, f.home,
		"--roster", f.roster, "--snapshots", f.snapshots, "--log-level", "warn",
		"--cache-backend", "sqlite", "--cache-path", dbPath,
		"convert", "-i", f.input, "--no-lookup", "--out-json", outJSON,
	)
	require.NoError(t, err)
	assert.Contains(t, stderr, "lookup cache unavailable")
	assert.FileExists(t, outJSON)
	assert.NoFileExists(t, dbPath)
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := executeCLI(t, t.TempDir(), "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "visitlog")
}

func TestResolvePrefersReporterOwnedSchool(t *testing.T) {
	f := newFixture(t)

	stdout, _, err := executeCLI(t, f.home, f.args("resolve", "한빛중", "--reporter", "임준호", "--no-lookup")...)
	require.NoError(t, err)
	assert.Contains(t, stdout, "한빛중 -> 부산한빛중학교 (reporter)")
	assert.Contains(t, stdout, "owner 임준호")
	assert.Contains(t, stdout, "ambiguous in roster")
}

func TestResolveJSONIncludesSnapshotCode(t *testing.T) {
	f := newFixture(t)

	stdout, _, err := executeCLI(t, f.home, f.args("resolve", "서울한빛중학교", "--no-lookup", "--json")...)
	require.NoError(t, err)

	var results []resolvedSchool
	require.NoError(t, json.Unmarshal([]byte(stdout), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "서울한빛중학교", results[0].School)
	assert.Equal(t, "7130001", results[0].NEISCode)
	assert.Equal(t, "조영환", results[0].Owner)
	assert.Equal(t, "서울특별시교육청", results[0].Region)
}

func TestResolveRequiresToken(t *testing.T) {
	f := newFixture(t)

	_, _, err := executeCLI(t, f.home, f.args("resolve")...)
	require.Error(t, err)
}

func TestCacheListPruneClear(t *testing.T) {
	f := newFixture(t)

	store, err := jsonfile.NewStore(f.cache)
	require.NoError(t, err)
	now := time.Now()
	require.NoError(t, store.Save(context.Background(), map[string]domain.SchoolRecord{
		"새솔고":   {Name: "새솔고등학교", Code: "7010001", CachedAt: now.Add(-time.Hour)},
		"옛날중학교": {Name: "옛날중학교", CachedAt: now.Add(-40 * 24 * time.Hour)},
	}))

	stdout, _, err := executeCLI(t, f.home, f.args("cache", "list", "--json")...)
	require.NoError(t, err)
	var entries []cacheEntryView
	require.NoError(t, json.Unmarshal([]byte(stdout), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "새솔고", entries[0].Query)
	assert.Equal(t, "7010001", entries[0].Code)

	stdout, _, err = executeCLI(t, f.home, f.args("cache", "prune")...)
	require.NoError(t, err)
	assert.Equal(t, "pruned 1 expired entries\n", stdout)

	stored, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, stored, 1)

	stdout, _, err = executeCLI(t, f.home, f.args("cache", "clear")...)
	require.NoError(t, err)
	assert.Equal(t, "lookup cache cleared\n", stdout)

	stdout, _, err = executeCLI(t, f.home, f.args("cache", "list")...)
	require.NoError(t, err)
	assert.Equal(t, "lookup cache is empty\n", stdout)
}

func TestAliasAddThenResolve(t *testing.T) {
	f := newFixture(t)
	vocabPath := filepath.Join(f.dir, "vocabulary.toml")

	stdout, _, err := executeCLI(t, f.home, f.args("--vocabulary", vocabPath, "alias", "add", "한빛중", "서울한빛중학교")...)
	require.NoError(t, err)
	assert.Equal(t, "alias saved: 한빛중 -> 서울한빛중학교\n", stdout)
	assert.FileExists(t, vocabPath)

	stdout, _, err = executeCLI(t, f.home, f.args("--vocabulary", vocabPath, "alias", "list")...)
	require.NoError(t, err)
	assert.Contains(t, stdout, "한빛중 -> 서울한빛중학교\n")
	assert.Contains(t, stdout, "숭덕여중 -> 숭덕여자중학교\n")

	stdout, _, err = executeCLI(t, f.home, f.args("--vocabulary", vocabPath, "resolve", "한빛중", "--reporter", "임준호", "--no-lookup")...)
	require.NoError(t, err)
	assert.Contains(t, stdout, "한빛중 -> 서울한빛중학교 (alias)")
}

func TestAliasAddWithoutVocabularyPath(t *testing.T) {
	f := newFixture(t)

	_, _, err := executeCLI(t, f.home, f.args("alias", "add", "한빛중", "서울한빛중학교")...)
	require.ErrorIs(t, err, domain.ErrVocabularyNotFound)
	assert.Contains(t, err.Error(), "--vocabulary")
}

func executeCLI(t *testing.T, home string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", home)
	for _, key := range []string{"NEIS_KEY", "VISITLOG_NEIS_KEY", "VISITLOG_STAFF", "VISITLOG_VOCABULARY_PATH"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	root := newRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}
