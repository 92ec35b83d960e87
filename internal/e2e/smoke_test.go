package e2e

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmokeFlow(t *testing.T) {
	home := t.TempDir()
	workDir := t.TempDir()
	binaryPath := buildBinary(t)
	require.NoError(t, writeWorkspaceFixture(workDir))

	stdout, stderr, err := runVisitlog(t, binaryPath, home, workDir,
		"convert", "-i", "chat.txt", "--no-lookup", "--out-json", "out/visits.json", "--out-csv", "out/visits.csv",
	)
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "visits: 1")

	data, err := os.ReadFile(filepath.Join(workDir, "out", "visits.json"))
	require.NoError(t, err)

	var payload struct {
		Staff  string `json:"staff"`
		Visits []struct {
			School string `json:"school"`
			Region string `json:"region"`
		} `json:"visits"`
	}
	require.NoError(t, json.Unmarshal(data, &payload))
	assert.Equal(t, "임준호", payload.Staff)
	require.Len(t, payload.Visits, 1)
	assert.Equal(t, "부산한빛중학교", payload.Visits[0].School)
	assert.Equal(t, "부산", payload.Visits[0].Region)

	stdout, stderr, err = runVisitlog(t, binaryPath, home, workDir, "cache", "list", "--json")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.JSONEq(t, "[]", stdout)
}

func buildBinary(t *testing.T) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "visitlog-e2e")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/visitlog")
	cmd.Dir = repoRoot(t)

	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "build visitlog binary: %s", string(output))
	return binaryPath
}

func runVisitlog(t *testing.T, binaryPath, home, workDir string, args ...string) (string, string, error) {
	t.Helper()

	cmd := exec.Command(binaryPath, args...)
	cmd.Dir = workDir
	cmd.Env = append(os.Environ(), "HOME="+home, "NEIS_KEY=", "VISITLOG_NEIS_KEY=")

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func repoRoot(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(wd, "..", ".."))
}

// writeWorkspaceFixture lays out a directory the way a sales team keeps it:
// a config file, a .env, the roster and an exported transcript.
func writeWorkspaceFixture(dir string) error {
	files := map[string]string{
		"visitlog.toml": `[roster]
path = "roster/sales_staff.csv"

[cache]
backend = "json"
path = "cache/neis_cache.json"

[log]
level = "warn"
format = "json"
`,
		".env": "VISITLOG_STAFF=임준호\n",
		"roster/sales_staff.csv": "시도교육청,교육지원청,지역,정보공시학교코드,학교명,담당자\n" +
			"서울특별시교육청,서울강남교육지원청,서울,S0001,서울한빛중학교,조영환\n" +
			"부산광역시교육청,부산동래교육지원청,부산,S0002,부산한빛중학교,임준호\n",
		"chat.txt": "2025-10-28 09:00 [씨마스 임준호 차장]: 가. 한빛중 (09:00~09:40) (40분) 정보(김선생-교학사)\n",
	}

	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return err
		}
	}

	return nil
}
