package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("HOME", dir)
	unsetEnv(t, "NEIS_KEY")
	unsetEnv(t, "VISITLOG_NEIS_KEY")
	unsetEnv(t, "VISITLOG_STAFF")

	return dir
}

// unsetEnv removes key for the test and restores it afterwards.
func unsetEnv(t *testing.T, key string) {
	t.Helper()

	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func TestLoadDefaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load(nil, Options{DotEnv: filepath.Join(dir, "missing.env")})
	require.NoError(t, err)

	assert.Equal(t, "sales_staff.csv", cfg.Roster.Path)
	assert.Equal(t, "neis_*.json", cfg.Snapshot.Glob)
	assert.Equal(t, CacheBackendJSON, cfg.Cache.Backend)
	assert.Equal(t, "neis_cache.json", cfg.Cache.Path)
	assert.Equal(t, 720*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, "https://open.neis.go.kr/hub", cfg.NEIS.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.NEIS.Timeout)
	assert.Equal(t, 100*time.Millisecond, cfg.NEIS.Delay)
	assert.Equal(t, "cmass-neis-lookup/1.0", cfg.NEIS.UserAgent)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.False(t, cfg.LookupEnabled())
}

func TestLoadConfigFileAndEnvOverrides(t *testing.T) {
	dir := isolate(t)

	path := filepath.Join(dir, "visitlog.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
staff = "임준호"

[cache]
backend = "sqlite"
ttl = "48h"

[neis]
key = "from-file"
office_code = "B10"
`), 0o600))
	t.Setenv("VISITLOG_LOG_LEVEL", "debug")
	t.Setenv("VISITLOG_NEIS_DELAY", "0s")

	cfg, err := Load(nil, Options{ConfigFile: path, DotEnv: filepath.Join(dir, "missing.env")})
	require.NoError(t, err)

	assert.Equal(t, "임준호", cfg.Staff)
	assert.Equal(t, CacheBackendSQLite, cfg.Cache.Backend)
	assert.Equal(t, "neis_cache.db", cfg.Cache.Path)
	assert.Equal(t, 48*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, "from-file", cfg.NEIS.Key)
	assert.Equal(t, "B10", cfg.NEIS.OfficeCode)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, time.Duration(0), cfg.NEIS.Delay)
	assert.True(t, cfg.LookupEnabled())
}

func TestLoadRegistryKeyPrecedence(t *testing.T) {
	dir := isolate(t)

	path := filepath.Join(dir, "visitlog.toml")
	require.NoError(t, os.WriteFile(path, []byte("[neis]\nkey = \"from-file\"\n"), 0o600))

	t.Setenv("NEIS_KEY", "from-plain-env")
	cfg, err := Load(nil, Options{ConfigFile: path, DotEnv: filepath.Join(dir, "missing.env")})
	require.NoError(t, err)
	assert.Equal(t, "from-plain-env", cfg.NEIS.Key)

	t.Setenv("VISITLOG_NEIS_KEY", "from-prefixed-env")
	cfg, err = Load(nil, Options{ConfigFile: path, DotEnv: filepath.Join(dir, "missing.env")})
	require.NoError(t, err)
	assert.Equal(t, "from-prefixed-env", cfg.NEIS.Key)
}

func TestLoadDotEnvDoesNotOverrideEnvironment(t *testing.T) {
	dir := isolate(t)

	dotenv := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(dotenv, []byte("NEIS_KEY=from-dotenv\nVISITLOG_STAFF=조영환\n"), 0o600))
	t.Setenv("VISITLOG_STAFF", "송훈재")

	cfg, err := Load(nil, Options{DotEnv: dotenv})
	require.NoError(t, err)

	assert.Equal(t, "from-dotenv", cfg.NEIS.Key)
	assert.Equal(t, "송훈재", cfg.Staff)
}

func TestLoadHonoursBoundViperValues(t *testing.T) {
	dir := isolate(t)

	v := viper.New()
	v.Set("staff", "조영환")

	cfg, err := Load(v, Options{DotEnv: filepath.Join(dir, "missing.env")})
	require.NoError(t, err)
	assert.Equal(t, "조영환", cfg.Staff)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	dir := isolate(t)
	t.Setenv("VISITLOG_CACHE_BACKEND", "redis")

	_, err := Load(nil, Options{DotEnv: filepath.Join(dir, "missing.env")})
	require.ErrorContains(t, err, "invalid configuration")
	require.ErrorContains(t, err, "Backend")
}

func TestLoadMissingExplicitConfigFile(t *testing.T) {
	dir := isolate(t)

	_, err := Load(nil, Options{ConfigFile: filepath.Join(dir, "nope.toml"), DotEnv: filepath.Join(dir, "missing.env")})
	require.ErrorContains(t, err, "read config file")
}

func TestValidateRejectsNonPositiveTTL(t *testing.T) {
	isolate(t)

	cfg, err := Load(nil, Options{DotEnv: filepath.Join(t.TempDir(), "missing.env")})
	require.NoError(t, err)

	cfg.Cache.TTL = 0
	require.ErrorContains(t, Validate(cfg), "TTL")
}
