// Package config resolves visitlog settings from defaults, an optional TOML
// file, a project .env file and VISITLOG_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvPrefix  = "VISITLOG"
	configName = "visitlog"
	configType = "toml"

	CacheBackendJSON   = "json"
	CacheBackendSQLite = "sqlite"

	defaultJSONCachePath   = "neis_cache.json"
	defaultSQLiteCachePath = "neis_cache.db"
)

type Config struct {
	Staff      string           `mapstructure:"staff"`
	Roster     RosterConfig     `mapstructure:"roster"`
	Vocabulary VocabularyConfig `mapstructure:"vocabulary"`
	Snapshot   SnapshotConfig   `mapstructure:"snapshot"`
	Cache      CacheConfig      `mapstructure:"cache"`
	NEIS       NEISConfig       `mapstructure:"neis"`
	Log        LogConfig        `mapstructure:"log"`
}

type RosterConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

type VocabularyConfig struct {
	Path string `mapstructure:"path"`
}

type SnapshotConfig struct {
	Glob string `mapstructure:"glob"`
}

type CacheConfig struct {
	Backend string        `mapstructure:"backend" validate:"oneof=json sqlite"`
	Path    string        `mapstructure:"path"`
	TTL     time.Duration `mapstructure:"ttl" validate:"gt=0"`
}

type NEISConfig struct {
	Key        string        `mapstructure:"key"`
	BaseURL    string        `mapstructure:"base_url" validate:"required,url"`
	OfficeCode string        `mapstructure:"office_code"`
	Timeout    time.Duration `mapstructure:"timeout" validate:"gt=0"`
	Delay      time.Duration `mapstructure:"delay" validate:"gte=0"`
	UserAgent  string        `mapstructure:"user_agent"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=trace debug info warn warning error disabled"`
	Format string `mapstructure:"format" validate:"oneof=console json"`
}

// LookupEnabled reports whether a registry credential is configured.
func (c Config) LookupEnabled() bool {
	return strings.TrimSpace(c.NEIS.Key) != ""
}

type Options struct {
	// ConfigFile names an explicit config file; reading it must succeed.
	ConfigFile string
	// DotEnv is the .env file to load; empty means ".env" in the working
	// directory. A missing file is ignored.
	DotEnv string
}

// SetDefaults registers every known key so that environment variables bind
// even when no config file mentions them.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("staff", "")
	v.SetDefault("roster.path", "sales_staff.csv")
	v.SetDefault("vocabulary.path", "")
	v.SetDefault("snapshot.glob", "neis_*.json")
	v.SetDefault("cache.backend", CacheBackendJSON)
	v.SetDefault("cache.path", "")
	v.SetDefault("cache.ttl", 30*24*time.Hour)
	v.SetDefault("neis.key", "")
	v.SetDefault("neis.base_url", "https://open.neis.go.kr/hub")
	v.SetDefault("neis.office_code", "")
	v.SetDefault("neis.timeout", 10*time.Second)
	v.SetDefault("neis.delay", 100*time.Millisecond)
	v.SetDefault("neis.user_agent", "cmass-neis-lookup/1.0")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Load resolves the configuration into v, which may already carry bound
// command-line flags. A nil v gets a fresh instance.
func Load(v *viper.Viper, opts Options) (Config, error) {
	if v == nil {
		v = viper.New()
	}

	if err := loadDotEnv(opts.DotEnv); err != nil {
		return Config{}, err
	}

	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("neis.key", EnvPrefix+"_NEIS_KEY", "NEIS_KEY"); err != nil {
		return Config{}, fmt.Errorf("bind registry key env: %w", err)
	}

	if err := readConfigFile(v, opts.ConfigFile); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.normalize()

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) normalize() {
	c.Cache.Backend = strings.ToLower(strings.TrimSpace(c.Cache.Backend))
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	c.NEIS.Key = strings.TrimSpace(c.NEIS.Key)

	if c.Cache.Path == "" {
		c.Cache.Path = defaultJSONCachePath
		if c.Cache.Backend == CacheBackendSQLite {
			c.Cache.Path = defaultSQLiteCachePath
		}
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func Validate(cfg Config) error {
	if err := validate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	return nil
}

func readConfigFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file: %w", err)
		}
		return nil
	}

	v.SetConfigName(configName)
	v.SetConfigType(configType)
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", configName))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config file: %w", err)
		}
	}

	return nil
}

// loadDotEnv never overrides variables that are already set.
func loadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}

	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}

	return nil
}
