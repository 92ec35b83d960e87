package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cmass-sales/visitlog/internal/domain"
	"github.com/cmass-sales/visitlog/internal/ports"
)

const (
	DefaultPath     = "neis_cache.json"
	cacheFileMode   = 0o644
	cacheDirMode    = 0o755
	tempFilePattern = ".neis_cache-*.json.tmp"
)

// Store keeps registry lookups in a single JSON object keyed by query. The
// layout matches the cache file older tooling already wrote, so existing
// caches keep working.
type Store struct {
	path string
	mu   *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.LookupCacheStore = (*Store)(nil)

func NewStore(path string) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve cache path: %w", err)
	}
	absPath = filepath.Clean(absPath)

	return &Store{path: absPath, mu: lockForPath(absPath)}, nil
}

func (s *Store) Path() string {
	return s.path
}

type entrySchema struct {
	Name     string         `json:"name"`
	Code     string         `json:"code"`
	Atpt     string         `json:"atpt"`
	AtptName string         `json:"atpt_name"`
	Location string         `json:"location"`
	Raw      map[string]any `json:"raw"`
	CachedAt float64        `json:"cached_at"`
}

// Load returns an empty map when the file does not exist yet. A file that
// cannot be decoded is reported as an error; callers decide whether to start
// over.
func (s *Store) Load(ctx context.Context) (map[string]domain.SchoolRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]domain.SchoolRecord{}, nil
		}
		return nil, fmt.Errorf("read cache file: %w", err)
	}

	var file map[string]entrySchema
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode cache file: %w", err)
	}

	entries := make(map[string]domain.SchoolRecord, len(file))
	for key, entry := range file {
		entries[key] = fromSchema(entry)
	}

	return entries, nil
}

func (s *Store) Save(ctx context.Context, entries map[string]domain.SchoolRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	file := make(map[string]entrySchema, len(entries))
	for key, record := range entries {
		file[key] = toSchema(record)
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache file: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.write(data)
}

func (s *Store) write(data []byte) error {
	if err := os.MkdirAll(filepath.Dir(s.path), cacheDirMode); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(s.path), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp cache file: %w", err)
	}
	if err := tempFile.Chmod(cacheFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp cache file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp cache file: %w", err)
	}
	if err := os.Rename(tempName, s.path); err != nil {
		return fmt.Errorf("replace cache file: %w", err)
	}
	cleanup = false

	return nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

func toSchema(record domain.SchoolRecord) entrySchema {
	entry := entrySchema{
		Name:     record.Name,
		Code:     record.Code,
		Atpt:     record.OfficeCode,
		AtptName: record.OfficeName,
		Location: record.Location,
		Raw:      record.Raw,
	}
	if !record.CachedAt.IsZero() {
		entry.CachedAt = float64(record.CachedAt.Unix()) + float64(record.CachedAt.Nanosecond())/float64(time.Second)
	}

	return entry
}

// cached_at is fractional Unix seconds; zero means unknown.
func fromSchema(entry entrySchema) domain.SchoolRecord {
	record := domain.SchoolRecord{
		Name:       entry.Name,
		Code:       entry.Code,
		OfficeCode: entry.Atpt,
		OfficeName: entry.AtptName,
		Location:   entry.Location,
		Raw:        entry.Raw,
	}
	if entry.CachedAt > 0 {
		sec, frac := math.Modf(entry.CachedAt)
		record.CachedAt = time.Unix(int64(sec), int64(math.Round(frac*1e6))*int64(time.Microsecond)).UTC()
	}

	return record
}
