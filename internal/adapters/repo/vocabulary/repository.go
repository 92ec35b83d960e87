package vocabulary

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cmass-sales/visitlog/internal/domain"
	"github.com/cmass-sales/visitlog/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	vocabularyFileMode = 0o644
	vocabularyDirMode  = 0o755
)

// Repository layers a vocabulary file over the built-in vocabulary. The file
// format follows the extension: .yaml and .yml are YAML, anything else TOML.
// An empty path means the built-in vocabulary only.
type Repository struct {
	path string
	mu   *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.VocabularyRepository = (*Repository)(nil)

func NewRepository(path string) (*Repository, error) {
	if path == "" {
		return &Repository{mu: &sync.RWMutex{}}, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve vocabulary path: %w", err)
	}
	absPath = filepath.Clean(absPath)

	return &Repository{path: absPath, mu: lockForPath(absPath)}, nil
}

func (r *Repository) Path() string {
	return r.path
}

// Load returns the built-in vocabulary merged with the file. A missing file
// contributes nothing.
func (r *Repository) Load(ctx context.Context) (domain.Vocabulary, error) {
	if err := ctx.Err(); err != nil {
		return domain.Vocabulary{}, err
	}

	base := domain.DefaultVocabulary()
	if r.path == "" {
		return base, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return domain.Vocabulary{}, err
	}

	return base.Merge(file.toDomain()), nil
}

// SaveSchoolAlias records token -> canonical in the file, creating it when
// needed. Other entries are preserved.
func (r *Repository) SaveSchoolAlias(ctx context.Context, token, canonical string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	token, canonical = strings.TrimSpace(token), strings.TrimSpace(canonical)
	if token == "" || canonical == "" {
		return errors.New("school alias needs both a token and a canonical name")
	}
	if r.path == "" {
		return fmt.Errorf("save school alias: %w", domain.ErrVocabularyNotFound)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}
	if file.SchoolAliases == nil {
		file.SchoolAliases = map[string]string{}
	}
	file.SchoolAliases[token] = canonical

	if err := ctx.Err(); err != nil {
		return err
	}

	return r.writeSchema(file)
}

func (r *Repository) isYAML() bool {
	ext := strings.ToLower(filepath.Ext(r.path))
	return ext == ".yaml" || ext == ".yml"
}

func (r *Repository) readSchema() (fileSchema, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			file := fileSchema{}
			file.applyDefaults()
			return file, nil
		}
		return fileSchema{}, fmt.Errorf("read vocabulary file: %w", err)
	}

	var file fileSchema
	if r.isYAML() {
		err = yaml.Unmarshal(data, &file)
	} else {
		err = toml.Unmarshal(data, &file)
	}
	if err != nil {
		return fileSchema{}, fmt.Errorf("decode vocabulary file: %w", err)
	}

	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func (r *Repository) writeSchema(file fileSchema) error {
	file.applyDefaults()

	var (
		data []byte
		err  error
	)
	if r.isYAML() {
		data, err = yaml.Marshal(file)
	} else {
		data, err = toml.Marshal(file)
	}
	if err != nil {
		return fmt.Errorf("encode vocabulary file: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, vocabularyDirMode); err != nil {
		return fmt.Errorf("create vocabulary directory: %w", err)
	}

	tempFile, err := os.CreateTemp(dir, "."+filepath.Base(r.path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp vocabulary file: %w", err)
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
		return fmt.Errorf("write temp vocabulary file: %w", err)
	}
	if err := tempFile.Chmod(vocabularyFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp vocabulary file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp vocabulary file: %w", err)
	}
	if err := os.Rename(tempName, r.path); err != nil {
		return fmt.Errorf("replace vocabulary file: %w", err)
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
