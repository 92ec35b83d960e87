package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cmass-sales/visitlog/internal/adapters/registry/neis"
	"github.com/cmass-sales/visitlog/internal/domain"
	"github.com/cmass-sales/visitlog/internal/ports"
)

// Registry serves lookups from saved schoolInfo responses so that schools
// already fetched once need no network round trip.
type Registry struct {
	records map[string]domain.SchoolRecord
	names   []string
	skipped []string
}

var _ ports.SchoolRegistry = (*Registry)(nil)

// Load reads every file matching pattern. Unreadable or malformed files are
// skipped and reported by Skipped.
func Load(ctx context.Context, pattern string) (*Registry, error) {
	r := &Registry{records: map[string]domain.SchoolRecord{}}
	if pattern == "" {
		return r, nil
	}

	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob registry snapshots: %w", err)
	}
	sort.Strings(paths)

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			r.skipped = append(r.skipped, path)
			continue
		}

		var doc any
		if err := json.Unmarshal(data, &doc); err != nil {
			r.skipped = append(r.skipped, path)
			continue
		}
		r.collect(doc)
	}

	return r, nil
}

// collect walks doc and indexes every object carrying a school name.
func (r *Registry) collect(doc any) {
	switch v := doc.(type) {
	case map[string]any:
		if name, ok := v["SCHUL_NM"].(string); ok && strings.TrimSpace(name) != "" {
			record := neis.Record(v, "")
			if _, exists := r.records[record.Name]; !exists {
				r.records[record.Name] = record
				r.names = append(r.names, record.Name)
			}
			return
		}
		for _, child := range v {
			r.collect(child)
		}
	case []any:
		for _, child := range v {
			r.collect(child)
		}
	}
}

func (r *Registry) Lookup(ctx context.Context, name string) (domain.SchoolRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.SchoolRecord{}, err
	}

	record, ok := r.records[strings.TrimSpace(name)]
	if !ok {
		return domain.SchoolRecord{}, domain.ErrRegistryMiss
	}

	return record, nil
}

// Names lists the indexed school names in file order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

func (r *Registry) Skipped() []string {
	return append([]string(nil), r.skipped...)
}
