package chain

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmass-sales/visitlog/internal/domain"
	"github.com/cmass-sales/visitlog/internal/ports"
)

// Registry asks primary first and fallback only when primary did not answer.
type Registry struct {
	primary  ports.SchoolRegistry
	fallback ports.SchoolRegistry
}

var _ ports.SchoolRegistry = (*Registry)(nil)

var (
	errNilPrimaryRegistry  = errors.New("primary school registry is nil")
	errNilFallbackRegistry = errors.New("fallback school registry is nil")
)

func NewRegistry(primary ports.SchoolRegistry, fallback ports.SchoolRegistry) *Registry {
	registry, err := NewRegistryChecked(primary, fallback)
	if err != nil {
		panic(err)
	}

	return registry
}

func NewRegistryChecked(primary ports.SchoolRegistry, fallback ports.SchoolRegistry) (*Registry, error) {
	if primary == nil {
		return nil, errNilPrimaryRegistry
	}
	if fallback == nil {
		return nil, errNilFallbackRegistry
	}

	return &Registry{primary: primary, fallback: fallback}, nil
}

func (r *Registry) Lookup(ctx context.Context, name string) (domain.SchoolRecord, error) {
	record, err := r.primary.Lookup(ctx, name)
	if err == nil {
		return record, nil
	}
	if shouldSkipFallback(err) {
		return domain.SchoolRecord{}, err
	}

	fallbackRecord, fallbackErr := r.fallback.Lookup(ctx, name)
	if fallbackErr == nil {
		return fallbackRecord, nil
	}

	return domain.SchoolRecord{}, fmt.Errorf("primary registry lookup failed: %w; fallback registry lookup failed: %w", err, fallbackErr)
}

func shouldSkipFallback(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
