package ports

import (
	"context"

	"github.com/cmass-sales/visitlog/internal/domain"
)

// SchoolRegistry resolves a school name against an authoritative source.
// Implementations return domain.ErrRegistryMiss when nothing matched.
type SchoolRegistry interface {
	Lookup(ctx context.Context, name string) (domain.SchoolRecord, error)
}
