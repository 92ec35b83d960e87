package ports

import (
	"context"

	"github.com/cmass-sales/visitlog/internal/domain"
)

type LookupCacheStore interface {
	Load(ctx context.Context) (map[string]domain.SchoolRecord, error)
	Save(ctx context.Context, entries map[string]domain.SchoolRecord) error
}
