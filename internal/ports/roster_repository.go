package ports

import (
	"context"

	"github.com/cmass-sales/visitlog/internal/domain"
)

type RosterRepository interface {
	Load(ctx context.Context) (domain.Roster, error)
}

type VocabularyRepository interface {
	Load(ctx context.Context) (domain.Vocabulary, error)
	SaveSchoolAlias(ctx context.Context, token, canonical string) error
}
