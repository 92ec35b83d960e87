package chain

import (
	"context"
	"errors"
	"testing"

	"github.com/cmass-sales/visitlog/internal/domain"
	portmocks "github.com/cmass-sales/visitlog/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRegistryUsesPrimaryWhenItAnswers(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSchoolRegistry(t)
	fallback := portmocks.NewMockSchoolRegistry(t)
	registry := NewRegistry(primary, fallback)

	primary.EXPECT().Lookup(mock.Anything, "한빛중").Return(domain.SchoolRecord{Name: "한빛중학교"}, nil).Once()

	record, err := registry.Lookup(context.Background(), "한빛중")
	require.NoError(t, err)
	assert.Equal(t, "한빛중학교", record.Name)
}

func TestRegistryFallsBackOnPrimaryMiss(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSchoolRegistry(t)
	fallback := portmocks.NewMockSchoolRegistry(t)
	registry := NewRegistry(primary, fallback)

	primary.EXPECT().Lookup(mock.Anything, "새솔고").Return(domain.SchoolRecord{}, domain.ErrRegistryMiss).Once()
	fallback.EXPECT().Lookup(mock.Anything, "새솔고").Return(domain.SchoolRecord{Name: "새솔고등학교"}, nil).Once()

	record, err := registry.Lookup(context.Background(), "새솔고")
	require.NoError(t, err)
	assert.Equal(t, "새솔고등학교", record.Name)
}

func TestRegistryCombinesErrorsWhenBothFail(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSchoolRegistry(t)
	fallback := portmocks.NewMockSchoolRegistry(t)
	registry := NewRegistry(primary, fallback)

	primary.EXPECT().Lookup(mock.Anything, "없는학교").Return(domain.SchoolRecord{}, domain.ErrRegistryMiss).Once()
	fallback.EXPECT().Lookup(mock.Anything, "없는학교").Return(domain.SchoolRecord{}, domain.ErrLookupDisabled).Once()

	_, err := registry.Lookup(context.Background(), "없는학교")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRegistryMiss)
	assert.ErrorIs(t, err, domain.ErrLookupDisabled)
	assert.ErrorContains(t, err, "primary registry")
	assert.ErrorContains(t, err, "fallback registry")
}

func TestRegistrySkipsFallbackWhenContextEnds(t *testing.T) {
	t.Parallel()

	primary := portmocks.NewMockSchoolRegistry(t)
	fallback := portmocks.NewMockSchoolRegistry(t)
	registry := NewRegistry(primary, fallback)

	primary.EXPECT().Lookup(mock.Anything, "한빛중").Return(domain.SchoolRecord{}, context.DeadlineExceeded).Once()

	_, err := registry.Lookup(context.Background(), "한빛중")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewRegistryCheckedRejectsNilBackends(t *testing.T) {
	t.Parallel()

	_, err := NewRegistryChecked(nil, portmocks.NewMockSchoolRegistry(t))
	require.True(t, errors.Is(err, errNilPrimaryRegistry))

	_, err = NewRegistryChecked(portmocks.NewMockSchoolRegistry(t), nil)
	require.True(t, errors.Is(err, errNilFallbackRegistry))
}
