package lookup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/cache"
	"github.com/diproit/ai-banker-report-web-v2-sub001/internal/models"
)

type mockSource struct {
	mock.Mock
}

func (m *mockSource) ListBranches(ctx context.Context) ([]models.Branch, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Branch), args.Error(1)
}

func (m *mockSource) ListProducts(ctx context.Context, category int64) ([]models.Product, error) {
	args := m.Called(ctx, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *mockSource) GetInstitute(ctx context.Context) (*models.Institute, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Institute), args.Error(1)
}

func TestLoad(t *testing.T) {
	src := new(mockSource)
	src.On("ListBranches", mock.Anything).Return([]models.Branch{{ID: 1, Name: "Colombo"}}, nil).Once()
	src.On("ListProducts", mock.Anything, int64(2)).Return([]models.Product{{ID: 9, Name: "Gold Loan"}}, nil).Once()
	src.On("GetInstitute", mock.Anything).Return(&models.Institute{ID: 1, Name: "Sample Society"}, nil).Once()

	mc := cache.NewMemoryCache(10, 0)
	svc := NewService(src, mc, time.Minute)

	l, err := svc.Load(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "Colombo", l.Branches[0].Name)
	assert.Equal(t, "Gold Loan", l.Products[0].Name)
	assert.Equal(t, "Sample Society", l.Institute.Name)

	// served from cache; the mocks only allow one call each
	again, err := svc.Load(context.Background(), 2)
	require.NoError(t, err)
	assert.Same(t, l, again)
	assert.Equal(t, "Sample Society", svc.InstituteName(context.Background(), 2))

	src.AssertExpectations(t)
}

func TestLoad_AnyFailureIsLookupError(t *testing.T) {
	src := new(mockSource)
	src.On("ListBranches", mock.Anything).Return([]models.Branch{}, nil)
	src.On("ListProducts", mock.Anything, int64(1)).Return(nil, errors.New("connection refused"))
	src.On("GetInstitute", mock.Anything).Return(&models.Institute{Name: "x"}, nil)

	svc := NewService(src, nil, 0)
	_, err := svc.Load(context.Background(), 1)

	var lerr *Error
	require.True(t, errors.As(err, &lerr))
	assert.Equal(t, Message, err.Error())
	assert.Contains(t, lerr.Err.Error(), "connection refused")
	assert.Empty(t, svc.InstituteName(context.Background(), 1))
}

func TestLoad_NoCacheHitsSourceEveryTime(t *testing.T) {
	src := new(mockSource)
	src.On("ListBranches", mock.Anything).Return(nil, nil)
	src.On("ListProducts", mock.Anything, int64(1)).Return(nil, nil)
	src.On("GetInstitute", mock.Anything).Return(nil, nil)

	svc := NewService(src, nil, 0)
	for i := 0; i < 2; i++ {
		l, err := svc.Load(context.Background(), 1)
		require.NoError(t, err)
		assert.NotNil(t, l.Branches)
		assert.Nil(t, l.Institute)
	}
	src.AssertNumberOfCalls(t, "ListBranches", 2)
}
