// internal/signals/service_test.go
package signals

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "coincoach-backend/internal/common/errors"
	"coincoach-backend/internal/common/logger"
	"coincoach-backend/internal/models"
)

type fakeStore struct {
	appended    []string
	appendErr   error
	recent      []models.Signal
	recentErr   error
	recentCalls int
}

func (f *fakeStore) Append(ctx context.Context, strategy string) (models.Signal, error) {
	if f.appendErr != nil {
		return models.Signal{}, f.appendErr
	}
	f.appended = append(f.appended, strategy)
	return models.Signal{ID: "id-1", Strategy: strategy, CreatedAt: "2025-06-01T00:00:00Z"}, nil
}

func (f *fakeStore) Recent(ctx context.Context, limit int) ([]models.Signal, error) {
	f.recentCalls++
	return f.recent, f.recentErr
}

func TestService_Push(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, nil, nil, logger.NewNoOpLogger())

	signal, err := svc.Push(context.Background(), "BUY BTC")

	require.NoError(t, err)
	assert.Equal(t, "BUY BTC", signal.Strategy)
	assert.Equal(t, []string{"BUY BTC"}, store.appended)
}

func TestService_Push_StoreErrorPropagates(t *testing.T) {
	store := &fakeStore{appendErr: apperrors.NewSignalPersistFailedError(assert.AnError)}
	svc := NewService(store, nil, nil, logger.NewNoOpLogger())

	_, err := svc.Push(context.Background(), "BUY BTC")

	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeSignalPersistFailed))
}

func TestService_Recent_UsesCacheOnSecondRead(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := NewCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}), logger.NewNoOpLogger())
	store := &fakeStore{recent: []models.Signal{{ID: "id-1", Strategy: "BUY BTC"}}}
	svc := NewService(store, nil, cache, logger.NewNoOpLogger())

	first, err := svc.Recent(context.Background(), 5)
	require.NoError(t, err)
	second, err := svc.Recent(context.Background(), 5)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, store.recentCalls, "second read must come from cache")
}

func TestService_Push_InvalidatesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := NewCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}), logger.NewNoOpLogger())
	store := &fakeStore{recent: []models.Signal{{ID: "id-1"}}}
	svc := NewService(store, nil, cache, logger.NewNoOpLogger())

	_, err := svc.Recent(context.Background(), 5)
	require.NoError(t, err)

	_, err = svc.Push(context.Background(), "SELL ETH")
	require.NoError(t, err)

	_, err = svc.Recent(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 2, store.recentCalls, "append must drop the cached listing")
}

func TestService_Search_FallsBackWithoutIndexer(t *testing.T) {
	store := &fakeStore{recent: []models.Signal{{ID: "id-1", Strategy: "breakout"}}}
	svc := NewService(store, nil, nil, logger.NewNoOpLogger())

	signals, err := svc.Search(context.Background(), "breakout", 5)

	require.NoError(t, err)
	require.Len(t, signals, 1)
	assert.Equal(t, "breakout", signals[0].Strategy)
}
