// internal/signals/service.go
package signals

import (
	"context"

	"coincoach-backend/internal/common/logger"
	"coincoach-backend/internal/models"
)

// Service composes the durable store with the optional cache and search
// index. Indexer and Cache may be nil; the service degrades to plain
// Postgres access.
type Service struct {
	store   Store
	indexer *Indexer
	cache   *Cache
	logger  logger.Logger
}

func NewService(store Store, indexer *Indexer, cache *Cache, log logger.Logger) *Service {
	return &Service{
		store:   store,
		indexer: indexer,
		cache:   cache,
		logger:  log,
	}
}

// Push appends a signal, then mirrors it into the search index and drops
// stale cache entries. Only the durable write can fail the call.
func (s *Service) Push(ctx context.Context, strategy string) (models.Signal, error) {
	signal, err := s.store.Append(ctx, strategy)
	if err != nil {
		return models.Signal{}, err
	}

	if s.indexer != nil {
		s.indexer.Index(ctx, signal)
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
	return signal, nil
}

func (s *Service) Recent(ctx context.Context, limit int) ([]models.Signal, error) {
	if limit <= 0 {
		limit = 20
	}

	if s.cache != nil {
		if cached, ok := s.cache.GetRecent(ctx, limit); ok {
			return cached, nil
		}
	}

	signals, err := s.store.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.SetRecent(ctx, limit, signals)
	}
	return signals, nil
}

// Search queries the full-text index. Falls back to the recent listing
// when no index is configured.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]models.Signal, error) {
	if s.indexer == nil {
		return s.Recent(ctx, limit)
	}
	return s.indexer.Search(ctx, query, limit)
}
