// internal/signals/store.go
package signals

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	apperrors "coincoach-backend/internal/common/errors"
	"coincoach-backend/internal/common/logger"
	"coincoach-backend/internal/common/metrics"
	"coincoach-backend/internal/models"
)

// Store is the append-only signal log. Records are never updated or
// deleted once written.
type Store interface {
	Append(ctx context.Context, strategy string) (models.Signal, error)
	Recent(ctx context.Context, limit int) ([]models.Signal, error)
}

type PostgresStore struct {
	db     *sql.DB
	logger logger.Logger
	now    func() time.Time
}

func NewPostgresStore(db *sql.DB, log logger.Logger) *PostgresStore {
	return &PostgresStore{
		db:     db,
		logger: log,
		now:    time.Now,
	}
}

const (
	insertSignalQuery  = `INSERT INTO signals (id, strategy, created_at) VALUES ($1, $2, $3)`
	recentSignalsQuery = `SELECT id, strategy, created_at FROM signals ORDER BY created_at DESC LIMIT $1`
)

func (s *PostgresStore) Append(ctx context.Context, strategy string) (models.Signal, error) {
	signal := models.NewSignal(uuid.New().String(), strategy, s.now())

	if _, err := s.db.ExecContext(ctx, insertSignalQuery, signal.ID, signal.Strategy, signal.CreatedAt); err != nil {
		s.logger.WithError(err).Error("failed to persist signal", map[string]interface{}{
			"signal_id": signal.ID,
		})
		return models.Signal{}, apperrors.NewSignalPersistFailedError(err)
	}

	metrics.SignalsPersisted.Inc()
	s.logger.Info("signal persisted", map[string]interface{}{
		"signal_id": signal.ID,
	})
	return signal, nil
}

func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]models.Signal, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, recentSignalsQuery, limit)
	if err != nil {
		return nil, apperrors.NewSignalQueryFailedError(err)
	}
	defer rows.Close()

	signals := make([]models.Signal, 0, limit)
	for rows.Next() {
		var sig models.Signal
		if err := rows.Scan(&sig.ID, &sig.Strategy, &sig.CreatedAt); err != nil {
			return nil, apperrors.NewSignalQueryFailedError(err)
		}
		signals = append(signals, sig)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewSignalQueryFailedError(err)
	}
	return signals, nil
}
