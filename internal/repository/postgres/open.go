package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/chillerops/backend/internal/domain"
)

// Open connects to PostgreSQL and prepares the schema. It falls back to the
// mock repository when no database is configured or reachable. The returned
// func releases the pool.
func Open(ctx context.Context, databaseURL string) (domain.DataRepository, func()) {
	noop := func() {}
	if databaseURL == "" {
		zap.L().Warn("DATABASE_URL not set, running without persistence")
		return NewMockRepository(), noop
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err == nil {
		if err = pool.Ping(ctx); err != nil {
			pool.Close()
		}
	}
	if err != nil {
		zap.L().Warn("could not connect to database, running with mock data only", zap.Error(err))
		return NewMockRepository(), noop
	}

	repo := NewPostgresRepository(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		zap.L().Error("failed to prepare schema", zap.Error(err))
	}
	zap.L().Info("connected to PostgreSQL")
	return repo, pool.Close
}
