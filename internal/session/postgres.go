package session

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// PgPool is the subset of pgxpool.Pool the store uses.
type PgPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore persists the selected season per trainer.
type PostgresStore struct {
	pool PgPool
}

func NewPostgresStore(pool PgPool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate applies the embedded migrations through a database/sql view of
// the pool.
func Migrate(pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to run goose migrations: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, trainerID string) (int, bool, error) {
	var season int
	err := s.pool.QueryRow(ctx,
		"SELECT season FROM trainer_preferences WHERE trainer_id = $1",
		trainerID).Scan(&season)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("load season: %w", err)
	}
	return season, true, nil
}

func (s *PostgresStore) Save(ctx context.Context, trainerID string, season int) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO trainer_preferences (trainer_id, season, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (trainer_id) DO UPDATE SET season = EXCLUDED.season, updated_at = NOW()`,
		trainerID, season)
	if err != nil {
		return fmt.Errorf("save season: %w", err)
	}
	return nil
}
