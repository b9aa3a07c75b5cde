package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type DB struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

func (db *DB) Close() {
	db.pool.Close()
}

// RunMigrations runs database migrations. Job handles are deliberately
// not stored anywhere here: only recurrence rules persist, and the
// scheduler rebuilds its entries from them at startup.
func (db *DB) RunMigrations(ctx context.Context) error {
	_, err := db.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS standup_rooms (
			room_id TEXT PRIMARY KEY,
			minute INT,
			hour INT,
			weekdays TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS standup_members (
			room_id TEXT NOT NULL,
			member_id TEXT NOT NULL,
			member_name TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (room_id, member_id)
		);
		CREATE INDEX IF NOT EXISTS idx_standup_members_room ON standup_members(room_id);
		CREATE TABLE IF NOT EXISTS standup_interviews (
			room_id TEXT NOT NULL,
			member_id TEXT NOT NULL,
			yday TEXT,
			today TEXT,
			blockers TEXT,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (room_id, member_id)
		);
	`)
	return err
}
