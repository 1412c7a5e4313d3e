package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the subset of *pgxpool.Pool the Postgres store uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS kv_entries (
	key        TEXT PRIMARY KEY,
	value      BYTEA NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS kv_set_members (
	set_key  TEXT NOT NULL,
	member   TEXT NOT NULL,
	added_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (set_key, member)
);`

// PostgresKV keeps values in kv_entries and set members in kv_set_members.
type PostgresKV struct {
	db DB
}

func NewPostgresKV(db DB) *PostgresKV {
	return &PostgresKV{db: db}
}

// OpenPostgres connects a pool and creates the tables if needed.
func OpenPostgres(ctx context.Context, url string) (*PostgresKV, *pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping postgres: %w", err)
	}
	kv := NewPostgresKV(pool)
	if err := kv.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return kv, pool, nil
}

func (s *PostgresKV) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("migrate kv schema: %w", err)
	}
	return nil
}

func (s *PostgresKV) Get(ctx context.Context, key string) ([]byte, error) {
	var v []byte
	err := s.db.QueryRow(ctx,
		`SELECT value FROM kv_entries WHERE key = $1`,
		key,
	).Scan(&v)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return v, nil
}

func (s *PostgresKV) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO kv_entries (key, value, updated_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		key, value,
	)
	return err
}

func (s *PostgresKV) Delete(ctx context.Context, key string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM kv_entries WHERE key = $1`, key); err != nil {
		return err
	}
	_, err := s.db.Exec(ctx, `DELETE FROM kv_set_members WHERE set_key = $1`, key)
	return err
}

func (s *PostgresKV) Exists(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM kv_entries WHERE key = $1)
		     OR EXISTS (SELECT 1 FROM kv_set_members WHERE set_key = $1)`,
		key,
	).Scan(&exists)
	return exists, err
}

func (s *PostgresKV) AddToSet(ctx context.Context, setKey string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO kv_set_members (set_key, member)
		 SELECT $1, unnest($2::text[])
		 ON CONFLICT DO NOTHING`,
		setKey, members,
	)
	return err
}

func (s *PostgresKV) ListSet(ctx context.Context, setKey string) ([]string, error) {
	rows, err := s.db.Query(ctx,
		`SELECT member FROM kv_set_members WHERE set_key = $1 ORDER BY added_at, member`,
		setKey,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (s *PostgresKV) RemoveFromSet(ctx context.Context, setKey string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	_, err := s.db.Exec(ctx,
		`DELETE FROM kv_set_members WHERE set_key = $1 AND member = ANY($2)`,
		setKey, members,
	)
	return err
}

func (s *PostgresKV) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
