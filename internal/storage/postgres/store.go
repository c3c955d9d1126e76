package postgres

// Package postgres provides a pgx-backed key-value store that satisfies the
// persistence adapter contract used by the budget book.
//
// It is intentionally small and explicit. The kv table is created by the
// migration under db/migrations. Each key is written atomically with an upsert.

import (
    "context"
    "errors"
    "fmt"

    "github.com/jackc/pgx/v5"
    "github.com/jackc/pgx/v5/pgxpool"
)

// Store holds a pgx connection pool. All methods are safe for concurrent use.
type Store struct {
    pool *pgxpool.Pool
}

// Open establishes a pgx pool using the provided connection string.
func Open(ctx context.Context, dsn string) (*Store, error) {
    cfg, err := pgxpool.ParseConfig(dsn)
    if err != nil { return nil, err }
    pool, err := pgxpool.NewWithConfig(ctx, cfg)
    if err != nil { return nil, err }
    // Verify connection
    if err := pool.Ping(ctx); err != nil { pool.Close(); return nil, err }
    return &Store{pool: pool}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() { if s.pool != nil { s.pool.Close() } }

// Ready pings the pool to verify connectivity.
func (s *Store) Ready(ctx context.Context) error { return s.pool.Ping(ctx) }

// Load implements schema.KV.
func (s *Store) Load(ctx context.Context, key string) ([]byte, bool, error) {
    var value []byte
    err := s.pool.QueryRow(ctx, `select value from kv where key = $1`, key).Scan(&value)
    if errors.Is(err, pgx.ErrNoRows) { return nil, false, nil }
    if err != nil { return nil, false, fmt.Errorf("load %q: %w", key, err) }
    return value, true, nil
}

// Save implements schema.KV with a single upsert, so a key is never partially written.
func (s *Store) Save(ctx context.Context, key string, value []byte) error {
    _, err := s.pool.Exec(ctx, `
        insert into kv (key, value, updated_at) values ($1, $2, now())
        on conflict (key) do update set value = excluded.value, updated_at = excluded.updated_at
    `, key, value)
    if err != nil { return fmt.Errorf("save %q: %w", key, err) }
    return nil
}

// Delete implements schema.KV. Deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
    if _, err := s.pool.Exec(ctx, `delete from kv where key = $1`, key); err != nil {
        return fmt.Errorf("delete %q: %w", key, err)
    }
    return nil
}

// Keys lists stored keys in sorted order.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
    rows, err := s.pool.Query(ctx, `select key from kv order by key`)
    if err != nil { return nil, err }
    defer rows.Close()
    var out []string
    for rows.Next() {
        var k string
        if err := rows.Scan(&k); err != nil { return nil, err }
        out = append(out, k)
    }
    return out, rows.Err()
}
