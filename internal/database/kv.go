package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
)

// pgQuerier is the subset of pgxpool.Pool used by PostgresKV
type pgQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresKV stores one user's preference values in the preferences table.
// Values are stored as JSONB.
type PostgresKV struct {
	db     pgQuerier
	userID uuid.UUID
}

// NewPostgresKV creates a KV scoped to userID
func NewPostgresKV(db pgQuerier, userID uuid.UUID) *PostgresKV {
	return &PostgresKV{db: db, userID: userID}
}

// Get returns the stored value for key
func (k *PostgresKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	query := `SELECT value FROM preferences WHERE user_id = $1 AND key = $2`

	var value []byte
	err := k.db.QueryRow(ctx, query, k.userID, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read preference %s: %w", key, err)
	}
	return value, true, nil
}

// Set upserts the value for key
func (k *PostgresKV) Set(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO preferences (user_id, key, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`

	if _, err := k.db.Exec(ctx, query, k.userID, key, value); err != nil {
		return fmt.Errorf("failed to write preference %s: %w", key, err)
	}
	return nil
}

// Delete removes keys
func (k *PostgresKV) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	query := `DELETE FROM preferences WHERE user_id = $1 AND key = ANY($2)`

	if _, err := k.db.Exec(ctx, query, k.userID, keys); err != nil {
		return fmt.Errorf("failed to delete preferences: %w", err)
	}
	return nil
}

// RedisKV stores one user's preference values as plain Redis keys.
type RedisKV struct {
	client redis.Cmdable
	userID uuid.UUID
}

// NewRedisKV creates a KV scoped to userID
func NewRedisKV(client redis.Cmdable, userID uuid.UUID) *RedisKV {
	return &RedisKV{client: client, userID: userID}
}

func (k *RedisKV) key(name string) string {
	return fmt.Sprintf("prefs:%s:%s", k.userID, name)
}

// Get returns the stored value for key
func (k *RedisKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := k.client.Get(ctx, k.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read preference %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores the value for key without expiry
func (k *RedisKV) Set(ctx context.Context, key string, value []byte) error {
	if err := k.client.Set(ctx, k.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to write preference %s: %w", key, err)
	}
	return nil
}

// Delete removes keys
func (k *RedisKV) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, 0, len(keys))
	for _, key := range keys {
		full = append(full, k.key(key))
	}
	if err := k.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("failed to delete preferences: %w", err)
	}
	return nil
}
