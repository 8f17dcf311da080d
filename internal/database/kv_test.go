package database

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
)

type fakeRow struct {
	value []byte
	err   error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*[]byte)) = r.value
	return nil
}

type execCall struct {
	sql  string
	args []any
}

type fakeQuerier struct {
	rows    map[string][]byte
	readErr error
	execErr error
	execs   []execCall
}

func (f *fakeQuerier) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	if f.readErr != nil {
		return fakeRow{err: f.readErr}
	}
	v, ok := f.rows[args[1].(string)]
	if !ok {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{value: v}
}

func (f *fakeQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, execCall{sql: sql, args: args})
	return pgconn.CommandTag{}, f.execErr
}

func TestPostgresKV_Get(t *testing.T) {
	user := uuid.New()
	q := &fakeQuerier{rows: map[string][]byte{"liked": []byte(`[]`)}}
	kv := NewPostgresKV(q, user)

	v, found, err := kv.Get(context.Background(), "liked")
	if err != nil || !found || string(v) != "[]" {
		t.Errorf("Get(liked) = %q, %v, %v; want [], true, nil", v, found, err)
	}

	_, found, err = kv.Get(context.Background(), "skipped")
	if err != nil || found {
		t.Errorf("Get(skipped) found = %v, err = %v; want false, nil", found, err)
	}

	q.readErr = errors.New("connection reset")
	if _, _, err := kv.Get(context.Background(), "liked"); err == nil {
		t.Error("Get() error = nil, want read error")
	}
}

func TestPostgresKV_SetAndDelete(t *testing.T) {
	user := uuid.New()
	q := &fakeQuerier{}
	kv := NewPostgresKV(q, user)
	ctx := context.Background()

	if err := kv.Set(ctx, "rated_count", []byte("4")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := kv.Delete(ctx); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := kv.Delete(ctx, "liked", "skipped"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if len(q.execs) != 2 {
		t.Fatalf("execs = %d, want 2 (empty delete is a no-op)", len(q.execs))
	}
	if !strings.Contains(q.execs[0].sql, "ON CONFLICT") {
		t.Errorf("Set() sql = %q, want an upsert", q.execs[0].sql)
	}
	if q.execs[0].args[0] != user {
		t.Errorf("Set() user = %v, want %v", q.execs[0].args[0], user)
	}
	keys, ok := q.execs[1].args[1].([]string)
	if !ok || len(keys) != 2 {
		t.Errorf("Delete() keys = %v, want [liked skipped]", q.execs[1].args[1])
	}

	q.execErr = errors.New("read only")
	if err := kv.Set(ctx, "liked", []byte("[]")); err == nil {
		t.Error("Set() error = nil, want write error")
	}
}

func TestUpMigrations(t *testing.T) {
	files, err := upMigrations()
	if err != nil {
		t.Fatalf("upMigrations() error = %v", err)
	}
	if len(files) < 2 {
		t.Fatalf("files = %v, want at least 2", files)
	}
	for i := 1; i < len(files); i++ {
		if migrationVersion(files[i-1]) >= migrationVersion(files[i]) {
			t.Errorf("migrations out of order: %v", files)
		}
	}
	if got := migrationVersion("002_create_preferences.up.sql"); got != "002" {
		t.Errorf("migrationVersion() = %q, want 002", got)
	}
}

// TestRedisKV runs against a live server when REDIS_ADDR is set.
func TestRedisKV(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	kv := NewRedisKV(client, uuid.New())
	defer func() { _ = kv.Delete(ctx, "liked") }()

	if _, found, err := kv.Get(ctx, "liked"); err != nil || found {
		t.Fatalf("Get() on empty = %v, %v", found, err)
	}
	if err := kv.Set(ctx, "liked", []byte(`[{"id":1}]`)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	v, found, err := kv.Get(ctx, "liked")
	if err != nil || !found || string(v) != `[{"id":1}]` {
		t.Errorf("Get() = %q, %v, %v", v, found, err)
	}
	if err := kv.Delete(ctx, "liked"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, found, _ := kv.Get(ctx, "liked"); found {
		t.Error("key still present after Delete()")
	}
}
