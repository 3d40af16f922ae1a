package logic

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"

	"github.com/thinkly/thinkly-api/internal/models"
)

// mockPgPool implements PgPool with overridable funcs.
type mockPgPool struct {
	QueryFunc    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRowFunc func(ctx context.Context, sql string, args ...any) pgx.Row
	ExecFunc     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	BeginFunc    func(ctx context.Context) (pgx.Tx, error)
}

func (m *mockPgPool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if m.QueryFunc != nil {
		return m.QueryFunc(ctx, sql, args...)
	}
	return &mockRows{}, nil
}

func (m *mockPgPool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if m.QueryRowFunc != nil {
		return m.QueryRowFunc(ctx, sql, args...)
	}
	return &mockRow{err: pgx.ErrNoRows}
}

func (m *mockPgPool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if m.ExecFunc != nil {
		return m.ExecFunc(ctx, sql, args...)
	}
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

func (m *mockPgPool) Begin(ctx context.Context) (pgx.Tx, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &mockTx{}, nil
}

// mockTx records commits and rollbacks. Unimplemented methods panic through
// the embedded nil interface.
type mockTx struct {
	pgx.Tx
	ExecFunc     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRowFunc func(ctx context.Context, sql string, args ...any) pgx.Row

	Committed  bool
	RolledBack bool
	Statements []string
}

func (t *mockTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	t.Statements = append(t.Statements, sql)
	if t.ExecFunc != nil {
		return t.ExecFunc(ctx, sql, args...)
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (t *mockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	t.Statements = append(t.Statements, sql)
	if t.QueryRowFunc != nil {
		return t.QueryRowFunc(ctx, sql, args...)
	}
	return &mockRow{err: pgx.ErrNoRows}
}

func (t *mockTx) Commit(ctx context.Context) error {
	t.Committed = true
	return nil
}

func (t *mockTx) Rollback(ctx context.Context) error {
	if !t.Committed {
		t.RolledBack = true
	}
	return nil
}

// mockRow scans a fixed list of values, or fails with err.
type mockRow struct {
	values []any
	err    error
}

func rowOf(values ...any) *mockRow { return &mockRow{values: values} }

func (r *mockRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return scanValues(r.values, dest)
}

// mockRows iterates over fixed rows.
type mockRows struct {
	pgx.Rows
	rows [][]any
	idx  int
	err  error
}

func (r *mockRows) Next() bool {
	if r.idx >= len(r.rows) {
		return false
	}
	r.idx++
	return true
}

func (r *mockRows) Scan(dest ...any) error { return scanValues(r.rows[r.idx-1], dest) }
func (r *mockRows) Close()                 {}
func (r *mockRows) Err() error             { return r.err }

func scanValues(values, dest []any) error {
	if len(values) != len(dest) {
		return fmt.Errorf("mock scan: %d values for %d destinations", len(values), len(dest))
	}
	for i := range dest {
		assignValue(dest[i], values[i])
	}
	return nil
}

// assignValue stores val into the pointer dest, converting between compatible
// kinds and allocating when dest is a pointer to a pointer.
func assignValue(dest, val any) {
	v := reflect.ValueOf(dest).Elem()
	if val == nil {
		v.Set(reflect.Zero(v.Type()))
		return
	}
	rv := reflect.ValueOf(val)
	if v.Kind() == reflect.Pointer && rv.Kind() != reflect.Pointer {
		p := reflect.New(v.Type().Elem())
		p.Elem().Set(rv.Convert(v.Type().Elem()))
		v.Set(p)
		return
	}
	v.Set(rv.Convert(v.Type()))
}

// mockRedis is an in-memory RedisClient.
type mockRedis struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
	gets int
}

func newMockRedis() *mockRedis {
	return &mockRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *mockRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	val, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(val, nil)
}

func (m *mockRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		m.data[key] = string(v)
	default:
		m.data[key] = fmt.Sprint(v)
	}
	m.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (m *mockRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := m.data[k]; ok {
			delete(m.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (m *mockRedis) Incr(ctx context.Context, key string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	if v, ok := m.data[key]; ok {
		fmt.Sscan(v, &n)
	}
	n++
	m.data[key] = fmt.Sprint(n)
	return redis.NewIntResult(n, nil)
}

// mockMailer collects sent messages.
type mockMailer struct {
	mu   sync.Mutex
	sent []models.Email
	err  error
}

func (m *mockMailer) Send(ctx context.Context, email models.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, email)
	return nil
}

// mockCompetitions is a CompetitionService returning a fixed current competition.
type mockCompetitions struct {
	CompetitionService
	current *models.Competition
	err     error
}

func (m *mockCompetitions) Current(ctx context.Context) (*models.Competition, error) {
	return m.current, m.err
}

// mockCHConn is a ClickHouse connection serving fixed rows.
type mockCHConn struct {
	driver.Conn
	QueryFunc func(ctx context.Context, query string, args ...interface{}) (driver.Rows, error)
}

func (m *mockCHConn) Query(ctx context.Context, query string, args ...interface{}) (driver.Rows, error) {
	if m.QueryFunc != nil {
		return m.QueryFunc(ctx, query, args...)
	}
	return &mockCHRows{}, nil
}

type mockCHRows struct {
	driver.Rows
	rows [][]any
	idx  int
}

func (r *mockCHRows) Next() bool {
	if r.idx >= len(r.rows) {
		return false
	}
	r.idx++
	return true
}

func (r *mockCHRows) Scan(dest ...interface{}) error { return scanValues(r.rows[r.idx-1], dest) }
func (r *mockCHRows) Close() error                   { return nil }
func (r *mockCHRows) Err() error                     { return nil }

func ptr[T any](v T) *T { return &v }
