package worker

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
)

// MockClickHouseConn implements driver.Conn for testing
type MockClickHouseConn struct {
	driver.Conn
	PrepareErr error
	SendErr    error

	mu      sync.Mutex
	batches []*MockBatch
}

func (m *MockClickHouseConn) PrepareBatch(ctx context.Context, query string, opts ...driver.PrepareBatchOption) (driver.Batch, error) {
	if m.PrepareErr != nil {
		return nil, m.PrepareErr
	}
	b := &MockBatch{query: query, sendErr: m.SendErr}
	m.mu.Lock()
	m.batches = append(m.batches, b)
	m.mu.Unlock()
	return b, nil
}

// SentRows returns every row of every successfully sent batch.
func (m *MockClickHouseConn) SentRows() [][]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out [][]interface{}
	for _, b := range m.batches {
		if b.sent {
			out = append(out, b.rows...)
		}
	}
	return out
}

type MockBatch struct {
	driver.Batch
	query   string
	rows    [][]interface{}
	sent    bool
	sendErr error
}

func (m *MockBatch) Append(v ...interface{}) error {
	m.rows = append(m.rows, v)
	return nil
}

func (m *MockBatch) Send() error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = true
	return nil
}

func (m *MockBatch) IsSent() bool { return m.sent }
func (m *MockBatch) Rows() int    { return len(m.rows) }
func (m *MockBatch) Abort() error { return nil }

// MockRedis hands out a recording pipeline.
type MockRedis struct {
	Pipe *MockPipeline
}

func NewMockRedis() *MockRedis {
	return &MockRedis{Pipe: &MockPipeline{}}
}

func (m *MockRedis) Pipeline() redis.Pipeliner { return m.Pipe }

// MockPipeline records queued commands as "CMD key" strings.
type MockPipeline struct {
	redis.Pipeliner

	mu       sync.Mutex
	queued   []string
	Executed []string
}

func (m *MockPipeline) record(cmd string) {
	m.mu.Lock()
	m.queued = append(m.queued, cmd)
	m.mu.Unlock()
}

func (m *MockPipeline) Incr(ctx context.Context, key string) *redis.IntCmd {
	m.record("INCR " + key)
	return redis.NewIntResult(1, nil)
}

func (m *MockPipeline) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	m.record("EXPIRE " + key)
	return redis.NewBoolResult(true, nil)
}

func (m *MockPipeline) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, k := range keys {
		m.record("DEL " + k)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func (m *MockPipeline) Exec(ctx context.Context) ([]redis.Cmder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Executed = append(m.Executed, m.queued...)
	m.queued = nil
	return nil, nil
}

func (m *MockPipeline) Has(cmd string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.Executed {
		if c == cmd {
			return true
		}
	}
	return false
}

// MockPgPool implements logic.PgPool; the scheduler uses Begin and Exec.
type MockPgPool struct {
	Tx       *MockTx
	BeginErr error

	Execs []ExecCall
}

func (m *MockPgPool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (m *MockPgPool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

func (m *MockPgPool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	m.Execs = append(m.Execs, ExecCall{SQL: sql, Args: args})
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

func (m *MockPgPool) Begin(ctx context.Context) (pgx.Tx, error) {
	if m.BeginErr != nil {
		return nil, m.BeginErr
	}
	return m.Tx, nil
}

// MockTx answers queries through QueryFunc and records Exec calls.
type MockTx struct {
	pgx.Tx
	QueryFunc func(sql string, args ...any) [][]any

	Execs     []ExecCall
	Committed bool
	CommitErr error
}

type ExecCall struct {
	SQL  string
	Args []any
}

func (t *MockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	var rows [][]any
	if t.QueryFunc != nil {
		rows = t.QueryFunc(sql, args...)
	}
	return &MockPGXRows{rows: rows}, nil
}

func (t *MockTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	t.Execs = append(t.Execs, ExecCall{SQL: sql, Args: args})
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

func (t *MockTx) Commit(ctx context.Context) error {
	if t.CommitErr != nil {
		return t.CommitErr
	}
	t.Committed = true
	return nil
}

func (t *MockTx) Rollback(ctx context.Context) error { return nil }

// MockPGXRows iterates over fixed rows.
type MockPGXRows struct {
	pgx.Rows
	rows [][]any
	idx  int
}

func (m *MockPGXRows) Next() bool {
	if m.idx >= len(m.rows) {
		return false
	}
	m.idx++
	return true
}

func (m *MockPGXRows) Scan(dest ...any) error {
	row := m.rows[m.idx-1]
	for i := range dest {
		v := reflect.ValueOf(dest[i]).Elem()
		v.Set(reflect.ValueOf(row[i]).Convert(v.Type()))
	}
	return nil
}

func (m *MockPGXRows) Close()     {}
func (m *MockPGXRows) Err() error { return nil }
