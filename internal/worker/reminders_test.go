package worker

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/thinkly/thinkly-api/internal/models"
)

type recordingMailer struct {
	mu     sync.Mutex
	sent   []models.Email
	failTo map[string]bool
}

func (m *recordingMailer) Send(ctx context.Context, email models.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failTo[email.To] {
		return errors.New("mailbox unavailable")
	}
	m.sent = append(m.sent, email)
	return nil
}

var reminderNow = time.Date(2026, 6, 1, 17, 0, 0, 0, time.UTC)

func reminderTx(due [][]any, users [][]any) *MockTx {
	return &MockTx{
		QueryFunc: func(sql string, args ...any) [][]any {
			switch {
			case strings.Contains(sql, "FROM competition_reminders"):
				return due
			case strings.Contains(sql, "FROM users"):
				return users
			}
			return nil
		},
	}
}

func dueRow(id int64) []any {
	start := reminderNow.Add(time.Hour)
	return []any{id, int64(3), reminderNow.Add(-time.Minute), 0, "Friday Finals", "", start, start.Add(2 * time.Hour)}
}

func userRow(id int64, email string) []any {
	return []any{id, "user", email, false, true, reminderNow}
}

func newTestScheduler(tx *MockTx, mailer *recordingMailer) (*ReminderScheduler, *MockPgPool) {
	pool := &MockPgPool{Tx: tx}
	s := NewReminderScheduler(pool, mailer, ReminderConfig{FrontendURL: "https://thinkly.test"}, zap.NewNop().Sugar())
	s.now = func() time.Time { return reminderNow }
	return s, pool
}

func TestReminderRunOnce(t *testing.T) {
	tx := reminderTx(
		[][]any{dueRow(1)},
		[][]any{userRow(1, "a@example.com"), userRow(2, "b@example.com")},
	)
	mailer := &recordingMailer{}
	s, pool := newTestScheduler(tx, mailer)

	n, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}
	if n != 1 || len(mailer.sent) != 2 {
		t.Errorf("sent=%d emails=%d, want 1 reminder to 2 users", n, len(mailer.sent))
	}
	if !strings.Contains(mailer.sent[0].Subject, "Friday Finals") {
		t.Errorf("subject = %q", mailer.sent[0].Subject)
	}
	if !tx.Committed || len(tx.Execs) != 1 || !strings.Contains(tx.Execs[0].SQL, "sent_at = $2") {
		t.Errorf("reminder not claimed: %+v", tx.Execs)
	}
	if ids, ok := tx.Execs[0].Args[0].([]int64); !ok || len(ids) != 1 || ids[0] != 1 {
		t.Errorf("claimed ids = %v, want [1]", tx.Execs[0].Args[0])
	}
	if len(pool.Execs) != 0 {
		t.Errorf("unexpected release: %+v", pool.Execs)
	}
}

func TestReminderAllFailuresRetry(t *testing.T) {
	tx := reminderTx([][]any{dueRow(1)}, [][]any{userRow(1, "a@example.com")})
	mailer := &recordingMailer{failTo: map[string]bool{"a@example.com": true}}
	s, pool := newTestScheduler(tx, mailer)

	n, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}
	if n != 0 {
		t.Errorf("reported %d reminders sent, want 0", n)
	}
	if len(pool.Execs) != 1 || !strings.Contains(pool.Execs[0].SQL, "sent_at = NULL") || pool.Execs[0].Args[0] != int64(1) {
		t.Errorf("expected reminder 1 released for retry, got %+v", pool.Execs)
	}
}

func TestReminderCommitFailureSendsNothing(t *testing.T) {
	tx := reminderTx([][]any{dueRow(1)}, [][]any{userRow(1, "a@example.com")})
	tx.CommitErr = errors.New("connection reset")
	mailer := &recordingMailer{}
	s, _ := newTestScheduler(tx, mailer)

	if _, err := s.RunOnce(context.Background()); err == nil {
		t.Fatal("expected commit error")
	}
	if len(mailer.sent) != 0 {
		t.Errorf("sent %d emails for an unclaimed reminder", len(mailer.sent))
	}
}

func TestReminderPartialFailureCountsAsSent(t *testing.T) {
	tx := reminderTx([][]any{dueRow(1)}, [][]any{userRow(1, "a@example.com"), userRow(2, "b@example.com")})
	mailer := &recordingMailer{failTo: map[string]bool{"b@example.com": true}}
	s, pool := newTestScheduler(tx, mailer)

	n, err := s.RunOnce(context.Background())
	if err != nil || n != 1 {
		t.Errorf("RunOnce = %d, %v; want 1 sent", n, err)
	}
	if len(pool.Execs) != 0 {
		t.Errorf("partially delivered reminder released: %+v", pool.Execs)
	}
}

func TestReminderNothingDue(t *testing.T) {
	tx := reminderTx(nil, [][]any{userRow(1, "a@example.com")})
	mailer := &recordingMailer{}
	s, _ := newTestScheduler(tx, mailer)

	n, err := s.RunOnce(context.Background())
	if err != nil || n != 0 || len(mailer.sent) != 0 {
		t.Errorf("RunOnce = %d, %v with %d emails", n, err, len(mailer.sent))
	}
}

func TestReminderBeginError(t *testing.T) {
	s := NewReminderScheduler(&MockPgPool{BeginErr: errors.New("pool closed")}, &recordingMailer{}, ReminderConfig{}, zap.NewNop().Sugar())
	if _, err := s.RunOnce(context.Background()); err == nil {
		t.Error("expected error")
	}
}
