package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/thinkly/thinkly-api/internal/logic"
	"github.com/thinkly/thinkly-api/internal/models"
)

var (
	remindersSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "thinkly_reminders_sent_total",
		Help: "Total number of competition reminders delivered",
	})

	reminderEmailsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "thinkly_reminder_emails_failed_total",
		Help: "Total number of reminder emails that could not be sent",
	})
)

// ReminderConfig configures the reminder scheduler.
type ReminderConfig struct {
	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
	FrontendURL  string
}

// ReminderScheduler emails "competition starts soon" reminders when they
// fall due. Due rows are claimed with FOR UPDATE SKIP LOCKED so several API
// instances can run it side by side.
type ReminderScheduler struct {
	pg     logic.PgPool
	mailer logic.Mailer
	cfg    ReminderConfig
	logger *zap.SugaredLogger
	now    func() time.Time

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

func NewReminderScheduler(pg logic.PgPool, mailer logic.Mailer, cfg ReminderConfig, logger *zap.SugaredLogger) *ReminderScheduler {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	return &ReminderScheduler{pg: pg, mailer: mailer, cfg: cfg, logger: logger, now: time.Now}
}

func (s *ReminderScheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.cfg.PollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if n, err := s.RunOnce(ctx); err != nil {
					s.logger.Errorw("Reminder run failed", "error", err)
				} else if n > 0 {
					s.logger.Infow("Reminders delivered", "count", n)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	s.logger.Infow("Reminder scheduler started", "interval", s.cfg.PollInterval)
}

func (s *ReminderScheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

type dueReminder struct {
	models.Reminder
	competition models.Competition
}

// RunOnce delivers every due reminder and returns how many were sent.
// Reminders are claimed (marked sent) and committed before any email goes
// out, so a failed commit never leads to duplicate emails. A reminder whose
// emails all fail is released for a later run, up to MaxAttempts times.
func (s *ReminderScheduler) RunOnce(ctx context.Context) (int, error) {
	now := s.now()

	due, recipients, err := s.claim(ctx, now)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, d := range due {
		failed := 0
		for i := range recipients {
			if err := s.mailer.Send(ctx, logic.ReminderEmail(&recipients[i], &d.competition, s.cfg.FrontendURL)); err != nil {
				failed++
				reminderEmailsFailed.Inc()
				s.logger.Warnw("Failed to send reminder", "reminder_id", d.ID, "user_id", recipients[i].ID, "error", err)
			}
		}

		if len(recipients) > 0 && failed == len(recipients) {
			if _, err := s.pg.Exec(ctx, `UPDATE competition_reminders SET sent_at = NULL WHERE id = $1`, d.ID); err != nil {
				s.logger.Errorw("Failed to release reminder for retry", "reminder_id", d.ID, "error", err)
			}
			continue
		}

		sent++
		remindersSent.Inc()
		s.logger.Infow("Reminder sent",
			"reminder_id", d.ID,
			"competition_id", d.CompetitionID,
			"recipients", len(recipients)-failed,
			"failed", failed,
		)
	}
	return sent, nil
}

// claim locks the due reminders, marks them sent and loads the recipients in
// one transaction.
func (s *ReminderScheduler) claim(ctx context.Context, now time.Time) ([]dueReminder, []models.User, error) {
	tx, err := s.pg.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		SELECT r.id, r.competition_id, r.send_at, r.attempts,
		       c.name, c.description, c.start_time, c.end_time
		FROM competition_reminders r
		JOIN competitions c ON c.id = r.competition_id
		WHERE r.sent_at IS NULL AND r.send_at <= $1 AND r.attempts < $2 AND c.start_time > $1
		ORDER BY r.send_at
		LIMIT $3
		FOR UPDATE OF r SKIP LOCKED`,
		now, s.cfg.MaxAttempts, s.cfg.BatchSize)
	if err != nil {
		return nil, nil, fmt.Errorf("query due reminders: %w", err)
	}
	var due []dueReminder
	var ids []int64
	for rows.Next() {
		var d dueReminder
		if err := rows.Scan(&d.ID, &d.CompetitionID, &d.SendAt, &d.Attempts,
			&d.competition.Name, &d.competition.Description, &d.competition.StartTime, &d.competition.EndTime); err != nil {
			rows.Close()
			return nil, nil, fmt.Errorf("scan reminder: %w", err)
		}
		d.competition.ID = d.CompetitionID
		due = append(due, d)
		ids = append(ids, d.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("read reminders: %w", err)
	}
	if len(due) == 0 {
		return nil, nil, nil
	}

	if _, err := tx.Exec(ctx, `
		UPDATE competition_reminders SET sent_at = $2, attempts = attempts + 1
		WHERE id = ANY($1)`, ids, now); err != nil {
		return nil, nil, fmt.Errorf("claim reminders: %w", err)
	}

	recipients, err := s.recipients(ctx, tx)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("commit reminder claim: %w", err)
	}
	return due, recipients, nil
}

func (s *ReminderScheduler) recipients(ctx context.Context, tx pgx.Tx) ([]models.User, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, username, email, is_admin, email_notifications, created_at
		FROM users
		WHERE email_notifications
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query recipients: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.IsAdmin, &u.EmailNotifications, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan recipient: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
