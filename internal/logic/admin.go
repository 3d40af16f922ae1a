package logic

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/thinkly/thinkly-api/internal/models"
)

// ActivityDays is how far back the dashboard activity chart reaches.
const ActivityDays = 14

type adminService struct {
	pg         PgPool
	ch         driver.Conn
	boards     BoardInvalidator
	queueDepth func() int
	logger     *zap.SugaredLogger
	now        func() time.Time
}

// NewAdminService builds the admin service. boards and queueDepth may be nil.
func NewAdminService(pg PgPool, ch driver.Conn, boards BoardInvalidator, queueDepth func() int, logger *zap.SugaredLogger) AdminService {
	return &adminService{pg: pg, ch: ch, boards: boards, queueDepth: queueDepth, logger: logger, now: time.Now}
}

// Dashboard gathers platform counters in parallel. Analytics are best
// effort: a ClickHouse failure leaves Activity empty.
func (s *adminService) Dashboard(ctx context.Context) (*models.AdminDashboard, error) {
	now := s.now()
	d := &models.AdminDashboard{Activity: []models.DailyActivity{}}

	counts := []struct {
		dest *int64
		sql  string
		args []any
	}{
		{&d.Users, `SELECT count(*) FROM users`, nil},
		{&d.Competitions, `SELECT count(*) FROM competitions`, nil},
		{&d.ActiveCompetitions, `SELECT count(*) FROM competitions WHERE start_time <= $1 AND end_time > $1`, []any{now}},
		{&d.Questions, `SELECT count(*) FROM questions`, nil},
		{&d.Riddles, `SELECT count(*) FROM riddles`, nil},
		{&d.Entries, `SELECT count(*) FROM leaderboard_entries`, nil},
		{&d.PendingReminders, `SELECT count(*) FROM competition_reminders WHERE sent_at IS NULL`, nil},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, c := range counts {
		g.Go(func() error {
			if err := s.pg.QueryRow(gctx, c.sql, c.args...).Scan(c.dest); err != nil {
				return fmt.Errorf("dashboard count: %w", err)
			}
			return nil
		})
	}

	var activity []models.DailyActivity
	g.Go(func() error {
		var err error
		activity, err = s.activity(gctx)
		if err != nil {
			s.logger.Warnw("Failed to load submission activity", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if activity != nil {
		d.Activity = activity
	}
	if s.queueDepth != nil {
		d.QueueDepth = s.queueDepth()
	}
	return d, nil
}

func (s *adminService) activity(ctx context.Context) ([]models.DailyActivity, error) {
	if s.ch == nil {
		return nil, nil
	}
	rows, err := s.ch.Query(ctx, `
		SELECT
			toDate(submitted_at) AS day,
			count() AS submissions,
			countIf(correct) AS correct,
			uniqExact(user_id) AS participants
		FROM thinkly.submission_events
		WHERE submitted_at >= now() - INTERVAL ? DAY
		GROUP BY day
		ORDER BY day`, ActivityDays)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.DailyActivity{}
	for rows.Next() {
		var a models.DailyActivity
		if err := rows.Scan(&a.Day, &a.Submissions, &a.Correct, &a.Participants); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *adminService) ListUsers(ctx context.Context, search string, page, limit int) (*models.UserList, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if page < 1 {
		page = 1
	}

	where := sq.And{}
	if term := strings.TrimSpace(search); term != "" {
		pattern := "%" + escapeLike(term) + "%"
		where = append(where, sq.Or{sq.ILike{"username": pattern}, sq.ILike{"email": pattern}})
	}

	countSQL, countArgs, err := psql.Select("count(*)").From("users").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build user count: %w", err)
	}
	list := &models.UserList{Users: []models.User{}, Page: page, Limit: limit}
	if err := s.pg.QueryRow(ctx, countSQL, countArgs...).Scan(&list.Total); err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	sql, args, err := psql.Select(userColumns).From("users").Where(where).
		OrderBy("id").Limit(uint64(limit)).Offset(uint64((page - 1) * limit)).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build user list: %w", err)
	}
	rows, err := s.pg.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		list.Users = append(list.Users, *u)
	}
	return list, rows.Err()
}

func (s *adminService) SetAdmin(ctx context.Context, userID int64, isAdmin bool) error {
	tag, err := s.pg.Exec(ctx, `UPDATE users SET is_admin = $2 WHERE id = $1`, userID, isAdmin)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound("user not found")
	}
	s.logger.Infow("Admin flag changed", "user_id", userID, "is_admin", isAdmin)
	return nil
}

// DeleteUser removes an account. Its leaderboard entries stay, keyed only by
// their stored display name (user_id ON DELETE SET NULL), so the cached
// boards they appear on are invalidated.
func (s *adminService) DeleteUser(ctx context.Context, userID int64) error {
	boards, err := s.userBoards(ctx, userID)
	if err != nil {
		return err
	}

	tag, err := s.pg.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound("user not found")
	}

	if s.boards != nil {
		for _, id := range boards {
			if err := s.boards.Invalidate(ctx, id); err != nil {
				s.logger.Warnw("Failed to invalidate leaderboard", "competition_id", id, "user_id", userID, "error", err)
			}
		}
	}
	s.logger.Infow("User deleted", "user_id", userID, "boards", len(boards))
	return nil
}

func (s *adminService) userBoards(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := s.pg.Query(ctx, `SELECT DISTINCT competition_id FROM leaderboard_entries WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("query user boards: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user board: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
