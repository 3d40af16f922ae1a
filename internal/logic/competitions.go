package logic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/thinkly/thinkly-api/internal/models"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// CompetitionConfig holds the scheduling rules for new competitions.
type CompetitionConfig struct {
	// ReminderLeadTimes lists how long before the start reminder emails go out.
	ReminderLeadTimes []time.Duration
	MaxDuration       time.Duration
}

type competitionService struct {
	pg     PgPool
	cfg    CompetitionConfig
	logger *zap.SugaredLogger
	now    func() time.Time
}

func NewCompetitionService(pg PgPool, cfg CompetitionConfig, logger *zap.SugaredLogger) CompetitionService {
	if cfg.MaxDuration <= 0 {
		cfg.MaxDuration = 7 * 24 * time.Hour
	}
	return &competitionService{pg: pg, cfg: cfg, logger: logger, now: time.Now}
}

const competitionColumns = "id, name, description, start_time, end_time, created_at"

func scanCompetition(row pgx.Row) (*models.Competition, error) {
	var c models.Competition
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.StartTime, &c.EndTime, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns competitions filtered by status (upcoming, active, past or all),
// most recent first.
func (s *competitionService) List(ctx context.Context, status string) ([]models.Competition, error) {
	now := s.now()
	q := psql.Select(competitionColumns).From("competitions").OrderBy("start_time DESC")

	switch models.CompetitionStatus(status) {
	case models.CompetitionUpcoming:
		q = q.Where(sq.Gt{"start_time": now})
	case models.CompetitionActive:
		q = q.Where(sq.LtOrEq{"start_time": now}).Where(sq.Gt{"end_time": now})
	case models.CompetitionPast:
		q = q.Where(sq.LtOrEq{"end_time": now})
	case "", "all":
	default:
		return nil, ErrValidation("unknown status %q", status)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build competitions query: %w", err)
	}
	rows, err := s.pg.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query competitions: %w", err)
	}
	defer rows.Close()

	list := []models.Competition{}
	for rows.Next() {
		c, err := scanCompetition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan competition: %w", err)
		}
		c.Status = c.StatusAt(now)
		list = append(list, *c)
	}
	return list, rows.Err()
}

// Current resolves the competition whose time window contains now.
func (s *competitionService) Current(ctx context.Context) (*models.Competition, error) {
	now := s.now()
	c, err := scanCompetition(s.pg.QueryRow(ctx, `
		SELECT `+competitionColumns+`
		FROM competitions
		WHERE start_time <= $1 AND end_time > $1
		ORDER BY start_time DESC
		LIMIT 1`, now))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound("no competition is running")
	}
	if err != nil {
		return nil, fmt.Errorf("resolve current competition: %w", err)
	}
	c.Status = c.StatusAt(now)
	return c, nil
}

// Get returns a competition. Rounds are only included once it has started.
func (s *competitionService) Get(ctx context.Context, id int64) (*models.CompetitionDetail, error) {
	now := s.now()
	c, err := scanCompetition(s.pg.QueryRow(ctx, `SELECT `+competitionColumns+` FROM competitions WHERE id = $1`, id))
	if err != nil {
		return nil, translatePgError(err, "competition")
	}
	c.Status = c.StatusAt(now)

	detail := &models.CompetitionDetail{Competition: *c, Rounds: []models.CompetitionRound{}}
	if c.Status == models.CompetitionUpcoming {
		return detail, nil
	}

	rounds, err := s.loadRounds(ctx, id)
	if err != nil {
		return nil, err
	}
	detail.Rounds = rounds
	return detail, nil
}

func (s *competitionService) loadRounds(ctx context.Context, competitionID int64) ([]models.CompetitionRound, error) {
	rows, err := s.pg.Query(ctx, `
		SELECT qi.position,
		       qi.id, qi.question_id, qi.points, q.title, q.body,
		       ri.id, ri.riddle_id, ri.points, r.title, r.body
		FROM question_instances qi
		JOIN questions q ON q.id = qi.question_id
		JOIN riddle_instances ri ON ri.competition_id = qi.competition_id AND ri.position = qi.position
		JOIN riddles r ON r.id = ri.riddle_id
		WHERE qi.competition_id = $1
		ORDER BY qi.position`, competitionID)
	if err != nil {
		return nil, fmt.Errorf("query rounds: %w", err)
	}
	defer rows.Close()

	rounds := []models.CompetitionRound{}
	for rows.Next() {
		var r models.CompetitionRound
		if err := rows.Scan(&r.Position,
			&r.Question.ID, &r.Question.QuestionID, &r.Question.Points, &r.Question.Title, &r.Question.Body,
			&r.Riddle.ID, &r.Riddle.RiddleID, &r.Riddle.Points, &r.Riddle.Title, &r.Riddle.Body,
		); err != nil {
			return nil, fmt.Errorf("scan round: %w", err)
		}
		r.Question.CompetitionID, r.Riddle.CompetitionID = competitionID, competitionID
		r.Question.Position, r.Riddle.Position = r.Position, r.Position
		rounds = append(rounds, r)
	}
	return rounds, rows.Err()
}

// validateSchedule checks the time window and round list of a new competition.
func (s *competitionService) validateSchedule(req models.CreateCompetitionRequest, now time.Time) error {
	if strings.TrimSpace(req.Name) == "" {
		return ErrValidation("name is required")
	}
	if !req.EndTime.After(req.StartTime) {
		return ErrValidation("end time must be after start time")
	}
	if req.StartTime.Before(now) {
		return ErrValidation("start time must not be in the past")
	}
	if req.EndTime.Sub(req.StartTime) > s.cfg.MaxDuration {
		return ErrValidation("competition may last at most %s", s.cfg.MaxDuration)
	}
	if len(req.Rounds) == 0 {
		return ErrValidation("at least one round is required")
	}

	questions := make(map[int64]bool, len(req.Rounds))
	riddles := make(map[int64]bool, len(req.Rounds))
	for i, r := range req.Rounds {
		if questions[r.QuestionID] {
			return ErrValidation("round %d repeats question %d", i+1, r.QuestionID)
		}
		if riddles[r.RiddleID] {
			return ErrValidation("round %d repeats riddle %d", i+1, r.RiddleID)
		}
		questions[r.QuestionID], riddles[r.RiddleID] = true, true
	}
	return nil
}

// Create validates the schedule, then inserts the competition, one
// question/riddle instance pair per round and its reminder emails in a
// single transaction.
func (s *competitionService) Create(ctx context.Context, req models.CreateCompetitionRequest) (*models.CompetitionDetail, error) {
	now := s.now()
	if err := s.validateSchedule(req, now); err != nil {
		return nil, err
	}

	tx, err := s.pg.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Serializes concurrent creates so the overlap check below holds.
	if _, err := tx.Exec(ctx, `LOCK TABLE competitions IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return nil, fmt.Errorf("lock competitions: %w", err)
	}

	var overlapping bool
	if err := tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM competitions WHERE start_time < $2 AND end_time > $1)`,
		req.StartTime, req.EndTime).Scan(&overlapping); err != nil {
		return nil, fmt.Errorf("check overlap: %w", err)
	}
	if overlapping {
		return nil, ErrConflict("another competition is scheduled in that time window")
	}

	c, err := scanCompetition(tx.QueryRow(ctx, `
		INSERT INTO competitions (name, description, start_time, end_time)
		VALUES ($1, $2, $3, $4)
		RETURNING `+competitionColumns,
		strings.TrimSpace(req.Name), req.Description, req.StartTime, req.EndTime))
	if err != nil {
		return nil, translatePgError(err, "competition")
	}
	c.Status = c.StatusAt(now)

	detail := &models.CompetitionDetail{Competition: *c, Rounds: make([]models.CompetitionRound, 0, len(req.Rounds))}
	for i, round := range req.Rounds {
		r, err := insertRound(ctx, tx, c.ID, i+1, round)
		if err != nil {
			return nil, err
		}
		detail.Rounds = append(detail.Rounds, *r)
	}

	scheduled := 0
	for _, lead := range s.cfg.ReminderLeadTimes {
		sendAt := req.StartTime.Add(-lead)
		if !sendAt.After(now) {
			continue
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO competition_reminders (competition_id, send_at) VALUES ($1, $2)`,
			c.ID, sendAt); err != nil {
			return nil, fmt.Errorf("schedule reminder: %w", err)
		}
		scheduled++
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit competition: %w", err)
	}

	s.logger.Infow("Competition created",
		"competition_id", c.ID,
		"rounds", len(detail.Rounds),
		"reminders", scheduled,
	)
	return detail, nil
}

func insertRound(ctx context.Context, tx pgx.Tx, competitionID int64, position int, round models.RoundRequest) (*models.CompetitionRound, error) {
	r := &models.CompetitionRound{Position: position}

	r.Question = models.QuestionInstance{CompetitionID: competitionID, QuestionID: round.QuestionID, Position: position}
	err := tx.QueryRow(ctx, `
		INSERT INTO question_instances (competition_id, question_id, position, points)
		SELECT $1, q.id, $3, CASE WHEN $4 > 0 THEN $4 ELSE q.points END
		FROM questions q WHERE q.id = $2
		RETURNING id, points, (SELECT title FROM questions WHERE id = $2)`,
		competitionID, round.QuestionID, position, round.QuestionPoints,
	).Scan(&r.Question.ID, &r.Question.Points, &r.Question.Title)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound("question %d not found", round.QuestionID)
	}
	if err != nil {
		return nil, fmt.Errorf("insert question instance: %w", err)
	}

	r.Riddle = models.RiddleInstance{CompetitionID: competitionID, RiddleID: round.RiddleID, Position: position}
	err = tx.QueryRow(ctx, `
		INSERT INTO riddle_instances (competition_id, riddle_id, position, points)
		SELECT $1, r.id, $3, CASE WHEN $4 > 0 THEN $4 ELSE r.points END
		FROM riddles r WHERE r.id = $2
		RETURNING id, points, (SELECT title FROM riddles WHERE id = $2)`,
		competitionID, round.RiddleID, position, round.RiddlePoints,
	).Scan(&r.Riddle.ID, &r.Riddle.Points, &r.Riddle.Title)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound("riddle %d not found", round.RiddleID)
	}
	if err != nil {
		return nil, fmt.Errorf("insert riddle instance: %w", err)
	}

	return r, nil
}

// Delete removes a competition together with its instances, entries and
// reminders (ON DELETE CASCADE).
func (s *competitionService) Delete(ctx context.Context, id int64) error {
	tag, err := s.pg.Exec(ctx, `DELETE FROM competitions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete competition: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound("competition not found")
	}
	s.logger.Infow("Competition deleted", "competition_id", id)
	return nil
}
