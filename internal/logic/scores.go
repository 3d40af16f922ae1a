package logic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/thinkly/thinkly-api/internal/models"
)

type scoreService struct {
	pg     PgPool
	logger *zap.SugaredLogger
	now    func() time.Time
}

func NewScoreService(pg PgPool, logger *zap.SugaredLogger) ScoreService {
	return &scoreService{pg: pg, logger: logger, now: time.Now}
}

// instanceQueries resolve the points and expected answer of a scheduled item.
var instanceQueries = map[models.SubmissionKind]string{
	models.SubmissionQuestion: `
		SELECT qi.points, q.answer
		FROM question_instances qi
		JOIN questions q ON q.id = qi.question_id
		WHERE qi.id = $1 AND qi.competition_id = $2`,
	models.SubmissionRiddle: `
		SELECT ri.points, r.answer
		FROM riddle_instances ri
		JOIN riddles r ON r.id = ri.riddle_id
		WHERE ri.id = $1 AND ri.competition_id = $2`,
}

// Submit checks an answer. The first correct answer to an instance adds its
// points to the user's entry; repeating it is a conflict. Every attempt,
// right or wrong, yields an analytics event.
func (s *scoreService) Submit(ctx context.Context, competitionID, userID int64, req models.SubmissionRequest) (*models.SubmissionResult, *models.SubmissionEvent, error) {
	query, ok := instanceQueries[req.Kind]
	if !ok {
		return nil, nil, ErrValidation("unknown submission kind %q", req.Kind)
	}

	now := s.now()
	comp, err := scanCompetition(s.pg.QueryRow(ctx, `SELECT `+competitionColumns+` FROM competitions WHERE id = $1`, competitionID))
	if err != nil {
		return nil, nil, translatePgError(err, "competition")
	}
	if comp.StatusAt(now) != models.CompetitionActive {
		return nil, nil, ErrValidation("competition is not running")
	}

	var points int
	var expected string
	err = s.pg.QueryRow(ctx, query, req.InstanceID, competitionID).Scan(&points, &expected)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, ErrNotFound("%s not found in this competition", req.Kind)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load %s instance: %w", req.Kind, err)
	}

	event := &models.SubmissionEvent{
		ID:            uuid.New(),
		CompetitionID: competitionID,
		UserID:        userID,
		Kind:          req.Kind,
		InstanceID:    req.InstanceID,
		Correct:       normalizeAnswer(req.Answer) == normalizeAnswer(expected),
		SubmittedAt:   now,
	}

	if !event.Correct {
		result, err := s.standing(ctx, competitionID, userID)
		if err != nil {
			return nil, nil, err
		}
		return result, event, nil
	}

	result, err := s.award(ctx, comp, userID, req, points, now)
	if err != nil {
		return nil, nil, err
	}
	event.Points = points

	s.logger.Infow("Answer accepted",
		"competition_id", competitionID,
		"user_id", userID,
		"kind", req.Kind,
		"instance_id", req.InstanceID,
		"points", points,
	)
	return result, event, nil
}

func (s *scoreService) award(ctx context.Context, comp *models.Competition, userID int64, req models.SubmissionRequest, points int, now time.Time) (*models.SubmissionResult, error) {
	tx, err := s.pg.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO solves (competition_id, user_id, kind, instance_id, points)
		VALUES ($1, $2, $3, $4, $5)`,
		comp.ID, userID, string(req.Kind), req.InstanceID, points); err != nil {
		if isPgCode(err, pgUniqueViolation) {
			return nil, ErrConflict("%s already solved", req.Kind)
		}
		return nil, fmt.Errorf("record solve: %w", err)
	}

	elapsed := now.Sub(comp.StartTime).Minutes()
	result := &models.SubmissionResult{Correct: true, PointsAwarded: points}
	err = tx.QueryRow(ctx, `
		INSERT INTO leaderboard_entries (competition_id, user_id, display_name, total_score, problems_solved, elapsed_time)
		SELECT $1, u.id, u.username, $3, 1, $4
		FROM users u WHERE u.id = $2
		ON CONFLICT (competition_id, user_id) DO UPDATE
		SET total_score     = leaderboard_entries.total_score + EXCLUDED.total_score,
		    problems_solved = leaderboard_entries.problems_solved + 1,
		    elapsed_time    = EXCLUDED.elapsed_time,
		    display_name    = EXCLUDED.display_name
		RETURNING total_score, problems_solved, elapsed_time`,
		comp.ID, userID, points, elapsed,
	).Scan(&result.TotalScore, &result.ProblemsSolved, &result.ElapsedTime)
	if err != nil {
		return nil, translatePgError(err, "user")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit solve: %w", err)
	}
	return result, nil
}

// standing reports the user's unchanged totals after a wrong answer.
func (s *scoreService) standing(ctx context.Context, competitionID, userID int64) (*models.SubmissionResult, error) {
	result := &models.SubmissionResult{}
	var elapsed *float64
	err := s.pg.QueryRow(ctx, `
		SELECT total_score, problems_solved, elapsed_time
		FROM leaderboard_entries
		WHERE competition_id = $1 AND user_id = $2`,
		competitionID, userID,
	).Scan(&result.TotalScore, &result.ProblemsSolved, &elapsed)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("load standing: %w", err)
	}
	if elapsed != nil {
		result.ElapsedTime = *elapsed
	}
	return result, nil
}

// normalizeAnswer makes comparison insensitive to case and whitespace runs.
func normalizeAnswer(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
