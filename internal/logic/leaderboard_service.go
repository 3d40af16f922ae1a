package logic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/thinkly/thinkly-api/internal/models"
)

// LeaderboardCacheKey is the Redis key holding a competition's entry snapshot.
func LeaderboardCacheKey(competitionID int64) string {
	return "leaderboard:competition:" + strconv.FormatInt(competitionID, 10)
}

// LeaderboardGenerationKey is the Redis counter bumped on every invalidation.
// A snapshot is only served while its generation matches the counter, so a
// snapshot loaded before a write and stored after it is never used.
func LeaderboardGenerationKey(competitionID int64) string {
	return LeaderboardCacheKey(competitionID) + ":gen"
}

type cachedBoard struct {
	Generation int64                     `json:"gen"`
	Entries    []models.LeaderboardEntry `json:"entries"`
}

type leaderboardService struct {
	pg           PgPool
	redis        RedisClient
	competitions CompetitionService
	cacheTTL     time.Duration
	logger       *zap.SugaredLogger
	now          func() time.Time
}

func NewLeaderboardService(pg PgPool, rdb RedisClient, competitions CompetitionService, cacheTTL time.Duration, logger *zap.SugaredLogger) LeaderboardService {
	return &leaderboardService{
		pg:           pg,
		redis:        rdb,
		competitions: competitions,
		cacheTTL:     cacheTTL,
		logger:       logger,
		now:          time.Now,
	}
}

const leaderboardSelect = `
	SELECT le.competition_id, c.name, le.user_id, u.username, le.display_name,
	       le.total_score, le.problems_solved, le.elapsed_time
	FROM leaderboard_entries le
	JOIN competitions c ON c.id = le.competition_id
	LEFT JOIN users u ON u.id = le.user_id`

func (s *leaderboardService) queryEntries(ctx context.Context, sql string, args ...any) ([]models.LeaderboardEntry, error) {
	rows, err := s.pg.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	entries := []models.LeaderboardEntry{}
	for rows.Next() {
		var row models.LeaderboardRow
		if err := rows.Scan(&row.CompetitionID, &row.CompetitionName, &row.UserID, &row.AccountName,
			&row.StoredName, &row.TotalScore, &row.ProblemsSolved, &row.ElapsedTime); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		entry, err := row.Entry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// entries returns the snapshot of one competition, served from Redis when
// a valid cached copy of the current generation exists.
func (s *leaderboardService) entries(ctx context.Context, competitionID int64) ([]models.LeaderboardEntry, error) {
	key := LeaderboardCacheKey(competitionID)

	gen, genErr := s.generation(ctx, competitionID)
	if genErr != nil {
		s.logger.Warnw("Leaderboard generation read failed", "competition_id", competitionID, "error", genErr)
	}

	if genErr == nil {
		if cached, err := s.redis.Get(ctx, key).Bytes(); err == nil {
			board, ok := s.decodeCached(cached)
			switch {
			case !ok:
				s.logger.Warnw("Discarding corrupt leaderboard cache", "competition_id", competitionID)
			case board.Generation == gen:
				return board.Entries, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warnw("Leaderboard cache read failed", "competition_id", competitionID, "error", err)
		}
	}

	entries, err := s.queryEntries(ctx, leaderboardSelect+`
		WHERE le.competition_id = $1
		ORDER BY le.total_score DESC, le.user_id ASC NULLS LAST`, competitionID)
	if err != nil {
		return nil, err
	}

	if genErr != nil {
		return entries, nil
	}
	if payload, err := json.Marshal(cachedBoard{Generation: gen, Entries: entries}); err == nil {
		if err := s.redis.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
			s.logger.Warnw("Leaderboard cache write failed", "competition_id", competitionID, "error", err)
		}
	}
	return entries, nil
}

// generation reads the invalidation counter. A missing counter is 0.
func (s *leaderboardService) generation(ctx context.Context, competitionID int64) (int64, error) {
	gen, err := s.redis.Get(ctx, LeaderboardGenerationKey(competitionID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (s *leaderboardService) decodeCached(payload []byte) (cachedBoard, bool) {
	var board cachedBoard
	if err := json.Unmarshal(payload, &board); err != nil || board.Entries == nil {
		return cachedBoard{}, false
	}
	for _, e := range board.Entries {
		if e.Validate() != nil {
			return cachedBoard{}, false
		}
	}
	return board, true
}

// Current returns the windowed board of the running competition, centred on
// the viewer when one is given.
func (s *leaderboardService) Current(ctx context.Context, viewer *int64) (*models.LeaderboardView, error) {
	comp, err := s.competitions.Current(ctx)
	if err != nil {
		return nil, err
	}

	entries, err := s.entries(ctx, comp.ID)
	if err != nil {
		return nil, err
	}
	ranked := RankEntries(entries)
	window := WindowEntries(ranked, viewer)

	view := &models.LeaderboardView{
		Competition:   comp,
		Entries:       window.Entries,
		ShowSeparator: window.ShowSeparator,
		Participants:  len(ranked),
	}
	if pos := FindViewer(ranked, viewer); pos >= 0 {
		me := ranked[pos]
		view.Viewer = &me
	}
	return view, nil
}

// ForCompetition returns one page of a competition's full board.
func (s *leaderboardService) ForCompetition(ctx context.Context, competitionID int64, page, limit int) (*models.LeaderboardPage, error) {
	entries, err := s.entries(ctx, competitionID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		if err := s.ensureCompetition(ctx, competitionID); err != nil {
			return nil, err
		}
	}

	ranked := RankEntries(entries)
	pageEntries, page, limit := PaginateEntries(ranked, page, limit)
	return &models.LeaderboardPage{
		CompetitionID: competitionID,
		Entries:       pageEntries,
		Page:          page,
		Limit:         limit,
		Total:         len(ranked),
	}, nil
}

// History returns one ranked board per finished competition, newest first.
func (s *leaderboardService) History(ctx context.Context) ([]models.CompetitionLeaderboard, error) {
	entries, err := s.queryEntries(ctx, leaderboardSelect+`
		WHERE c.end_time <= $1
		ORDER BY c.start_time DESC, c.id, le.total_score DESC`, s.now())
	if err != nil {
		return nil, err
	}
	return GroupByCompetition(entries), nil
}

// UserStanding returns the ranked entry of one user in one competition.
func (s *leaderboardService) UserStanding(ctx context.Context, competitionID, userID int64) (*models.RankedEntry, error) {
	entries, err := s.entries(ctx, competitionID)
	if err != nil {
		return nil, err
	}
	ranked := RankEntries(entries)
	pos := FindViewer(ranked, &userID)
	if pos < 0 {
		return nil, ErrNotFound("user has no entry in this competition")
	}
	me := ranked[pos]
	return &me, nil
}

// Invalidate bumps the generation first, so a snapshot being stored by a
// concurrent reader is already outdated when it lands.
func (s *leaderboardService) Invalidate(ctx context.Context, competitionID int64) error {
	if err := s.redis.Incr(ctx, LeaderboardGenerationKey(competitionID)).Err(); err != nil {
		return err
	}
	return s.redis.Del(ctx, LeaderboardCacheKey(competitionID)).Err()
}

func (s *leaderboardService) ensureCompetition(ctx context.Context, competitionID int64) error {
	var exists bool
	if err := s.pg.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM competitions WHERE id = $1)`, competitionID).Scan(&exists); err != nil {
		return fmt.Errorf("check competition: %w", err)
	}
	if !exists {
		return ErrNotFound("competition not found")
	}
	return nil
}
