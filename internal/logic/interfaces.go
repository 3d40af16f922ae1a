package logic

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"

	"github.com/thinkly/thinkly-api/internal/models"
)

// PgPool defines the interface for PostgreSQL connection pool
type PgPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// RedisClient defines the interface for Redis client
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
}

// Mailer delivers transactional email.
type Mailer interface {
	Send(ctx context.Context, email models.Email) error
}

type CompetitionService interface {
	List(ctx context.Context, status string) ([]models.Competition, error)
	Current(ctx context.Context) (*models.Competition, error)
	Get(ctx context.Context, id int64) (*models.CompetitionDetail, error)
	Create(ctx context.Context, req models.CreateCompetitionRequest) (*models.CompetitionDetail, error)
	Delete(ctx context.Context, id int64) error
}

// BoardInvalidator drops cached leaderboard snapshots.
type BoardInvalidator interface {
	Invalidate(ctx context.Context, competitionID int64) error
}

type LeaderboardService interface {
	Current(ctx context.Context, viewer *int64) (*models.LeaderboardView, error)
	ForCompetition(ctx context.Context, competitionID int64, page, limit int) (*models.LeaderboardPage, error)
	History(ctx context.Context) ([]models.CompetitionLeaderboard, error)
	UserStanding(ctx context.Context, competitionID, userID int64) (*models.RankedEntry, error)
	Invalidate(ctx context.Context, competitionID int64) error
}

type QuestionService interface {
	ListQuestions(ctx context.Context, filter models.QuestionFilter) ([]models.Question, error)
	GetQuestion(ctx context.Context, id int64) (*models.Question, error)
	CreateQuestion(ctx context.Context, req models.QuestionRequest) (*models.Question, error)
	UpdateQuestion(ctx context.Context, id int64, req models.QuestionRequest) (*models.Question, error)
	DeleteQuestion(ctx context.Context, id int64) error

	ListRiddles(ctx context.Context, filter models.QuestionFilter) ([]models.Riddle, error)
	GetRiddle(ctx context.Context, id int64) (*models.Riddle, error)
	CreateRiddle(ctx context.Context, req models.RiddleRequest) (*models.Riddle, error)
	UpdateRiddle(ctx context.Context, id int64, req models.RiddleRequest) (*models.Riddle, error)
	DeleteRiddle(ctx context.Context, id int64) error
}

type ScoreService interface {
	Submit(ctx context.Context, competitionID, userID int64, req models.SubmissionRequest) (*models.SubmissionResult, *models.SubmissionEvent, error)
}

type AuthService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	Logout(ctx context.Context, claims *Claims) error
	ParseToken(ctx context.Context, token string) (*Claims, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	ChangePassword(ctx context.Context, userID int64, current, newPassword string) error
}

type AdminService interface {
	Dashboard(ctx context.Context) (*models.AdminDashboard, error)
	ListUsers(ctx context.Context, search string, page, limit int) (*models.UserList, error)
	SetAdmin(ctx context.Context, userID int64, isAdmin bool) error
	DeleteUser(ctx context.Context, userID int64) error
}
