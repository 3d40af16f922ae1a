package handlers

import (
	"context"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/thinkly/thinkly-api/internal/logic"
	"github.com/thinkly/thinkly-api/internal/models"
)

// MaxBodySize limits the size of request bodies to 1MB
const MaxBodySize = 1048576

// SubmissionQueue is the analytics worker pool as seen by the handlers.
type SubmissionQueue interface {
	Enqueue(event *models.SubmissionEvent) bool
	QueueDepth() int
}

// Database is the part of the Postgres pool used for health checks and
// schema installation.
type Database interface {
	Ping(ctx context.Context) error
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Pinger is the part of the Redis client used for readiness checks.
type Pinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

type Config struct {
	WorkerPool SubmissionQueue
	Postgres   Database
	ClickHouse driver.Conn
	Redis      Pinger
	Logger     *zap.Logger
	// Services
	Auth         logic.AuthService
	Competitions logic.CompetitionService
	Leaderboard  logic.LeaderboardService
	Questions    logic.QuestionService
	Scores       logic.ScoreService
	Admin        logic.AdminService
	// MigrationsDir holds postgres/ and clickhouse/ schema files.
	MigrationsDir string
}

type Handler struct {
	pool          SubmissionQueue
	pg            Database
	ch            driver.Conn
	redis         Pinger
	logger        *zap.SugaredLogger
	validator     *validator.Validate
	auth          logic.AuthService
	competitions  logic.CompetitionService
	leaderboard   logic.LeaderboardService
	questions     logic.QuestionService
	scores        logic.ScoreService
	admin         logic.AdminService
	migrationsDir string
}

func New(cfg Config) *Handler {
	if cfg.MigrationsDir == "" {
		cfg.MigrationsDir = "migrations"
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Handler{
		pool:          cfg.WorkerPool,
		pg:            cfg.Postgres,
		ch:            cfg.ClickHouse,
		redis:         cfg.Redis,
		logger:        cfg.Logger.Sugar(),
		validator:     validator.New(),
		auth:          cfg.Auth,
		competitions:  cfg.Competitions,
		leaderboard:   cfg.Leaderboard,
		questions:     cfg.Questions,
		scores:        cfg.Scores,
		admin:         cfg.Admin,
		migrationsDir: cfg.MigrationsDir,
	}
}
