package handlers

import (
	"context"
	"errors"
	"sync"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"

	"github.com/thinkly/thinkly-api/internal/logic"
	"github.com/thinkly/thinkly-api/internal/models"
)

// MockAuthService accepts the tokens listed in Tokens.
type MockAuthService struct {
	logic.AuthService
	Tokens map[string]*logic.Claims

	RegisterFunc       func(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error)
	LoginFunc          func(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	ChangePasswordFunc func(ctx context.Context, userID int64, current, newPassword string) error
	LoggedOut          []*logic.Claims
}

func (m *MockAuthService) ParseToken(ctx context.Context, token string) (*logic.Claims, error) {
	if c, ok := m.Tokens[token]; ok {
		return c, nil
	}
	return nil, logic.ErrUnauthorized("invalid token")
}

func (m *MockAuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, req)
	}
	return &models.AuthResponse{AccessToken: "t", TokenType: "Bearer", User: models.User{Username: req.Username}}, nil
}

func (m *MockAuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, req)
	}
	return &models.AuthResponse{AccessToken: "t", TokenType: "Bearer"}, nil
}

func (m *MockAuthService) Logout(ctx context.Context, claims *logic.Claims) error {
	m.LoggedOut = append(m.LoggedOut, claims)
	return nil
}

func (m *MockAuthService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return &models.User{ID: id, Username: "user"}, nil
}

func (m *MockAuthService) ChangePassword(ctx context.Context, userID int64, current, newPassword string) error {
	if m.ChangePasswordFunc != nil {
		return m.ChangePasswordFunc(ctx, userID, current, newPassword)
	}
	return nil
}

func (m *MockAuthService) RequestPasswordReset(ctx context.Context, email string) error { return nil }

func (m *MockAuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	return nil
}

var (
	userClaims  = &logic.Claims{UserID: 7, Username: "alice"}
	adminClaims = &logic.Claims{UserID: 1, Username: "root", IsAdmin: true}
)

func newMockAuth() *MockAuthService {
	return &MockAuthService{Tokens: map[string]*logic.Claims{
		"user-token":  userClaims,
		"admin-token": adminClaims,
	}}
}

// MockLeaderboardService
type MockLeaderboardService struct {
	CurrentFunc        func(ctx context.Context, viewer *int64) (*models.LeaderboardView, error)
	ForCompetitionFunc func(ctx context.Context, competitionID int64, page, limit int) (*models.LeaderboardPage, error)
	HistoryFunc        func(ctx context.Context) ([]models.CompetitionLeaderboard, error)
	UserStandingFunc   func(ctx context.Context, competitionID, userID int64) (*models.RankedEntry, error)

	mu          sync.Mutex
	Invalidated []int64
}

func (m *MockLeaderboardService) Current(ctx context.Context, viewer *int64) (*models.LeaderboardView, error) {
	if m.CurrentFunc != nil {
		return m.CurrentFunc(ctx, viewer)
	}
	return &models.LeaderboardView{}, nil
}

func (m *MockLeaderboardService) ForCompetition(ctx context.Context, competitionID int64, page, limit int) (*models.LeaderboardPage, error) {
	if m.ForCompetitionFunc != nil {
		return m.ForCompetitionFunc(ctx, competitionID, page, limit)
	}
	return &models.LeaderboardPage{CompetitionID: competitionID, Page: page, Limit: limit}, nil
}

func (m *MockLeaderboardService) History(ctx context.Context) ([]models.CompetitionLeaderboard, error) {
	if m.HistoryFunc != nil {
		return m.HistoryFunc(ctx)
	}
	return nil, nil
}

func (m *MockLeaderboardService) UserStanding(ctx context.Context, competitionID, userID int64) (*models.RankedEntry, error) {
	if m.UserStandingFunc != nil {
		return m.UserStandingFunc(ctx, competitionID, userID)
	}
	return nil, logic.ErrNotFound("user has no entry in this competition")
}

func (m *MockLeaderboardService) Invalidate(ctx context.Context, competitionID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Invalidated = append(m.Invalidated, competitionID)
	return nil
}

// MockCompetitionService
type MockCompetitionService struct {
	logic.CompetitionService
	ListFunc   func(ctx context.Context, status string) ([]models.Competition, error)
	GetFunc    func(ctx context.Context, id int64) (*models.CompetitionDetail, error)
	DeleteFunc func(ctx context.Context, id int64) error
}

func (m *MockCompetitionService) List(ctx context.Context, status string) ([]models.Competition, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, status)
	}
	return nil, nil
}

func (m *MockCompetitionService) Get(ctx context.Context, id int64) (*models.CompetitionDetail, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, logic.ErrNotFound("competition not found")
}

func (m *MockCompetitionService) Create(ctx context.Context, req models.CreateCompetitionRequest) (*models.CompetitionDetail, error) {
	return &models.CompetitionDetail{Competition: models.Competition{ID: 42, Name: req.Name}}, nil
}

func (m *MockCompetitionService) Delete(ctx context.Context, id int64) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockScoreService
type MockScoreService struct {
	SubmitFunc func(ctx context.Context, competitionID, userID int64, req models.SubmissionRequest) (*models.SubmissionResult, *models.SubmissionEvent, error)
}

func (m *MockScoreService) Submit(ctx context.Context, competitionID, userID int64, req models.SubmissionRequest) (*models.SubmissionResult, *models.SubmissionEvent, error) {
	return m.SubmitFunc(ctx, competitionID, userID, req)
}

// MockQuestionService serves a fixed question and riddle.
type MockQuestionService struct {
	logic.QuestionService
}

func (m *MockQuestionService) ListQuestions(ctx context.Context, filter models.QuestionFilter) ([]models.Question, error) {
	return []models.Question{{ID: 1, Title: "Two Sum", Answer: "42"}}, nil
}

func (m *MockQuestionService) GetQuestion(ctx context.Context, id int64) (*models.Question, error) {
	return &models.Question{ID: id, Title: "Two Sum", Answer: "42"}, nil
}

func (m *MockQuestionService) ListRiddles(ctx context.Context, filter models.QuestionFilter) ([]models.Riddle, error) {
	return []models.Riddle{{ID: 1, Title: "Echo", Answer: "an echo"}}, nil
}

func (m *MockQuestionService) DeleteQuestion(ctx context.Context, id int64) error {
	return logic.ErrConflict("question is used by a competition")
}

// MockAdminService
type MockAdminService struct {
	logic.AdminService
	SetAdminCalls []int64
	DeleteCalls   []int64
}

func (m *MockAdminService) SetAdmin(ctx context.Context, userID int64, isAdmin bool) error {
	m.SetAdminCalls = append(m.SetAdminCalls, userID)
	return nil
}

func (m *MockAdminService) DeleteUser(ctx context.Context, userID int64) error {
	m.DeleteCalls = append(m.DeleteCalls, userID)
	return nil
}

func (m *MockAdminService) Dashboard(ctx context.Context) (*models.AdminDashboard, error) {
	return &models.AdminDashboard{Users: 3}, nil
}

// MockSubmissionQueue records enqueued events.
type MockSubmissionQueue struct {
	EnqueueFunc func(event *models.SubmissionEvent) bool
	Events      []*models.SubmissionEvent
}

func (m *MockSubmissionQueue) Enqueue(event *models.SubmissionEvent) bool {
	m.Events = append(m.Events, event)
	if m.EnqueueFunc != nil {
		return m.EnqueueFunc(event)
	}
	return true
}

func (m *MockSubmissionQueue) QueueDepth() int { return len(m.Events) }

// MockDatabase stands in for the Postgres pool.
type MockDatabase struct {
	PingErr error
	Execs   []string
}

func (m *MockDatabase) Ping(ctx context.Context) error { return m.PingErr }

func (m *MockDatabase) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	m.Execs = append(m.Execs, sql)
	return pgconn.NewCommandTag("CREATE TABLE"), nil
}

// MockClickHouseConn implements driver.Conn for testing
type MockClickHouseConn struct {
	driver.Conn
	PingErr error
	Execs   []string
}

func (m *MockClickHouseConn) Ping(ctx context.Context) error { return m.PingErr }

func (m *MockClickHouseConn) Exec(ctx context.Context, query string, args ...interface{}) error {
	m.Execs = append(m.Execs, query)
	return nil
}

type MockRedis struct {
	Down bool
}

func (m *MockRedis) Ping(ctx context.Context) *redis.StatusCmd {
	if m.Down {
		return redis.NewStatusResult("", errors.New("connection refused"))
	}
	return redis.NewStatusResult("PONG", nil)
}
