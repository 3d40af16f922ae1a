package models

import "time"

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32,alphanum"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required"` // username or email
	Password   string `json:"password" validate:"required"`
}

type AuthResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        User      `json:"user"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}

type CreateCompetitionRequest struct {
	Name        string         `json:"name" validate:"required,max=120"`
	Description string         `json:"description" validate:"max=2000"`
	StartTime   time.Time      `json:"start_time" validate:"required"`
	EndTime     time.Time      `json:"end_time" validate:"required"`
	Rounds      []RoundRequest `json:"rounds" validate:"required,min=1,max=50,dive"`
}

// RoundRequest pairs one question with one riddle. Zero points means
// "use the bank item's default".
type RoundRequest struct {
	QuestionID     int64 `json:"question_id" validate:"required,gt=0"`
	RiddleID       int64 `json:"riddle_id" validate:"required,gt=0"`
	QuestionPoints int   `json:"question_points" validate:"min=0,max=1000"`
	RiddlePoints   int   `json:"riddle_points" validate:"min=0,max=1000"`
}

type QuestionRequest struct {
	Title      string     `json:"title" validate:"required,max=200"`
	Body       string     `json:"body" validate:"required,max=20000"`
	Answer     string     `json:"answer" validate:"required,max=2000"`
	Difficulty Difficulty `json:"difficulty" validate:"required,oneof=easy medium hard"`
	Points     int        `json:"points" validate:"min=0,max=1000"`
}

type RiddleRequest struct {
	Title  string `json:"title" validate:"required,max=200"`
	Body   string `json:"body" validate:"required,max=5000"`
	Answer string `json:"answer" validate:"required,max=500"`
	Hint   string `json:"hint" validate:"max=500"`
	Points int    `json:"points" validate:"min=0,max=1000"`
}

type SubmissionKind string

const (
	SubmissionQuestion SubmissionKind = "question"
	SubmissionRiddle   SubmissionKind = "riddle"
)

type SubmissionRequest struct {
	Kind       SubmissionKind `json:"kind" validate:"required,oneof=question riddle"`
	InstanceID int64          `json:"instance_id" validate:"required,gt=0"`
	Answer     string         `json:"answer" validate:"required,max=10000"`
}

type SubmissionResult struct {
	Correct        bool    `json:"correct"`
	PointsAwarded  int     `json:"points_awarded"`
	TotalScore     int     `json:"total_score"`
	ProblemsSolved int     `json:"problems_solved"`
	ElapsedTime    float64 `json:"elapsed_time"`
}

type SetAdminRequest struct {
	IsAdmin bool `json:"is_admin"`
}
