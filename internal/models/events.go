package models

import (
	"time"

	"github.com/google/uuid"
)

// SubmissionEvent records one answer attempt for analytics.
type SubmissionEvent struct {
	ID            uuid.UUID      `json:"id"`
	CompetitionID int64          `json:"competition_id" validate:"required"`
	UserID        int64          `json:"user_id" validate:"required"`
	Kind          SubmissionKind `json:"kind" validate:"required"`
	InstanceID    int64          `json:"instance_id" validate:"required"`
	Correct       bool           `json:"correct"`
	Points        int            `json:"points"`
	SubmittedAt   time.Time      `json:"submitted_at"`
}

// DailyActivity is one day of submission analytics.
type DailyActivity struct {
	Day          time.Time `json:"day"`
	Submissions  uint64    `json:"submissions"`
	Correct      uint64    `json:"correct"`
	Participants uint64    `json:"participants"`
}

// AdminDashboard summarizes the platform for administrators.
type AdminDashboard struct {
	Users              int64           `json:"users"`
	Competitions       int64           `json:"competitions"`
	ActiveCompetitions int64           `json:"active_competitions"`
	Questions          int64           `json:"questions"`
	Riddles            int64           `json:"riddles"`
	Entries            int64           `json:"leaderboard_entries"`
	PendingReminders   int64           `json:"pending_reminders"`
	Activity           []DailyActivity `json:"activity"`
	QueueDepth         int             `json:"queue_depth"`
}
