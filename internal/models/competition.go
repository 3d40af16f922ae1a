package models

import "time"

// CompetitionStatus is derived from the competition's time window.
type CompetitionStatus string

const (
	CompetitionUpcoming CompetitionStatus = "upcoming"
	CompetitionActive   CompetitionStatus = "active"
	CompetitionPast     CompetitionStatus = "past"
)

// Competition is a timed set of question/riddle rounds.
type Competition struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	StartTime   time.Time         `json:"start_time"`
	EndTime     time.Time         `json:"end_time"`
	CreatedAt   time.Time         `json:"created_at"`
	Status      CompetitionStatus `json:"status"`
}

// StatusAt returns the status of the competition at the given instant.
// The window is half-open: [StartTime, EndTime).
func (c *Competition) StatusAt(now time.Time) CompetitionStatus {
	switch {
	case now.Before(c.StartTime):
		return CompetitionUpcoming
	case now.Before(c.EndTime):
		return CompetitionActive
	default:
		return CompetitionPast
	}
}

// QuestionInstance is a question scheduled inside a competition.
type QuestionInstance struct {
	ID            int64  `json:"id"`
	CompetitionID int64  `json:"competition_id"`
	QuestionID    int64  `json:"question_id"`
	Position      int    `json:"position"`
	Points        int    `json:"points"`
	Title         string `json:"title"`
	Body          string `json:"body,omitempty"`
}

// RiddleInstance is a riddle scheduled inside a competition.
type RiddleInstance struct {
	ID            int64  `json:"id"`
	CompetitionID int64  `json:"competition_id"`
	RiddleID      int64  `json:"riddle_id"`
	Position      int    `json:"position"`
	Points        int    `json:"points"`
	Title         string `json:"title"`
	Body          string `json:"body,omitempty"`
}

// CompetitionRound pairs the question and riddle that share a position.
type CompetitionRound struct {
	Position int              `json:"position"`
	Question QuestionInstance `json:"question"`
	Riddle   RiddleInstance   `json:"riddle"`
}

// CompetitionDetail is a competition with its rounds. Rounds are only
// exposed once the competition has started.
type CompetitionDetail struct {
	Competition
	Rounds []CompetitionRound `json:"rounds"`
}

// Reminder is a scheduled "competition starts soon" email.
type Reminder struct {
	ID            int64     `json:"id"`
	CompetitionID int64     `json:"competition_id"`
	SendAt        time.Time `json:"send_at"`
	Attempts      int       `json:"attempts"`
}
