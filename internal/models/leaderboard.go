package models

import (
	"fmt"
	"math"
	"strings"
)

// LeaderboardEntry is one participant's result within one competition.
// Rank is never stored; it is derived from TotalScore at read time.
type LeaderboardEntry struct {
	CompetitionID   int64    `json:"competition_id"`
	CompetitionName string   `json:"competition_name,omitempty"`
	UserID          *int64   `json:"user_id,omitempty"`
	DisplayName     string   `json:"display_name"`
	TotalScore      int      `json:"total_score"`
	ProblemsSolved  int      `json:"problems_solved"`
	ElapsedTime     *float64 `json:"elapsed_time,omitempty"` // minutes
}

// Elapsed returns the elapsed minutes, or 0 when none was recorded.
func (e LeaderboardEntry) Elapsed() float64 {
	if e.ElapsedTime == nil {
		return 0
	}
	return *e.ElapsedTime
}

// IsUser reports whether the entry belongs to the given account.
func (e LeaderboardEntry) IsUser(userID int64) bool {
	return e.UserID != nil && *e.UserID == userID
}

// Validate checks the invariants every stored entry must satisfy.
func (e LeaderboardEntry) Validate() error {
	switch {
	case e.UserID == nil && strings.TrimSpace(e.DisplayName) == "":
		return &InvalidEntryError{CompetitionID: e.CompetitionID, Field: "display_name", Reason: "entry has neither a user nor a display name"}
	case e.TotalScore < 0:
		return &InvalidEntryError{CompetitionID: e.CompetitionID, UserID: e.UserID, Field: "total_score", Reason: "negative score"}
	case e.ProblemsSolved < 0:
		return &InvalidEntryError{CompetitionID: e.CompetitionID, UserID: e.UserID, Field: "problems_solved", Reason: "negative count"}
	case e.ElapsedTime != nil && (math.IsNaN(*e.ElapsedTime) || math.IsInf(*e.ElapsedTime, 0) || *e.ElapsedTime < 0):
		return &InvalidEntryError{CompetitionID: e.CompetitionID, UserID: e.UserID, Field: "elapsed_time", Reason: "not a finite non-negative number"}
	}
	return nil
}

// LeaderboardRow mirrors the nullable columns of a leaderboard query.
// Convert it with Entry before handing it to the ranking code.
type LeaderboardRow struct {
	CompetitionID   int64
	CompetitionName string
	UserID          *int64
	AccountName     *string // username of the owning account, if it still exists
	StoredName      *string // display name captured when the entry was created
	TotalScore      *int64
	ProblemsSolved  *int64
	ElapsedTime     *float64
}

// Entry validates the row and builds a LeaderboardEntry from it.
func (r LeaderboardRow) Entry() (LeaderboardEntry, error) {
	if r.TotalScore == nil {
		return LeaderboardEntry{}, &InvalidEntryError{CompetitionID: r.CompetitionID, UserID: r.UserID, Field: "total_score", Reason: "missing"}
	}

	e := LeaderboardEntry{
		CompetitionID:   r.CompetitionID,
		CompetitionName: r.CompetitionName,
		UserID:          r.UserID,
		TotalScore:      int(*r.TotalScore),
		ElapsedTime:     r.ElapsedTime,
	}
	if r.ProblemsSolved != nil {
		e.ProblemsSolved = int(*r.ProblemsSolved)
	}

	switch {
	case r.AccountName != nil && *r.AccountName != "":
		e.DisplayName = *r.AccountName
	case r.StoredName != nil:
		e.DisplayName = *r.StoredName
	}

	if err := e.Validate(); err != nil {
		return LeaderboardEntry{}, err
	}
	return e, nil
}

// InvalidEntryError reports a leaderboard entry that violates its invariants.
type InvalidEntryError struct {
	CompetitionID int64
	UserID        *int64
	Field         string
	Reason        string
}

func (e *InvalidEntryError) Error() string {
	if e.UserID != nil {
		return fmt.Sprintf("invalid leaderboard entry (competition %d, user %d): %s: %s", e.CompetitionID, *e.UserID, e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid leaderboard entry (competition %d): %s: %s", e.CompetitionID, e.Field, e.Reason)
}

// RankedEntry is a LeaderboardEntry annotated with its computed rank.
type RankedEntry struct {
	Rank           int     `json:"rank"`
	CompetitionID  int64   `json:"competition_id"`
	UserID         *int64  `json:"user_id,omitempty"`
	DisplayName    string  `json:"display_name"`
	TotalScore     int     `json:"total_score"`
	ProblemsSolved int     `json:"problems_solved"`
	ElapsedTime    float64 `json:"elapsed_time"`
}

// LeaderboardWindow is the subset of a ranked board shown to one viewer.
type LeaderboardWindow struct {
	Entries       []RankedEntry `json:"entries"`
	ShowSeparator bool          `json:"show_separator"`
}

// CompetitionLeaderboard is the ranked board of one competition.
type CompetitionLeaderboard struct {
	CompetitionID   int64         `json:"competition_id"`
	CompetitionName string        `json:"competition_name"`
	Entries         []RankedEntry `json:"entries"`
}

// LeaderboardView is the response for the live competition board.
type LeaderboardView struct {
	Competition   *Competition  `json:"competition"`
	Entries       []RankedEntry `json:"entries"`
	ShowSeparator bool          `json:"show_separator"`
	Participants  int           `json:"participants"`
	Viewer        *RankedEntry  `json:"viewer,omitempty"`
}

// LeaderboardPage is one page of a full competition board.
type LeaderboardPage struct {
	CompetitionID int64         `json:"competition_id"`
	Entries       []RankedEntry `json:"entries"`
	Page          int           `json:"page"`
	Limit         int           `json:"limit"`
	Total         int           `json:"total"`
}
