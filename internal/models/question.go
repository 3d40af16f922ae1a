package models

import "time"

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Question is a coding problem from the question bank.
type Question struct {
	ID         int64      `json:"id"`
	Title      string     `json:"title"`
	Body       string     `json:"body"`
	Answer     string     `json:"answer,omitempty"`
	Difficulty Difficulty `json:"difficulty"`
	Points     int        `json:"points"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Riddle is a short puzzle paired with a question in each round.
type Riddle struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Answer    string    `json:"answer,omitempty"`
	Hint      string    `json:"hint,omitempty"`
	Points    int       `json:"points"`
	CreatedAt time.Time `json:"created_at"`
}

// QuestionFilter narrows question and riddle listings.
type QuestionFilter struct {
	Difficulty Difficulty
	Search     string
	Page       int
	Limit      int
}
