// Command seeder fills a running API with demo questions, riddles and a
// competition built from them.
//
// The admin account must exist already; promote it with tools/promote_admin.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/thinkly/thinkly-api/internal/models"
)

type seeder struct {
	baseURL string
	token   string
	client  *http.Client
}

func main() {
	baseURL := flag.String("api", "http://localhost:8080/api/v1", "API base URL")
	identifier := flag.String("user", "admin", "admin username or email")
	password := flag.String("password", "", "admin password")
	startIn := flag.Duration("start-in", 2*time.Minute, "delay before the demo competition starts")
	duration := flag.Duration("duration", 2*time.Hour, "demo competition length")
	flag.Parse()

	s := &seeder{baseURL: *baseURL, client: &http.Client{Timeout: 10 * time.Second}}

	var auth models.AuthResponse
	if err := s.post("/auth/login", models.LoginRequest{Identifier: *identifier, Password: *password}, &auth); err != nil {
		log.Fatalf("Login failed: %v", err)
	}
	if !auth.User.IsAdmin {
		log.Fatalf("%s is not an admin", auth.User.Username)
	}
	s.token = auth.AccessToken

	var rounds []models.RoundRequest
	for i, q := range demoQuestions {
		var created models.Question
		if err := s.post("/admin/questions", q, &created); err != nil {
			log.Fatalf("Create question %q: %v", q.Title, err)
		}
		var riddle models.Riddle
		if err := s.post("/admin/riddles", demoRiddles[i], &riddle); err != nil {
			log.Fatalf("Create riddle %q: %v", demoRiddles[i].Title, err)
		}
		rounds = append(rounds, models.RoundRequest{QuestionID: created.ID, RiddleID: riddle.ID})
		fmt.Printf("Round %d: question #%d, riddle #%d\n", i+1, created.ID, riddle.ID)
	}

	start := time.Now().Add(*startIn).Truncate(time.Minute)
	var comp models.CompetitionDetail
	err := s.post("/admin/competitions", models.CreateCompetitionRequest{
		Name:        "Demo Cup " + start.Format("2006-01-02 15:04"),
		Description: "Seeded demo competition",
		StartTime:   start,
		EndTime:     start.Add(*duration),
		Rounds:      rounds,
	}, &comp)
	if err != nil {
		log.Fatalf("Create competition: %v", err)
	}

	fmt.Printf("✅ Competition #%d %q starts at %s\n", comp.ID, comp.Name, comp.StartTime.Format(time.RFC3339))
}

func (s *seeder) post(path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, s.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s: %s", resp.Status, bytes.TrimSpace(data))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

var demoQuestions = []models.QuestionRequest{
	{
		Title:      "Sum of Multiples",
		Body:       "Find the sum of all multiples of 3 or 5 below 1000.",
		Answer:     "233168",
		Difficulty: models.DifficultyEasy,
		Points:     10,
	},
	{
		Title:      "Longest Collatz Chain",
		Body:       "Which starting number under one million produces the longest Collatz chain?",
		Answer:     "837799",
		Difficulty: models.DifficultyMedium,
		Points:     20,
	},
	{
		Title:      "Lattice Paths",
		Body:       "How many monotonic lattice paths cross a 20x20 grid from the top left to the bottom right?",
		Answer:     "137846528820",
		Difficulty: models.DifficultyHard,
		Points:     30,
	},
}

var demoRiddles = []models.RiddleRequest{
	{Title: "Echo", Body: "I speak without a mouth and hear without ears. What am I?", Answer: "an echo", Points: 5},
	{Title: "Keys", Body: "What has keys but can't open locks?", Answer: "a piano", Hint: "It makes music", Points: 5},
	{Title: "Footsteps", Body: "The more you take, the more you leave behind. What are they?", Answer: "footsteps", Points: 5},
}
