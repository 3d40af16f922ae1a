package logic

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/thinkly/thinkly-api/internal/models"
)

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestCompetitions(pg PgPool) *competitionService {
	svc := NewCompetitionService(pg, CompetitionConfig{
		ReminderLeadTimes: []time.Duration{24 * time.Hour, time.Hour},
	}, zap.NewNop().Sugar())
	cs := svc.(*competitionService)
	cs.now = func() time.Time { return testNow }
	return cs
}

func competitionRow(id int64, start, end time.Time) *mockRow {
	return rowOf(id, "Weekly", "desc", start, end, testNow.Add(-time.Hour))
}

func validRequest() models.CreateCompetitionRequest {
	return models.CreateCompetitionRequest{
		Name:      "Weekly",
		StartTime: testNow.Add(2 * time.Hour),
		EndTime:   testNow.Add(4 * time.Hour),
		Rounds: []models.RoundRequest{
			{QuestionID: 1, RiddleID: 1},
			{QuestionID: 2, RiddleID: 2, QuestionPoints: 50},
		},
	}
}

func TestValidateSchedule(t *testing.T) {
	svc := newTestCompetitions(&mockPgPool{})

	tests := []struct {
		name    string
		mutate  func(r *models.CreateCompetitionRequest)
		wantErr string
	}{
		{"valid", func(r *models.CreateCompetitionRequest) {}, ""},
		{"blank name", func(r *models.CreateCompetitionRequest) { r.Name = "  " }, "name is required"},
		{"end before start", func(r *models.CreateCompetitionRequest) { r.EndTime = r.StartTime }, "end time"},
		{"start in past", func(r *models.CreateCompetitionRequest) { r.StartTime = testNow.Add(-time.Minute) }, "past"},
		{"too long", func(r *models.CreateCompetitionRequest) { r.EndTime = r.StartTime.Add(8 * 24 * time.Hour) }, "at most"},
		{"no rounds", func(r *models.CreateCompetitionRequest) { r.Rounds = nil }, "at least one round"},
		{"repeated question", func(r *models.CreateCompetitionRequest) { r.Rounds[1].QuestionID = 1 }, "repeats question"},
		{"repeated riddle", func(r *models.CreateCompetitionRequest) { r.Rounds[1].RiddleID = 1 }, "repeats riddle"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			err := svc.validateSchedule(req, testNow)

			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if KindOf(err) != KindValidation || !strings.Contains(MessageOf(err), tt.wantErr) {
				t.Errorf("err = %v, want validation containing %q", err, tt.wantErr)
			}
		})
	}
}

// createTx answers the statements Create issues inside its transaction.
func createTx(overlap bool, missingQuestion int64) *mockTx {
	req := validRequest()
	return &mockTx{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			switch {
			case strings.Contains(sql, "SELECT EXISTS"):
				return rowOf(overlap)
			case strings.Contains(sql, "INSERT INTO competitions"):
				return competitionRow(11, req.StartTime, req.EndTime)
			case strings.Contains(sql, "INSERT INTO question_instances"):
				if args[1] == missingQuestion {
					return &mockRow{err: pgx.ErrNoRows}
				}
				return rowOf(int64(100)+args[1].(int64), 10, "question")
			case strings.Contains(sql, "INSERT INTO riddle_instances"):
				return rowOf(int64(200)+args[1].(int64), 5, "riddle")
			}
			return &mockRow{err: pgx.ErrNoRows}
		},
	}
}

func countStatements(tx *mockTx, fragment string) int {
	n := 0
	for _, s := range tx.Statements {
		if strings.Contains(s, fragment) {
			n++
		}
	}
	return n
}

func TestCompetitionCreate(t *testing.T) {
	tx := createTx(false, 0)
	svc := newTestCompetitions(&mockPgPool{
		BeginFunc: func(ctx context.Context) (pgx.Tx, error) { return tx, nil },
	})

	detail, err := svc.Create(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if detail.ID != 11 || detail.Status != models.CompetitionUpcoming {
		t.Errorf("competition = %+v", detail.Competition)
	}
	if len(detail.Rounds) != 2 || detail.Rounds[1].Position != 2 || detail.Rounds[1].Question.ID != 102 || detail.Rounds[1].Riddle.ID != 202 {
		t.Errorf("rounds = %+v", detail.Rounds)
	}
	if !tx.Committed {
		t.Error("transaction not committed")
	}
	if countStatements(tx, "LOCK TABLE") != 1 {
		t.Error("competitions table not locked")
	}
	// Starts in 2h: the 24h reminder is already due and is skipped.
	if n := countStatements(tx, "competition_reminders"); n != 1 {
		t.Errorf("scheduled %d reminders, want 1", n)
	}
}

func TestCompetitionCreateOverlap(t *testing.T) {
	tx := createTx(true, 0)
	svc := newTestCompetitions(&mockPgPool{
		BeginFunc: func(ctx context.Context) (pgx.Tx, error) { return tx, nil },
	})

	_, err := svc.Create(context.Background(), validRequest())
	if KindOf(err) != KindConflict {
		t.Errorf("err = %v, want conflict", err)
	}
	if tx.Committed || !tx.RolledBack {
		t.Error("overlapping create was not rolled back")
	}
}

func TestCompetitionCreateMissingQuestion(t *testing.T) {
	tx := createTx(false, 2)
	svc := newTestCompetitions(&mockPgPool{
		BeginFunc: func(ctx context.Context) (pgx.Tx, error) { return tx, nil },
	})

	_, err := svc.Create(context.Background(), validRequest())
	if KindOf(err) != KindNotFound || !strings.Contains(MessageOf(err), "question 2") {
		t.Errorf("err = %v, want question 2 not found", err)
	}
	if tx.Committed {
		t.Error("transaction committed after failure")
	}
}

func TestCompetitionGetHidesRoundsUntilStart(t *testing.T) {
	roundQueries := 0
	start := testNow.Add(time.Hour)
	svc := newTestCompetitions(&mockPgPool{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return competitionRow(4, start, start.Add(time.Hour))
		},
		QueryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			roundQueries++
			return &mockRows{rows: [][]any{{1, int64(1), int64(7), 10, "q", "qbody", int64(2), int64(8), 5, "r", "rbody"}}}, nil
		},
	})

	detail, err := svc.Get(context.Background(), 4)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if detail.Status != models.CompetitionUpcoming || len(detail.Rounds) != 0 || roundQueries != 0 {
		t.Errorf("upcoming competition leaked rounds: %+v (queries=%d)", detail, roundQueries)
	}

	start = testNow.Add(-time.Minute)
	detail, err = svc.Get(context.Background(), 4)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(detail.Rounds) != 1 || detail.Rounds[0].Riddle.RiddleID != 8 || detail.Rounds[0].Question.CompetitionID != 4 {
		t.Errorf("rounds = %+v", detail.Rounds)
	}
}

func TestCompetitionCurrentNone(t *testing.T) {
	svc := newTestCompetitions(&mockPgPool{})
	if _, err := svc.Current(context.Background()); KindOf(err) != KindNotFound {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestCompetitionList(t *testing.T) {
	var gotSQL string
	svc := newTestCompetitions(&mockPgPool{
		QueryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			gotSQL = sql
			return &mockRows{rows: [][]any{
				{int64(1), "Live", "", testNow.Add(-time.Hour), testNow.Add(time.Hour), testNow},
			}}, nil
		},
	})

	list, err := svc.List(context.Background(), "active")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 1 || list[0].Status != models.CompetitionActive {
		t.Errorf("list = %+v", list)
	}
	if !strings.Contains(gotSQL, "start_time <= $1") || !strings.Contains(gotSQL, "end_time > $2") {
		t.Errorf("unexpected query: %s", gotSQL)
	}

	if _, err := svc.List(context.Background(), "soon"); KindOf(err) != KindValidation {
		t.Errorf("unknown status: err = %v", err)
	}
}

func TestCompetitionDelete(t *testing.T) {
	svc := newTestCompetitions(&mockPgPool{
		ExecFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			return pgconn.NewCommandTag("DELETE 0"), nil
		},
	})
	if err := svc.Delete(context.Background(), 9); KindOf(err) != KindNotFound {
		t.Errorf("err = %v, want not found", err)
	}
}
