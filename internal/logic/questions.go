package logic

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/thinkly/thinkly-api/internal/models"
)

type questionService struct {
	pg PgPool
}

func NewQuestionService(pg PgPool) QuestionService {
	return &questionService{pg: pg}
}

const (
	questionColumns = "id, title, body, answer, difficulty, points, created_at"
	riddleColumns   = "id, title, body, answer, hint, points, created_at"
)

func scanQuestion(row pgx.Row) (*models.Question, error) {
	var q models.Question
	if err := row.Scan(&q.ID, &q.Title, &q.Body, &q.Answer, &q.Difficulty, &q.Points, &q.CreatedAt); err != nil {
		return nil, err
	}
	return &q, nil
}

func scanRiddle(row pgx.Row) (*models.Riddle, error) {
	var r models.Riddle
	if err := row.Scan(&r.ID, &r.Title, &r.Body, &r.Answer, &r.Hint, &r.Points, &r.CreatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

// listQuery applies the shared filter and paging rules.
func listQuery(columns, table string, filter models.QuestionFilter) sq.SelectBuilder {
	q := psql.Select(columns).From(table).OrderBy("id DESC")
	if filter.Difficulty != "" && table == "questions" {
		q = q.Where(sq.Eq{"difficulty": filter.Difficulty})
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		pattern := "%" + escapeLike(s) + "%"
		q = q.Where(sq.Or{sq.ILike{"title": pattern}, sq.ILike{"body": pattern}})
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	return q.Limit(uint64(limit)).Offset(uint64((page - 1) * limit))
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (s *questionService) ListQuestions(ctx context.Context, filter models.QuestionFilter) ([]models.Question, error) {
	sql, args, err := listQuery(questionColumns, "questions", filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build questions query: %w", err)
	}
	rows, err := s.pg.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	list := []models.Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		list = append(list, *q)
	}
	return list, rows.Err()
}

func (s *questionService) GetQuestion(ctx context.Context, id int64) (*models.Question, error) {
	q, err := scanQuestion(s.pg.QueryRow(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = $1`, id))
	if err != nil {
		return nil, translatePgError(err, "question")
	}
	return q, nil
}

func (s *questionService) CreateQuestion(ctx context.Context, req models.QuestionRequest) (*models.Question, error) {
	q, err := scanQuestion(s.pg.QueryRow(ctx, `
		INSERT INTO questions (title, body, answer, difficulty, points)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+questionColumns,
		strings.TrimSpace(req.Title), req.Body, strings.TrimSpace(req.Answer), req.Difficulty, req.Points))
	if err != nil {
		return nil, translatePgError(err, "question")
	}
	return q, nil
}

func (s *questionService) UpdateQuestion(ctx context.Context, id int64, req models.QuestionRequest) (*models.Question, error) {
	q, err := scanQuestion(s.pg.QueryRow(ctx, `
		UPDATE questions
		SET title = $2, body = $3, answer = $4, difficulty = $5, points = $6
		WHERE id = $1
		RETURNING `+questionColumns,
		id, strings.TrimSpace(req.Title), req.Body, strings.TrimSpace(req.Answer), req.Difficulty, req.Points))
	if err != nil {
		return nil, translatePgError(err, "question")
	}
	return q, nil
}

// DeleteQuestion fails with a conflict while the question is scheduled in a
// competition (question_instances references it with ON DELETE RESTRICT).
func (s *questionService) DeleteQuestion(ctx context.Context, id int64) error {
	return deleteBankItem(ctx, s.pg, "questions", "question", id)
}

func (s *questionService) ListRiddles(ctx context.Context, filter models.QuestionFilter) ([]models.Riddle, error) {
	sql, args, err := listQuery(riddleColumns, "riddles", filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build riddles query: %w", err)
	}
	rows, err := s.pg.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query riddles: %w", err)
	}
	defer rows.Close()

	list := []models.Riddle{}
	for rows.Next() {
		r, err := scanRiddle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan riddle: %w", err)
		}
		list = append(list, *r)
	}
	return list, rows.Err()
}

func (s *questionService) GetRiddle(ctx context.Context, id int64) (*models.Riddle, error) {
	r, err := scanRiddle(s.pg.QueryRow(ctx, `SELECT `+riddleColumns+` FROM riddles WHERE id = $1`, id))
	if err != nil {
		return nil, translatePgError(err, "riddle")
	}
	return r, nil
}

func (s *questionService) CreateRiddle(ctx context.Context, req models.RiddleRequest) (*models.Riddle, error) {
	r, err := scanRiddle(s.pg.QueryRow(ctx, `
		INSERT INTO riddles (title, body, answer, hint, points)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+riddleColumns,
		strings.TrimSpace(req.Title), req.Body, strings.TrimSpace(req.Answer), req.Hint, req.Points))
	if err != nil {
		return nil, translatePgError(err, "riddle")
	}
	return r, nil
}

func (s *questionService) UpdateRiddle(ctx context.Context, id int64, req models.RiddleRequest) (*models.Riddle, error) {
	r, err := scanRiddle(s.pg.QueryRow(ctx, `
		UPDATE riddles
		SET title = $2, body = $3, answer = $4, hint = $5, points = $6
		WHERE id = $1
		RETURNING `+riddleColumns,
		id, strings.TrimSpace(req.Title), req.Body, strings.TrimSpace(req.Answer), req.Hint, req.Points))
	if err != nil {
		return nil, translatePgError(err, "riddle")
	}
	return r, nil
}

func (s *questionService) DeleteRiddle(ctx context.Context, id int64) error {
	return deleteBankItem(ctx, s.pg, "riddles", "riddle", id)
}

func deleteBankItem(ctx context.Context, pg PgPool, table, what string, id int64) error {
	sql, args, err := psql.Delete(table).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	tag, err := pg.Exec(ctx, sql, args...)
	if err != nil {
		if isPgCode(err, pgForeignKeyViolation) {
			return ErrConflict("%s is used by a competition", what)
		}
		return fmt.Errorf("delete %s: %w", what, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound("%s not found", what)
	}
	return nil
}
