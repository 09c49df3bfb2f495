package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"smartstudy-backend/internal/database"
	"smartstudy-backend/internal/models"
)

type QuizRepo struct {
	pool *pgxpool.Pool
}

func NewQuizRepo(pool *pgxpool.Pool) *QuizRepo {
	return &QuizRepo{pool: pool}
}

const quizColumns = `id, user_id, title, description, subject, topic, difficulty, questions, time_limit,
	created_at, updated_at`

func scanQuiz(row pgx.Row) (*models.Quiz, error) {
	q := &models.Quiz{}
	var questions []byte
	err := row.Scan(
		&q.ID, &q.UserID, &q.Title, &q.Description, &q.Subject, &q.Topic, &q.Difficulty, &questions,
		&q.TimeLimit, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(questions, &q.Questions); err != nil {
		return nil, fmt.Errorf("decode quiz %s questions: %w", q.ID, err)
	}
	return q, nil
}

func (r *QuizRepo) Create(ctx context.Context, q *models.Quiz) error {
	q.ID = uuid.New()
	if q.Questions == nil {
		q.Questions = []models.QuizQuestion{}
	}
	questions, err := json.Marshal(q.Questions)
	if err != nil {
		return err
	}

	query := `INSERT INTO quizzes (id, user_id, title, description, subject, topic, difficulty, questions, time_limit)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING created_at, updated_at`

	err = database.QuerierFromCtx(ctx, r.pool).QueryRow(ctx, query,
		q.ID, q.UserID, q.Title, q.Description, q.Subject, q.Topic, q.Difficulty, questions, q.TimeLimit,
	).Scan(&q.CreatedAt, &q.UpdatedAt)
	return mapError(err, "quiz", q.ID)
}

// GetVisible returns the quiz when it is owned by one of ownerIDs.
func (r *QuizRepo) GetVisible(ctx context.Context, id uuid.UUID, ownerIDs []uuid.UUID) (*models.Quiz, error) {
	query, args, err := psql.Select(quizColumns).
		From("quizzes").
		Where(sq.Eq{"id": id, "user_id": ownerIDs}).
		ToSql()
	if err != nil {
		return nil, err
	}
	q, err := scanQuiz(database.QuerierFromCtx(ctx, r.pool).QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapError(err, "quiz", id)
	}
	return q, nil
}

// ListVisible returns the quizzes owned by any of ownerIDs, oldest first.
func (r *QuizRepo) ListVisible(ctx context.Context, ownerIDs []uuid.UUID) ([]*models.Quiz, error) {
	query, args, err := psql.Select(quizColumns).
		From("quizzes").
		Where(sq.Eq{"user_id": ownerIDs}).
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := database.QuerierFromCtx(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	quizzes := []*models.Quiz{}
	for rows.Next() {
		q, err := scanQuiz(rows)
		if err != nil {
			return nil, err
		}
		quizzes = append(quizzes, q)
	}
	return quizzes, rows.Err()
}

func (r *QuizRepo) ExistsByTitle(ctx context.Context, userID uuid.UUID, title string) (bool, error) {
	var exists bool
	err := database.QuerierFromCtx(ctx, r.pool).QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM quizzes WHERE user_id = $1 AND title = $2)", userID, title,
	).Scan(&exists)
	return exists, err
}

// Quiz Attempts

// LatestAttempts returns the user's most recent attempt per quiz, keyed by quiz ID.
func (r *QuizRepo) LatestAttempts(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]*models.QuizAttempt, error) {
	rows, err := database.QuerierFromCtx(ctx, r.pool).Query(ctx, `
		SELECT DISTINCT ON (quiz_id) id, user_id, quiz_id, status, score, started_at, completed_at
		FROM quiz_attempts
		WHERE user_id = $1
		ORDER BY quiz_id, started_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID]*models.QuizAttempt)
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		out[a.QuizID] = a
	}
	return out, rows.Err()
}

func scanAttempt(row pgx.Row) (*models.QuizAttempt, error) {
	a := &models.QuizAttempt{}
	var status string
	if err := row.Scan(&a.ID, &a.UserID, &a.QuizID, &status, &a.Score, &a.StartedAt, &a.CompletedAt); err != nil {
		return nil, err
	}
	a.Status = models.QuizStatus(status)
	return a, nil
}

// LatestAttemptForUpdate locks and returns the user's newest attempt on the quiz.
func (r *QuizRepo) LatestAttemptForUpdate(ctx context.Context, userID, quizID uuid.UUID) (*models.QuizAttempt, error) {
	a, err := scanAttempt(database.QuerierFromCtx(ctx, r.pool).QueryRow(ctx, `
		SELECT id, user_id, quiz_id, status, score, started_at, completed_at
		FROM quiz_attempts
		WHERE user_id = $1 AND quiz_id = $2
		ORDER BY started_at DESC
		LIMIT 1
		FOR UPDATE`, userID, quizID))
	if err != nil {
		return nil, mapError(err, "quiz attempt", quizID)
	}
	return a, nil
}

func (r *QuizRepo) CreateAttempt(ctx context.Context, a *models.QuizAttempt) error {
	a.ID = uuid.New()
	if a.StartedAt.IsZero() {
		a.StartedAt = time.Now().UTC()
	}
	_, err := database.QuerierFromCtx(ctx, r.pool).Exec(ctx, `
		INSERT INTO quiz_attempts (id, user_id, quiz_id, status, score, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.UserID, a.QuizID, string(a.Status), a.Score, a.StartedAt, a.CompletedAt,
	)
	return mapError(err, "quiz attempt", a.ID)
}

func (r *QuizRepo) UpdateAttempt(ctx context.Context, a *models.QuizAttempt) error {
	tag, err := database.QuerierFromCtx(ctx, r.pool).Exec(ctx,
		"UPDATE quiz_attempts SET status = $1, score = $2, completed_at = $3 WHERE id = $4",
		string(a.Status), a.Score, a.CompletedAt, a.ID,
	)
	if err != nil {
		return mapError(err, "quiz attempt", a.ID)
	}
	return expectOne(tag, "quiz attempt", a.ID)
}
