package repository

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"smartstudy-backend/internal/database"
	"smartstudy-backend/internal/models"
)

const sessionColumns = `id, user_id, topic_id, title, date, start_time, end_time, subject, topic,
	priority, completed, comprehension_level, notes, created_at, updated_at`

type StudySessionRepo struct {
	pool *pgxpool.Pool
}

func NewStudySessionRepo(pool *pgxpool.Pool) *StudySessionRepo {
	return &StudySessionRepo{pool: pool}
}

func scanSession(row pgx.Row) (*models.StudySession, error) {
	s := &models.StudySession{}
	var date pgtype.Date
	var start, end pgtype.Time
	err := row.Scan(
		&s.ID, &s.UserID, &s.TopicID, &s.Title, &date, &start, &end, &s.Subject, &s.Topic,
		&s.Priority, &s.Completed, &s.ComprehensionLevel, &s.Notes, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.Date = dateFromPG(date)
	s.StartTime = timeOfDayFromPG(start)
	s.EndTime = timeOfDayFromPG(end)
	return s, nil
}

func (r *StudySessionRepo) Create(ctx context.Context, s *models.StudySession) error {
	s.ID = uuid.New()
	query := `INSERT INTO study_sessions (id, user_id, topic_id, title, date, start_time, end_time,
			subject, topic, priority, completed, comprehension_level, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at`

	q := database.QuerierFromCtx(ctx, r.pool)
	err := q.QueryRow(ctx, query,
		s.ID, s.UserID, s.TopicID, s.Title, dateToPG(s.Date),
		timeOfDayToPG(s.StartTime), timeOfDayToPG(s.EndTime),
		s.Subject, s.Topic, s.Priority, s.Completed, s.ComprehensionLevel, s.Notes,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	return mapError(err, "study session", s.ID)
}

func (r *StudySessionRepo) GetByID(ctx context.Context, id, userID uuid.UUID) (*models.StudySession, error) {
	q := database.QuerierFromCtx(ctx, r.pool)
	s, err := scanSession(q.QueryRow(ctx,
		"SELECT "+sessionColumns+" FROM study_sessions WHERE id = $1 AND user_id = $2", id, userID))
	if err != nil {
		return nil, mapError(err, "study session", id)
	}
	return s, nil
}

func (r *StudySessionRepo) ListByUser(ctx context.Context, userID uuid.UUID, skip, limit int) ([]*models.StudySession, error) {
	query, args, err := psql.Select(sessionColumns).
		From("study_sessions").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("date DESC NULLS LAST", "start_time DESC NULLS LAST", "created_at DESC").
		Offset(uint64(skip)).
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := database.QuerierFromCtx(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []*models.StudySession{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// Update replaces the session's own fields. The linked topic and its
// progress are left as they are.
func (r *StudySessionRepo) Update(ctx context.Context, s *models.StudySession) error {
	s.UpdatedAt = time.Now().UTC()
	tag, err := database.QuerierFromCtx(ctx, r.pool).Exec(ctx, `
		UPDATE study_sessions
		SET title = $1, date = $2, start_time = $3, end_time = $4, subject = $5, topic = $6,
			priority = $7, completed = $8, comprehension_level = $9, notes = $10, updated_at = $11
		WHERE id = $12 AND user_id = $13`,
		s.Title, dateToPG(s.Date), timeOfDayToPG(s.StartTime), timeOfDayToPG(s.EndTime),
		s.Subject, s.Topic, s.Priority, s.Completed, s.ComprehensionLevel, s.Notes, s.UpdatedAt,
		s.ID, s.UserID,
	)
	if err != nil {
		return mapError(err, "study session", s.ID)
	}
	return expectOne(tag, "study session", s.ID)
}

func (r *StudySessionRepo) Delete(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := database.QuerierFromCtx(ctx, r.pool).Exec(ctx,
		"DELETE FROM study_sessions WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return mapError(err, "study session", id)
	}
	return expectOne(tag, "study session", id)
}
