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

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const topicColumns = `id, user_id, title, subject, estimated_hours, actual_hours, status,
	last_studied, next_revision, created_at, updated_at`

type StudyTopicRepo struct {
	pool *pgxpool.Pool
}

// RevisionRecipient is a user with at least one topic due for revision.
type RevisionRecipient struct {
	UserID    uuid.UUID
	Email     string
	Name      string
	DueTopics []string
}

func NewStudyTopicRepo(pool *pgxpool.Pool) *StudyTopicRepo {
	return &StudyTopicRepo{pool: pool}
}

func scanTopic(row pgx.Row) (*models.StudyTopic, error) {
	t := &models.StudyTopic{}
	var status string
	var lastStudied, nextRevision pgtype.Date
	err := row.Scan(
		&t.ID, &t.UserID, &t.Title, &t.Subject, &t.EstimatedHours, &t.ActualHours, &status,
		&lastStudied, &nextRevision, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Status = models.TopicStatus(status)
	t.LastStudied = dateFromPG(lastStudied)
	t.NextRevision = dateFromPG(nextRevision)
	return t, nil
}

func collectTopics(rows pgx.Rows) ([]*models.StudyTopic, error) {
	defer rows.Close()
	topics := []*models.StudyTopic{}
	for rows.Next() {
		t, err := scanTopic(rows)
		if err != nil {
			return nil, err
		}
		topics = append(topics, t)
	}
	return topics, rows.Err()
}

func (r *StudyTopicRepo) Create(ctx context.Context, t *models.StudyTopic) error {
	t.ID = uuid.New()
	query := `INSERT INTO study_topics (id, user_id, title, subject, estimated_hours, actual_hours, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	q := database.QuerierFromCtx(ctx, r.pool)
	err := q.QueryRow(ctx, query,
		t.ID, t.UserID, t.Title, t.Subject, t.EstimatedHours, t.ActualHours, string(t.Status),
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	return mapError(err, "study topic", t.ID)
}

// GetByID returns the topic only when it belongs to userID.
func (r *StudyTopicRepo) GetByID(ctx context.Context, id, userID uuid.UUID) (*models.StudyTopic, error) {
	q := database.QuerierFromCtx(ctx, r.pool)
	t, err := scanTopic(q.QueryRow(ctx,
		"SELECT "+topicColumns+" FROM study_topics WHERE id = $1 AND user_id = $2", id, userID))
	if err != nil {
		return nil, mapError(err, "study topic", id)
	}
	return t, nil
}

// GetByIDForUpdate locks the topic row until the surrounding transaction
// ends, so concurrent sessions against one topic serialize their updates.
func (r *StudyTopicRepo) GetByIDForUpdate(ctx context.Context, id, userID uuid.UUID) (*models.StudyTopic, error) {
	q := database.QuerierFromCtx(ctx, r.pool)
	t, err := scanTopic(q.QueryRow(ctx,
		"SELECT "+topicColumns+" FROM study_topics WHERE id = $1 AND user_id = $2 FOR UPDATE", id, userID))
	if err != nil {
		return nil, mapError(err, "study topic", id)
	}
	return t, nil
}

func (r *StudyTopicRepo) ListByUser(ctx context.Context, userID uuid.UUID, skip, limit int) ([]*models.StudyTopic, error) {
	query, args, err := psql.Select(topicColumns).
		From("study_topics").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at ASC", "id ASC").
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
	return collectTopics(rows)
}

// ListDue returns the user's topics whose next revision falls on or before on.
func (r *StudyTopicRepo) ListDue(ctx context.Context, userID uuid.UUID, on models.Date) ([]*models.StudyTopic, error) {
	query, args, err := psql.Select(topicColumns).
		From("study_topics").
		Where(sq.Eq{"user_id": userID}).
		Where(sq.LtOrEq{"next_revision": dateToPG(&on)}).
		OrderBy("next_revision ASC", "title ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := database.QuerierFromCtx(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectTopics(rows)
}

// ListRecipientsDueOn returns every user with a topic scheduled for revision
// exactly on the given day, with the titles of those topics.
func (r *StudyTopicRepo) ListRecipientsDueOn(ctx context.Context, on models.Date) ([]RevisionRecipient, error) {
	query := `
		SELECT u.id, u.email, u.name, array_agg(t.title ORDER BY t.title)
		FROM study_topics t
		JOIN users u ON u.id = t.user_id
		WHERE t.next_revision = $1
		GROUP BY u.id, u.email, u.name
		ORDER BY u.id`

	rows, err := database.QuerierFromCtx(ctx, r.pool).Query(ctx, query, dateToPG(&on))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RevisionRecipient
	for rows.Next() {
		var rr RevisionRecipient
		if err := rows.Scan(&rr.UserID, &rr.Email, &rr.Name, &rr.DueTopics); err != nil {
			return nil, err
		}
		out = append(out, rr)
	}
	return out, rows.Err()
}

// UpdateProgress writes the fields a study session changes.
func (r *StudyTopicRepo) UpdateProgress(ctx context.Context, t *models.StudyTopic) error {
	t.UpdatedAt = time.Now().UTC()
	tag, err := database.QuerierFromCtx(ctx, r.pool).Exec(ctx, `
		UPDATE study_topics
		SET actual_hours = $1, status = $2, last_studied = $3, next_revision = $4, updated_at = $5
		WHERE id = $6 AND user_id = $7`,
		t.ActualHours, string(t.Status), dateToPG(t.LastStudied), dateToPG(t.NextRevision), t.UpdatedAt,
		t.ID, t.UserID,
	)
	if err != nil {
		return mapError(err, "study topic", t.ID)
	}
	return expectOne(tag, "study topic", t.ID)
}

func (r *StudyTopicRepo) Delete(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := database.QuerierFromCtx(ctx, r.pool).Exec(ctx,
		"DELETE FROM study_topics WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return mapError(err, "study topic", id)
	}
	return expectOne(tag, "study topic", id)
}
