package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"smartstudy-backend/internal/database"
	"smartstudy-backend/internal/models"
)

type AIInteractionRepo struct {
	pool *pgxpool.Pool
}

func NewAIInteractionRepo(pool *pgxpool.Pool) *AIInteractionRepo {
	return &AIInteractionRepo{pool: pool}
}

func (r *AIInteractionRepo) Create(ctx context.Context, i *models.AIInteraction) error {
	i.ID = uuid.New()
	err := database.QuerierFromCtx(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO ai_interactions (id, user_id, query, response, provider)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		i.ID, i.UserID, i.Query, i.Response, i.Provider,
	).Scan(&i.CreatedAt)
	return mapError(err, "ai interaction", i.ID)
}

func (r *AIInteractionRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.AIInteraction, error) {
	rows, err := database.QuerierFromCtx(ctx, r.pool).Query(ctx, `
		SELECT id, user_id, query, response, provider, created_at
		FROM ai_interactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*models.AIInteraction{}
	for rows.Next() {
		i := &models.AIInteraction{}
		if err := rows.Scan(&i.ID, &i.UserID, &i.Query, &i.Response, &i.Provider, &i.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}
