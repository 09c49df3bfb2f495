package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"smartstudy-backend/internal/database"
	"smartstudy-backend/internal/models"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

const userColumns = `id, name, email, password_hash, profile_image, preferences, created_at, updated_at`

func (r *UserRepo) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, name, email, password_hash, profile_image, preferences)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	user.ID = uuid.New()
	err := database.QuerierFromCtx(ctx, r.pool).QueryRow(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordHash, user.ProfileImage, user.Preferences,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	return mapError(err, "user", user.ID)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	err := database.QuerierFromCtx(ctx, r.pool).QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = $1", email,
	).Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.ProfileImage, &user.Preferences,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err, "user", uuid.Nil)
	}
	return user, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user := &models.User{}
	err := database.QuerierFromCtx(ctx, r.pool).QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = $1", id,
	).Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.ProfileImage, &user.Preferences,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err, "user", id)
	}
	return user, nil
}

func (r *UserRepo) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	tag, err := database.QuerierFromCtx(ctx, r.pool).Exec(ctx,
		"UPDATE users SET name = $1, email = $2, profile_image = $3, preferences = $4, updated_at = $5 WHERE id = $6",
		user.Name, user.Email, user.ProfileImage, user.Preferences, user.UpdatedAt, user.ID,
	)
	if err != nil {
		return mapError(err, "user", user.ID)
	}
	return expectOne(tag, "user", user.ID)
}

// Delete removes the user; topics, sessions, quizzes and tutor history cascade.
func (r *UserRepo) Delete(ctx context.Context, userID uuid.UUID) error {
	tag, err := database.QuerierFromCtx(ctx, r.pool).Exec(ctx, "DELETE FROM users WHERE id = $1", userID)
	if err != nil {
		return mapError(err, "user", userID)
	}
	return expectOne(tag, "user", userID)
}
