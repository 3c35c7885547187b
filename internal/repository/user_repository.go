package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/qbank-backend/internal/apperror"
	"github.com/stemsi/qbank-backend/internal/database"
	"github.com/stemsi/qbank-backend/internal/model"
)

// UserRepository handles the employee records the question core reads from.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	return database.Conn(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO users (company_id, name, email, password_hash, role)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, reputation, created_at`,
		u.CompanyID, u.Name, u.Email, u.PasswordHash, u.Role,
	).Scan(&u.ID, &u.Reputation, &u.CreatedAt)
}

// GetByID retrieves a user by id.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	err := database.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT id, company_id, name, email, password_hash, role, reputation, created_at
		 FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.CompanyID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Reputation, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("user not found")
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// SetReputation stores a recomputed reputation.
func (r *UserRepository) SetReputation(ctx context.Context, id int64, reputation int) error {
	_, err := database.Conn(ctx, r.pool).Exec(ctx,
		`UPDATE users SET reputation = $2 WHERE id = $1`, id, reputation,
	)
	return err
}

// CompanyExists reports whether a company row exists.
func (r *UserRepository) CompanyExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := database.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM companies WHERE id = $1)`, id,
	).Scan(&exists)
	return exists, err
}
