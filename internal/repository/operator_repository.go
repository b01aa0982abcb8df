package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/enrolldesk/enroll-api/internal/models"
)

// OperatorRepository looks up admin operators for authentication.
type OperatorRepository struct {
	db *sqlx.DB
}

// NewOperatorRepository constructs an OperatorRepository.
func NewOperatorRepository(db *sqlx.DB) *OperatorRepository {
	return &OperatorRepository{db: db}
}

// FindByEmail fetches an operator by email address.
func (r *OperatorRepository) FindByEmail(ctx context.Context, email string) (*models.Operator, error) {
	const query = `SELECT id, email, full_name, password_hash, active, created_at, updated_at
        FROM operators WHERE email = $1`
	var operator models.Operator
	if err := r.db.GetContext(ctx, &operator, query, email); err != nil {
		return nil, err
	}
	return &operator, nil
}

// FindByID fetches an operator by identifier.
func (r *OperatorRepository) FindByID(ctx context.Context, id string) (*models.Operator, error) {
	const query = `SELECT id, email, full_name, password_hash, active, created_at, updated_at
        FROM operators WHERE id = $1`
	var operator models.Operator
	if err := r.db.GetContext(ctx, &operator, query, id); err != nil {
		return nil, err
	}
	return &operator, nil
}
