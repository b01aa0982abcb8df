package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/enrolldesk/enroll-api/internal/models"
)

// ErrDuplicate signals that the store rejected a write because the phone or
// email column already holds the submitted value.
var ErrDuplicate = errors.New("enrollment: duplicate phone or email")

const pqUniqueViolation = "23505"

// EnrollmentRepository manages persistence for enrollment records. Every
// statement is parameterized; caller values never reach the SQL text.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs an EnrollmentRepository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// List returns every enrollment ordered newest first.
func (r *EnrollmentRepository) List(ctx context.Context) ([]models.Enrollment, error) {
	const query = `SELECT id, name, phone, email, school_name, class, admin_name, submission_date
        FROM enrollments ORDER BY id DESC`
	enrollments := []models.Enrollment{}
	if err := r.db.SelectContext(ctx, &enrollments, query); err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return enrollments, nil
}

// ExistsByPhoneOrEmail reports whether any record already holds the given
// phone or the given email. Matching either column alone is a conflict.
func (r *EnrollmentRepository) ExistsByPhoneOrEmail(ctx context.Context, phone, email string) (bool, error) {
	const query = `SELECT 1 FROM enrollments WHERE phone = $1 OR email = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, phone, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check phone/email: %w", err)
	}
	return true, nil
}

// Insert persists a new enrollment and fills in the store-assigned ID. The
// phone and email unique constraints are the authoritative duplicate signal;
// a violation surfaces as ErrDuplicate.
func (r *EnrollmentRepository) Insert(ctx context.Context, enrollment *models.Enrollment) error {
	const query = `INSERT INTO enrollments (name, phone, email, school_name, class, admin_name, submission_date)
        VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	err := r.db.QueryRowxContext(ctx, query,
		enrollment.Name,
		enrollment.Phone,
		enrollment.Email,
		enrollment.SchoolName,
		enrollment.Class,
		enrollment.AdminName,
		enrollment.SubmissionDate,
	).Scan(&enrollment.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			return ErrDuplicate
		}
		return fmt.Errorf("insert enrollment: %w", err)
	}
	return nil
}

// Update replaces the five business fields of the record matching id and
// returns the number of rows affected. ID, admin_name and submission_date
// are never touched.
func (r *EnrollmentRepository) Update(ctx context.Context, id int64, fields models.EnrollmentFields) (int64, error) {
	const query = `UPDATE enrollments SET name = $1, phone = $2, email = $3, school_name = $4, class = $5 WHERE id = $6`
	result, err := r.db.ExecContext(ctx, query,
		fields.Name,
		fields.Phone,
		fields.Email,
		fields.SchoolName,
		fields.Class,
		id,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			return 0, ErrDuplicate
		}
		return 0, fmt.Errorf("update enrollment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update enrollment rows: %w", err)
	}
	return affected, nil
}
