package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/consultancy-crm-api/internal/models"
)

// EnrollmentRepository handles persistence of enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// FindByID fetches an enrollment by identifier.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	const query = `SELECT id, student_name, program_name, total_fees, status, company_id, created_by, created_at FROM enrollments WHERE id = $1`
	var item models.Enrollment
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find enrollment: %w", err)
	}
	return &item, nil
}

// Update replaces the mutable columns of an enrollment.
func (r *EnrollmentRepository) Update(ctx context.Context, exec sqlx.ExtContext, item *models.Enrollment) error {
	const query = `UPDATE enrollments SET student_name = :student_name, program_name = :program_name,
	total_fees = :total_fees, status = :status, created_by = :created_by
	WHERE id = :id AND company_id = :company_id`
	return execAffectingOne(ctx, executor(r.db, exec), query, item, "update enrollment")
}

// Delete removes an enrollment.
func (r *EnrollmentRepository) Delete(ctx context.Context, exec sqlx.ExtContext, id string) error {
	return deleteByID(ctx, executor(r.db, exec), "enrollments", id)
}
