package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/consultancy-crm-api/internal/models"
)

const registrationColumns = `id, registration_no, student_name, mobile, email, father_name, course, company_id, created_by, created_at`

// RegistrationRepository handles persistence of registrations.
type RegistrationRepository struct {
	db *sqlx.DB
}

// NewRegistrationRepository constructs the repository.
func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// FindByID fetches a registration by identifier.
func (r *RegistrationRepository) FindByID(ctx context.Context, id string) (*models.Registration, error) {
	var item models.Registration
	if err := r.db.GetContext(ctx, &item, `SELECT `+registrationColumns+` FROM registrations WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find registration: %w", err)
	}
	return &item, nil
}

// ListByCreator returns registrations created by the user within the company, newest first.
func (r *RegistrationRepository) ListByCreator(ctx context.Context, companyID, userID string) ([]models.Registration, error) {
	const query = `SELECT ` + registrationColumns + ` FROM registrations WHERE company_id = $1 AND created_by = $2 ORDER BY created_at DESC`
	var items []models.Registration
	if err := r.db.SelectContext(ctx, &items, query, companyID, userID); err != nil {
		return nil, fmt.Errorf("list registrations by creator: %w", err)
	}
	return items, nil
}

// Update replaces every mutable column of the registration, created_by included. A nil exec uses the pool.
func (r *RegistrationRepository) Update(ctx context.Context, exec sqlx.ExtContext, item *models.Registration) error {
	const query = `UPDATE registrations SET registration_no = :registration_no, student_name = :student_name,
	mobile = :mobile, email = :email, father_name = :father_name, course = :course, created_by = :created_by
	WHERE id = :id AND company_id = :company_id`
	return execAffectingOne(ctx, executor(r.db, exec), query, item, "update registration")
}

// Delete removes a registration.
func (r *RegistrationRepository) Delete(ctx context.Context, exec sqlx.ExtContext, id string) error {
	return deleteByID(ctx, executor(r.db, exec), "registrations", id)
}

// Reassign hands the registration to toUserID only while fromUserID still owns it.
func (r *RegistrationRepository) Reassign(ctx context.Context, id, companyID, fromUserID, toUserID string) error {
	return reassignOwner(ctx, r.db, "registrations", id, companyID, fromUserID, toUserID)
}
