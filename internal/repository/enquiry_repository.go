package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/consultancy-crm-api/internal/models"
)

const enquiryColumns = `id, candidate_name, course_interested, mobile, email, father_name, school_name, status, company_id, created_by, created_at`

// EnquiryRepository handles persistence of enquiries.
type EnquiryRepository struct {
	db *sqlx.DB
}

// NewEnquiryRepository constructs the repository.
func NewEnquiryRepository(db *sqlx.DB) *EnquiryRepository {
	return &EnquiryRepository{db: db}
}

// FindByID fetches an enquiry by identifier.
func (r *EnquiryRepository) FindByID(ctx context.Context, id string) (*models.Enquiry, error) {
	var item models.Enquiry
	if err := r.db.GetContext(ctx, &item, `SELECT `+enquiryColumns+` FROM enquiries WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find enquiry: %w", err)
	}
	return &item, nil
}

// ListByCreator returns enquiries created by the user within the company, newest first.
func (r *EnquiryRepository) ListByCreator(ctx context.Context, companyID, userID string) ([]models.Enquiry, error) {
	const query = `SELECT ` + enquiryColumns + ` FROM enquiries WHERE company_id = $1 AND created_by = $2 ORDER BY created_at DESC`
	var items []models.Enquiry
	if err := r.db.SelectContext(ctx, &items, query, companyID, userID); err != nil {
		return nil, fmt.Errorf("list enquiries by creator: %w", err)
	}
	return items, nil
}

// Update replaces every mutable column of the enquiry, created_by included. A nil exec uses the pool.
func (r *EnquiryRepository) Update(ctx context.Context, exec sqlx.ExtContext, item *models.Enquiry) error {
	const query = `UPDATE enquiries SET candidate_name = :candidate_name, course_interested = :course_interested,
	mobile = :mobile, email = :email, father_name = :father_name, school_name = :school_name, status = :status,
	created_by = :created_by
	WHERE id = :id AND company_id = :company_id`
	return execAffectingOne(ctx, executor(r.db, exec), query, item, "update enquiry")
}

// Delete removes an enquiry.
func (r *EnquiryRepository) Delete(ctx context.Context, exec sqlx.ExtContext, id string) error {
	return deleteByID(ctx, executor(r.db, exec), "enquiries", id)
}

// Reassign hands the enquiry to toUserID only while fromUserID still owns it; sql.ErrNoRows otherwise.
func (r *EnquiryRepository) Reassign(ctx context.Context, id, companyID, fromUserID, toUserID string) error {
	return reassignOwner(ctx, r.db, "enquiries", id, companyID, fromUserID, toUserID)
}

func executor(db *sqlx.DB, exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return db
}

func execAffectingOne(ctx context.Context, exec sqlx.ExtContext, query string, arg interface{}, op string) error {
	result, err := sqlx.NamedExecContext(ctx, exec, query, arg)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows: %w", op, err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// deleteByID expects table to be a trusted constant.
func deleteByID(ctx context.Context, exec sqlx.ExtContext, table, id string) error {
	result, err := exec.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", table), id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check %s delete rows: %w", table, err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// reassignOwner expects table to be a trusted constant. The created_by guard makes the ownership
// check and the write a single statement.
func reassignOwner(ctx context.Context, db *sqlx.DB, table, id, companyID, fromUserID, toUserID string) error {
	query := fmt.Sprintf("UPDATE %s SET created_by = $1 WHERE id = $2 AND company_id = $3 AND created_by = $4", table)
	result, err := db.ExecContext(ctx, query, toUserID, id, companyID, fromUserID)
	if err != nil {
		return fmt.Errorf("reassign %s: %w", table, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check %s reassign rows: %w", table, err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
