package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/consultancy-crm-api/internal/models"
)

const followUpSelect = `SELECT f.id, f.enquiry_id, COALESCE(e.candidate_name, '') AS student_name, f.type, f.scheduled_for,
       f.status, f.priority, f.notes, f.assigned_to, f.created_by, f.outcome_status, f.admission_possibility,
       f.company_id, f.created_at, f.updated_at
FROM follow_ups f
LEFT JOIN enquiries e ON e.id = f.enquiry_id`

// FollowUpRepository persists follow-ups.
type FollowUpRepository struct {
	db *sqlx.DB
}

// NewFollowUpRepository constructs the repository.
func NewFollowUpRepository(db *sqlx.DB) *FollowUpRepository {
	return &FollowUpRepository{db: db}
}

// List returns follow-ups matching the filter ordered by schedule.
func (r *FollowUpRepository) List(ctx context.Context, filter models.FollowUpFilter) ([]models.FollowUp, error) {
	builder := strings.Builder{}
	builder.WriteString(followUpSelect)

	args := make([]interface{}, 0, 6)
	conditions := make([]string, 0, 4)
	if filter.CompanyID != "" {
		args = append(args, filter.CompanyID)
		conditions = append(conditions, fmt.Sprintf("f.company_id = $%d", len(args)))
	}
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("f.status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.AssignedTo != "" {
		args = append(args, filter.AssignedTo)
		conditions = append(conditions, fmt.Sprintf("f.assigned_to = $%d", len(args)))
	}
	if filter.EnquiryID != "" {
		args = append(args, filter.EnquiryID)
		conditions = append(conditions, fmt.Sprintf("f.enquiry_id = $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY f.scheduled_for ASC")

	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var items []models.FollowUp
	if err := r.db.SelectContext(ctx, &items, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list follow-ups: %w", err)
	}
	return items, nil
}

// GetByID fetches a follow-up by identifier.
func (r *FollowUpRepository) GetByID(ctx context.Context, id string) (*models.FollowUp, error) {
	var item models.FollowUp
	if err := r.db.GetContext(ctx, &item, followUpSelect+` WHERE f.id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get follow-up: %w", err)
	}
	return &item, nil
}

// Create inserts a new follow-up.
func (r *FollowUpRepository) Create(ctx context.Context, item *models.FollowUp) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.Status == "" {
		item.Status = models.FollowUpStatusPending
	}
	if item.Priority == "" {
		item.Priority = models.FollowUpPriorityMedium
	}
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	const query = `INSERT INTO follow_ups
	(id, enquiry_id, type, scheduled_for, status, priority, notes, assigned_to, created_by, company_id, created_at, updated_at)
	VALUES (:id, :enquiry_id, :type, :scheduled_for, :status, :priority, :notes, :assigned_to, :created_by, :company_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("create follow-up: %w", err)
	}
	return nil
}

// Reschedule moves the follow-up and returns it to Pending regardless of its current status.
func (r *FollowUpRepository) Reschedule(ctx context.Context, id string, scheduledFor time.Time) error {
	const query = `UPDATE follow_ups SET scheduled_for = $2, status = $3, updated_at = $4 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, scheduledFor, models.FollowUpStatusPending, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("reschedule follow-up: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check reschedule rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CompleteFollowUpParams groups the completion outcome with its closing comment.
type CompleteFollowUpParams struct {
	ID                   string
	OutcomeStatus        *string
	AdmissionPossibility *int
	Comment              *models.FollowUpComment
}

// Complete marks the follow-up Completed and stores the completion comment atomically.
// sql.ErrNoRows signals the follow-up was already completed (or vanished).
func (r *FollowUpRepository) Complete(ctx context.Context, params CompleteFollowUpParams) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin follow-up completion: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	const updateQuery = `UPDATE follow_ups
	SET status = $2, outcome_status = $3, admission_possibility = $4, updated_at = $5
	WHERE id = $1 AND status <> $2`
	result, err := tx.ExecContext(ctx, updateQuery, params.ID, models.FollowUpStatusCompleted, params.OutcomeStatus, params.AdmissionPossibility, now)
	if err != nil {
		return fmt.Errorf("complete follow-up: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check completion rows: %w", err)
	}
	if rows == 0 {
		err = sql.ErrNoRows
		return err
	}

	comment := params.Comment
	prepareComment(comment, now)
	comment.IsCompletionComment = true
	if _, err = tx.NamedExecContext(ctx, insertCommentQuery, comment); err != nil {
		return fmt.Errorf("insert completion comment: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit follow-up completion: %w", err)
	}
	return nil
}

// MarkMissed flips Pending follow-ups scheduled before the cutoff to Missed.
func (r *FollowUpRepository) MarkMissed(ctx context.Context, before time.Time) (int64, error) {
	const query = `UPDATE follow_ups SET status = $1, updated_at = $2 WHERE status = $3 AND scheduled_for < $4`
	result, err := r.db.ExecContext(ctx, query, models.FollowUpStatusMissed, time.Now().UTC(), models.FollowUpStatusPending, before)
	if err != nil {
		return 0, fmt.Errorf("mark missed follow-ups: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check missed rows: %w", err)
	}
	return rows, nil
}
