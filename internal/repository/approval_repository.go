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

const approvalColumns = `id, action, entity_type, entity_id, entity_name, message, pending_changes, status,
       requested_by, company_id, review_note, reviewed_by, created_at, reviewed_at`

// ApprovalRepository persists approval requests for gated mutations.
type ApprovalRepository struct {
	db *sqlx.DB
}

// NewApprovalRepository constructs the repository.
func NewApprovalRepository(db *sqlx.DB) *ApprovalRepository {
	return &ApprovalRepository{db: db}
}

// Create inserts a new approval request row.
func (r *ApprovalRepository) Create(ctx context.Context, req *models.ApprovalRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Status == "" {
		req.Status = models.ApprovalStatusPending
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO approval_requests
	(id, action, entity_type, entity_id, entity_name, message, pending_changes, status, requested_by, company_id, review_note, reviewed_by, created_at, reviewed_at)
	VALUES (:id, :action, :entity_type, :entity_id, :entity_name, :message, :pending_changes, :status, :requested_by, :company_id, :review_note, :reviewed_by, :created_at, :reviewed_at)`
	if _, err := r.db.NamedExecContext(ctx, query, req); err != nil {
		return fmt.Errorf("create approval request: %w", err)
	}
	return nil
}

// GetByID fetches an approval request by identifier.
func (r *ApprovalRepository) GetByID(ctx context.Context, id string) (*models.ApprovalRequest, error) {
	query := `SELECT ` + approvalColumns + ` FROM approval_requests WHERE id = $1`
	var req models.ApprovalRequest
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		return nil, err
	}
	return &req, nil
}

// List returns approval requests matching the filter, newest first.
func (r *ApprovalRepository) List(ctx context.Context, filter models.ApprovalFilter) ([]models.ApprovalRequest, error) {
	builder := strings.Builder{}
	builder.WriteString(`SELECT ` + approvalColumns + ` FROM approval_requests`)
	where, args := approvalConditions(filter)
	builder.WriteString(where)
	builder.WriteString(" ORDER BY created_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var items []models.ApprovalRequest
	if err := r.db.SelectContext(ctx, &items, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list approval requests: %w", err)
	}
	return items, nil
}

// CountPending counts unresolved requests visible through the filter.
func (r *ApprovalRepository) CountPending(ctx context.Context, filter models.ApprovalFilter) (int, error) {
	filter.Status = []models.ApprovalStatus{models.ApprovalStatusPending}
	where, args := approvalConditions(filter)
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM approval_requests`+where, args...); err != nil {
		return 0, fmt.Errorf("count pending approval requests: %w", err)
	}
	return total, nil
}

func approvalConditions(filter models.ApprovalFilter) (string, []interface{}) {
	args := make([]interface{}, 0, 6)
	conditions := make([]string, 0, 4)
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CompanyID != "" {
		args = append(args, filter.CompanyID)
		conditions = append(conditions, fmt.Sprintf("company_id = $%d", len(args)))
	}
	if filter.EntityType != "" {
		args = append(args, filter.EntityType)
		conditions = append(conditions, fmt.Sprintf("entity_type = $%d", len(args)))
	}
	if filter.RequestedBy != "" {
		args = append(args, filter.RequestedBy)
		conditions = append(conditions, fmt.Sprintf("requested_by = $%d", len(args)))
	}
	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// ResolveApprovalParams groups the columns written when a request is reviewed.
type ResolveApprovalParams struct {
	ID         string
	Status     models.ApprovalStatus
	ReviewedBy string
	ReviewedAt time.Time
	Note       *string
}

// Resolve records the review outcome. Only pending rows are touched; sql.ErrNoRows otherwise.
// Run inside a transaction the row stays locked until commit, so a concurrent reviewer sees no
// pending row.
func (r *ApprovalRepository) Resolve(ctx context.Context, exec sqlx.ExtContext, params ResolveApprovalParams) error {
	query := fmt.Sprintf(`UPDATE approval_requests
	SET status = :status, reviewed_by = :reviewed_by, reviewed_at = :reviewed_at, review_note = :review_note
	WHERE id = :id AND status = '%s'`, models.ApprovalStatusPending)
	result, err := sqlx.NamedExecContext(ctx, executor(r.db, exec), query, map[string]interface{}{
		"id":          params.ID,
		"status":      params.Status,
		"reviewed_by": params.ReviewedBy,
		"reviewed_at": params.ReviewedAt,
		"review_note": params.Note,
	})
	if err != nil {
		return fmt.Errorf("resolve approval request: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check approval update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
