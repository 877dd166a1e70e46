package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/consultancy-crm-api/internal/models"
)

const commentSelect = `SELECT c.id, c.follow_up_id, c.user_id, COALESCE(NULLIF(u.full_name, ''), u.username, '') AS author,
       c.comment, c.is_completion_comment, c.parent_comment_id, c.company_id, c.created_at
FROM follow_up_comments c
LEFT JOIN users u ON u.id = c.user_id`

const insertCommentQuery = `INSERT INTO follow_up_comments
	(id, follow_up_id, user_id, comment, is_completion_comment, parent_comment_id, company_id, created_at)
	VALUES (:id, :follow_up_id, :user_id, :comment, :is_completion_comment, :parent_comment_id, :company_id, :created_at)`

func prepareComment(comment *models.FollowUpComment, now time.Time) {
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = now
	}
}

// FollowUpCommentRepository persists follow-up thread comments.
type FollowUpCommentRepository struct {
	db *sqlx.DB
}

// NewFollowUpCommentRepository constructs the repository.
func NewFollowUpCommentRepository(db *sqlx.DB) *FollowUpCommentRepository {
	return &FollowUpCommentRepository{db: db}
}

// ListByFollowUp returns the flat comment list of a follow-up in creation order.
func (r *FollowUpCommentRepository) ListByFollowUp(ctx context.Context, followUpID string) ([]models.FollowUpComment, error) {
	var items []models.FollowUpComment
	if err := r.db.SelectContext(ctx, &items, commentSelect+` WHERE c.follow_up_id = $1 ORDER BY c.created_at ASC, c.id ASC`, followUpID); err != nil {
		return nil, fmt.Errorf("list follow-up comments: %w", err)
	}
	return items, nil
}

// GetByID fetches a single comment.
func (r *FollowUpCommentRepository) GetByID(ctx context.Context, id string) (*models.FollowUpComment, error) {
	var item models.FollowUpComment
	if err := r.db.GetContext(ctx, &item, commentSelect+` WHERE c.id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get follow-up comment: %w", err)
	}
	return &item, nil
}

// Create inserts a comment.
func (r *FollowUpCommentRepository) Create(ctx context.Context, comment *models.FollowUpComment) error {
	prepareComment(comment, time.Now().UTC())
	if _, err := r.db.NamedExecContext(ctx, insertCommentQuery, comment); err != nil {
		return fmt.Errorf("create follow-up comment: %w", err)
	}
	return nil
}

// Delete removes a single comment. Replies keep their parent reference.
func (r *FollowUpCommentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM follow_up_comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete follow-up comment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check comment delete rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
