package models

import "time"

// FollowUpComment is a single post in a follow-up thread.
type FollowUpComment struct {
	ID                  string    `db:"id" json:"id"`
	FollowUpID          string    `db:"follow_up_id" json:"follow_up_id"`
	UserID              *string   `db:"user_id" json:"user,omitempty"`
	Author              string    `db:"author" json:"author"`
	Comment             string    `db:"comment" json:"comment"`
	IsCompletionComment bool      `db:"is_completion_comment" json:"is_completion_comment"`
	ParentCommentID     *string   `db:"parent_comment_id" json:"parent_comment,omitempty"`
	CompanyID           string    `db:"company_id" json:"company_id"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
}

// IsAuthoredBy reports whether userID wrote the comment.
func (c *FollowUpComment) IsAuthoredBy(userID string) bool {
	return c.UserID != nil && *c.UserID == userID
}

// CommentNode is a comment positioned in a thread with its direct replies.
type CommentNode struct {
	FollowUpComment
	Replies []*CommentNode `json:"replies"`
}
