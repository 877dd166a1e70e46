package models

import (
	"context"
	"time"
)

// AuditAction constants represent actions to be logged.
const (
	AuditActionFollowUpCreate     = "FOLLOW_UP_CREATE"
	AuditActionFollowUpReschedule = "FOLLOW_UP_RESCHEDULE"
	AuditActionFollowUpComplete   = "FOLLOW_UP_COMPLETE"
	AuditActionCommentDelete      = "FOLLOW_UP_COMMENT_DELETE"
	AuditActionApprovalCreate     = "APPROVAL_REQUEST_CREATE"
	AuditActionApprovalReview     = "APPROVAL_REQUEST_REVIEW"
	AuditActionEntityUpdate       = "ENTITY_UPDATE"
	AuditActionEntityDelete       = "ENTITY_DELETE"
	AuditActionTransfer           = "OWNERSHIP_TRANSFER"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	CompanyID  string    `db:"company_id" json:"company_id"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	OldValues  []byte    `db:"old_values" json:"old_values,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// RequestMeta identifies the client behind an audited mutation.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

type requestMetaKey struct{}

// WithRequestMeta attaches client metadata to ctx.
func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFrom returns the client metadata on ctx, falling back to a system caller
// identified by agent.
func RequestMetaFrom(ctx context.Context, agent string) RequestMeta {
	if meta, ok := ctx.Value(requestMetaKey{}).(RequestMeta); ok {
		return meta
	}
	return RequestMeta{IPAddress: "system", UserAgent: agent}
}
