package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// ApprovalAction enumerates gated mutations.
type ApprovalAction string

const (
	ApprovalActionDelete ApprovalAction = "DELETE"
	ApprovalActionUpdate ApprovalAction = "UPDATE"
)

// ApprovalStatus captures workflow states for approval requests.
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "PENDING"
	ApprovalStatusApproved ApprovalStatus = "APPROVED"
	ApprovalStatusRejected ApprovalStatus = "REJECTED"
)

// ApprovalRequest is a deferred mutation awaiting an admin decision.
type ApprovalRequest struct {
	ID             string             `db:"id" json:"id"`
	Action         ApprovalAction     `db:"action" json:"action"`
	EntityType     string             `db:"entity_type" json:"entity_type"`
	EntityID       string             `db:"entity_id" json:"entity_id"`
	EntityName     string             `db:"entity_name" json:"entity_name"`
	Message        string             `db:"message" json:"message"`
	PendingChanges types.NullJSONText `db:"pending_changes" json:"pending_changes,omitempty"`
	Status         ApprovalStatus     `db:"status" json:"status"`
	RequestedBy    string             `db:"requested_by" json:"requested_by"`
	CompanyID      string             `db:"company_id" json:"company_id"`
	ReviewNote     *string            `db:"review_note" json:"review_note,omitempty"`
	ReviewedBy     *string            `db:"reviewed_by" json:"reviewed_by,omitempty"`
	CreatedAt      time.Time          `db:"created_at" json:"created_at"`
	ReviewedAt     *time.Time         `db:"reviewed_at" json:"reviewed_at,omitempty"`
}

// IsResolved reports whether the request left the pending state.
func (r *ApprovalRequest) IsResolved() bool {
	return r.Status != ApprovalStatusPending
}

// ApprovalFilter constrains listing queries.
type ApprovalFilter struct {
	Status      []ApprovalStatus
	CompanyID   string
	EntityType  string
	RequestedBy string
	Limit       int
	Offset      int
}
