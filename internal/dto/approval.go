package dto

import (
	"encoding/json"

	"github.com/noah-isme/consultancy-crm-api/internal/models"
)

// CreateApprovalRequest payload for deferring a gated mutation to an admin.
type CreateApprovalRequest struct {
	Action         models.ApprovalAction `json:"action" validate:"required,oneof=DELETE UPDATE"`
	EntityType     string                `json:"entity_type" validate:"required,max=50"`
	EntityID       string                `json:"entity_id" validate:"required"`
	EntityName     string                `json:"entity_name" validate:"required,max=255"`
	Message        string                `json:"message"`
	PendingChanges json.RawMessage       `json:"pending_changes,omitempty"`
}

// ReviewApprovalRequest captures the reviewer remark.
type ReviewApprovalRequest struct {
	Note string `json:"review_note"`
}

// ApprovalQuery mirrors supported listing filters.
type ApprovalQuery struct {
	Status     []models.ApprovalStatus
	EntityType string
	Limit      int
	Offset     int
}

// GatedMutationRequest is a delete or update attempt on a gated entity.
type GatedMutationRequest struct {
	EntityName string          `json:"entity_name"`
	Message    string          `json:"message"`
	Changes    json.RawMessage `json:"changes,omitempty"`
}

// RouteOutcome is the tagged result of a gated mutation.
type RouteOutcome struct {
	Route       models.MutationRoute    `json:"route"`
	Request     *models.ApprovalRequest `json:"approval_request,omitempty"`
	Entity      json.RawMessage         `json:"entity,omitempty"`
	Invalidates []models.Collection     `json:"-"`
}

// ApprovalResult carries a request after creation or review.
type ApprovalResult struct {
	Request     *models.ApprovalRequest `json:"approval_request"`
	Invalidates []models.Collection     `json:"-"`
}
