package dto

import (
	"time"

	"github.com/noah-isme/consultancy-crm-api/internal/models"
)

// CreateFollowUpRequest schedules a follow-up against an enquiry.
type CreateFollowUpRequest struct {
	EnquiryID    string                  `json:"enquiry_id" validate:"required"`
	Type         models.FollowUpType     `json:"type" validate:"required,oneof=Call Email SMS WhatsApp"`
	ScheduledFor time.Time               `json:"scheduled_for" validate:"required"`
	Priority     models.FollowUpPriority `json:"priority" validate:"omitempty,oneof=High Medium Low"`
	Notes        string                  `json:"notes" validate:"max=4000"`
	AssignedTo   string                  `json:"assigned_to_id"`
}

// RescheduleFollowUpRequest moves a follow-up to a new slot.
type RescheduleFollowUpRequest struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// CompleteFollowUpRequest closes a follow-up with its outcome.
type CompleteFollowUpRequest struct {
	Comment              string `json:"comment"`
	OutcomeStatus        string `json:"outcome_status" validate:"max=50"`
	AdmissionPossibility *int   `json:"admission_possibility" validate:"omitempty,min=0,max=100"`
}

// AddCommentRequest posts to a follow-up thread, optionally as a reply.
type AddCommentRequest struct {
	Comment  string  `json:"comment"`
	ParentID *string `json:"parent_comment"`
}

// FollowUpQuery mirrors supported listing filters.
type FollowUpQuery struct {
	Status     []models.FollowUpStatus
	AssignedTo string
	EnquiryID  string
	Limit      int
	Offset     int
}

// FollowUpResult carries the refreshed state after a follow-up mutation.
type FollowUpResult struct {
	FollowUp    *models.FollowUpDetail  `json:"follow_up,omitempty"`
	Comment     *models.FollowUpComment `json:"comment,omitempty"`
	Invalidates []models.Collection     `json:"-"`
}
