package models

import "time"

// FollowUpType is the outreach channel of a follow-up.
type FollowUpType string

const (
	FollowUpTypeCall     FollowUpType = "Call"
	FollowUpTypeEmail    FollowUpType = "Email"
	FollowUpTypeSMS      FollowUpType = "SMS"
	FollowUpTypeWhatsApp FollowUpType = "WhatsApp"
)

// FollowUpStatus captures the follow-up lifecycle.
type FollowUpStatus string

const (
	FollowUpStatusPending   FollowUpStatus = "Pending"
	FollowUpStatusCompleted FollowUpStatus = "Completed"
	FollowUpStatusMissed    FollowUpStatus = "Missed"
)

// FollowUpPriority ranks follow-ups in the counselor queue.
type FollowUpPriority string

const (
	FollowUpPriorityHigh   FollowUpPriority = "High"
	FollowUpPriorityMedium FollowUpPriority = "Medium"
	FollowUpPriorityLow    FollowUpPriority = "Low"
)

// Admission possibility bounds, in percent.
const (
	AdmissionPossibilityMin = 0
	AdmissionPossibilityMax = 100
)

// FollowUp is a scheduled outreach task against an enquiry.
type FollowUp struct {
	ID                   string            `db:"id" json:"id"`
	EnquiryID            string            `db:"enquiry_id" json:"enquiry_id"`
	StudentName          string            `db:"student_name" json:"student_name"`
	Type                 FollowUpType      `db:"type" json:"type"`
	ScheduledFor         time.Time         `db:"scheduled_for" json:"scheduled_for"`
	Status               FollowUpStatus    `db:"status" json:"status"`
	Priority             FollowUpPriority  `db:"priority" json:"priority"`
	Notes                string            `db:"notes" json:"notes"`
	AssignedTo           *string           `db:"assigned_to" json:"assigned_to,omitempty"`
	CreatedBy            *string           `db:"created_by" json:"created_by,omitempty"`
	OutcomeStatus        *string           `db:"outcome_status" json:"outcome_status,omitempty"`
	AdmissionPossibility *int              `db:"admission_possibility" json:"admission_possibility,omitempty"`
	CompanyID            string            `db:"company_id" json:"company_id"`
	CreatedAt            time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time         `db:"updated_at" json:"updated_at"`
	Comments             []FollowUpComment `db:"-" json:"comments,omitempty"`
}

// IsAssignedTo reports whether userID is the follow-up assignee.
func (f *FollowUp) IsAssignedTo(userID string) bool {
	return f.AssignedTo != nil && *f.AssignedTo == userID
}

// FollowUpFilter constrains listing queries.
type FollowUpFilter struct {
	CompanyID  string
	Status     []FollowUpStatus
	AssignedTo string
	EnquiryID  string
	Limit      int
	Offset     int
}

// FollowUpDetail is a follow-up with its threaded comments.
type FollowUpDetail struct {
	FollowUp
	Thread []*CommentNode `json:"thread"`
}
