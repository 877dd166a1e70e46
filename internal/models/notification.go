package models

import "time"

// NotificationType classifies in-app notifications.
type NotificationType string

const (
	NotificationTypeInfo     NotificationType = "Info"
	NotificationTypeFollowUp NotificationType = "followup"
	NotificationTypeApproval NotificationType = "approval"
	NotificationTypeTransfer NotificationType = "transfer"
)

// Notification is an in-app message for a single user.
type Notification struct {
	ID        string           `db:"id" json:"id"`
	UserID    string           `db:"user_id" json:"user_id"`
	Title     string           `db:"title" json:"title"`
	Message   string           `db:"message" json:"message"`
	Type      NotificationType `db:"type" json:"type"`
	ActionURL string           `db:"action_url" json:"action_url,omitempty"`
	IsRead    bool             `db:"is_read" json:"is_read"`
	CompanyID string           `db:"company_id" json:"company_id"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}
