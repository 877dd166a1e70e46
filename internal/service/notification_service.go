package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/consultancy-crm-api/internal/models"
	appErrors "github.com/noah-isme/consultancy-crm-api/pkg/errors"
	"github.com/noah-isme/consultancy-crm-api/pkg/jobs"
	"github.com/noah-isme/consultancy-crm-api/pkg/mailer"
)

// JobTypeNotificationEmail is the queue job type for notification emails.
const JobTypeNotificationEmail = "notification_email"

type notificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	ListForUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error)
}

type userDirectory interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	ListAdmins(ctx context.Context, companyID string) ([]models.User, error)
}

// EmailSender delivers a single email.
type EmailSender interface {
	Send(ctx context.Context, msg mailer.Message) error
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// Notifier is the narrow contract workflow services use to inform users.
type Notifier interface {
	Notify(ctx context.Context, n *models.Notification)
	NotifyAdmins(ctx context.Context, companyID, excludeUserID string, template models.Notification)
}

// NotificationService stores in-app notifications and fans them out by email when configured.
type NotificationService struct {
	store  notificationStore
	users  userDirectory
	sender EmailSender
	queue  jobEnqueuer
	logger *zap.Logger
}

// NotificationServiceOption configures optional email delivery.
type NotificationServiceOption func(*NotificationService)

// WithEmailDelivery routes a copy of every notification to the user's email through the queue.
func WithEmailDelivery(sender EmailSender, queue jobEnqueuer) NotificationServiceOption {
	return func(s *NotificationService) {
		if sender != nil && queue != nil {
			s.sender = sender
			s.queue = queue
		}
	}
}

// NewNotificationService constructs the service.
func NewNotificationService(store notificationStore, users userDirectory, logger *zap.Logger, opts ...NotificationServiceOption) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &NotificationService{store: store, users: users, logger: logger}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Notify persists the notification and schedules its email copy. Failures are logged, never returned.
func (s *NotificationService) Notify(ctx context.Context, n *models.Notification) {
	if s == nil || n == nil || n.UserID == "" {
		return
	}
	if n.Type == "" {
		n.Type = models.NotificationTypeInfo
	}
	if err := s.store.Create(ctx, n); err != nil {
		s.logger.Warn("failed to persist notification", zap.String("user_id", n.UserID), zap.Error(err))
		return
	}
	if s.queue == nil {
		return
	}
	if err := s.queue.Enqueue(jobs.Job{Type: JobTypeNotificationEmail, Payload: *n}); err != nil {
		s.logger.Warn("failed to enqueue notification email", zap.String("notification_id", n.ID), zap.Error(err))
	}
}

// NotifyAdmins sends a copy of template to every admin able to act for the company.
func (s *NotificationService) NotifyAdmins(ctx context.Context, companyID, excludeUserID string, template models.Notification) {
	if s == nil || s.users == nil {
		return
	}
	admins, err := s.users.ListAdmins(ctx, companyID)
	if err != nil {
		s.logger.Warn("failed to resolve admins for notification", zap.String("company_id", companyID), zap.Error(err))
		return
	}
	for _, admin := range admins {
		if admin.ID == excludeUserID {
			continue
		}
		n := template
		n.ID = ""
		n.UserID = admin.ID
		if n.CompanyID == "" {
			n.CompanyID = companyID
		}
		s.Notify(ctx, &n)
	}
}

// ListForUser returns the caller's notifications.
func (s *NotificationService) ListForUser(ctx context.Context, actor *models.JWTClaims, unreadOnly bool, limit int) ([]models.Notification, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	items, err := s.store.ListForUser(ctx, actor.UserID, unreadOnly, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	if items == nil {
		items = []models.Notification{}
	}
	return items, nil
}

// HandleEmailJob is the queue handler delivering a notification by email.
func (s *NotificationService) HandleEmailJob(ctx context.Context, job jobs.Job) error {
	n, ok := job.Payload.(models.Notification)
	if !ok {
		s.logger.Error("unexpected notification job payload", zap.String("job_id", job.ID))
		return nil
	}
	if s.sender == nil || s.users == nil {
		return nil
	}
	user, err := s.users.FindByID(ctx, n.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("resolve notification recipient: %w", err)
	}
	if user.Email == "" || !user.Active {
		return nil
	}
	return s.sender.Send(ctx, mailer.Message{
		To:        user.Email,
		ToName:    user.DisplayName(),
		Subject:   n.Title,
		PlainText: n.Message,
	})
}
