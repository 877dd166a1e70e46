package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/consultancy-crm-api/internal/dto"
	"github.com/noah-isme/consultancy-crm-api/internal/models"
	"github.com/noah-isme/consultancy-crm-api/internal/repository"
	appErrors "github.com/noah-isme/consultancy-crm-api/pkg/errors"
)

type followUpStore interface {
	List(ctx context.Context, filter models.FollowUpFilter) ([]models.FollowUp, error)
	GetByID(ctx context.Context, id string) (*models.FollowUp, error)
	Create(ctx context.Context, item *models.FollowUp) error
	Reschedule(ctx context.Context, id string, scheduledFor time.Time) error
	Complete(ctx context.Context, params repository.CompleteFollowUpParams) error
	MarkMissed(ctx context.Context, before time.Time) (int64, error)
}

type followUpCommentStore interface {
	ListByFollowUp(ctx context.Context, followUpID string) ([]models.FollowUpComment, error)
	GetByID(ctx context.Context, id string) (*models.FollowUpComment, error)
	Create(ctx context.Context, comment *models.FollowUpComment) error
	Delete(ctx context.Context, id string) error
}

type enquiryReader interface {
	FindByID(ctx context.Context, id string) (*models.Enquiry, error)
}

type userLookup interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

var followUpInvalidates = []models.Collection{models.CollectionFollowUps}

// FollowUpService governs the follow-up lifecycle and its comment thread.
type FollowUpService struct {
	repo      followUpStore
	comments  followUpCommentStore
	enquiries enquiryReader
	users     userLookup
	audit     auditLogger
	notifier  Notifier
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	cacheTTL  time.Duration
	logger    *zap.Logger
}

// FollowUpServiceOption configures optional collaborators.
type FollowUpServiceOption func(*FollowUpService)

// WithFollowUpCache enables read-through caching of list and detail reads.
func WithFollowUpCache(cache *CacheService, ttl time.Duration) FollowUpServiceOption {
	return func(s *FollowUpService) {
		s.cache = cache
		s.cacheTTL = ttl
	}
}

// WithFollowUpNotifier sets the notifier used for assignment and completion messages.
func WithFollowUpNotifier(notifier Notifier) FollowUpServiceOption {
	return func(s *FollowUpService) {
		s.notifier = notifier
	}
}

// WithFollowUpMetrics records state transitions.
func WithFollowUpMetrics(metrics *MetricsService) FollowUpServiceOption {
	return func(s *FollowUpService) {
		s.metrics = metrics
	}
}

// NewFollowUpService constructs the service.
func NewFollowUpService(repo followUpStore, comments followUpCommentStore, enquiries enquiryReader, users userLookup, audit auditLogger, validate *validator.Validate, logger *zap.Logger, opts ...FollowUpServiceOption) *FollowUpService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &FollowUpService{
		repo:      repo,
		comments:  comments,
		enquiries: enquiries,
		users:     users,
		audit:     audit,
		validator: validate,
		logger:    logger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// List returns follow-ups visible to the actor.
func (s *FollowUpService) List(ctx context.Context, query dto.FollowUpQuery, actor *models.JWTClaims) ([]models.FollowUp, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	filter := models.FollowUpFilter{
		Status:     query.Status,
		AssignedTo: strings.TrimSpace(query.AssignedTo),
		EnquiryID:  strings.TrimSpace(query.EnquiryID),
		Limit:      query.Limit,
		Offset:     query.Offset,
	}
	if actor.Role != models.RoleDevAdmin {
		filter.CompanyID = actor.CompanyID
	}

	cacheKey := followUpListKey(filter)
	var cached []models.FollowUp
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return cached, nil
	}

	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list follow-ups")
	}
	if items == nil {
		items = []models.FollowUp{}
	}
	_ = s.cache.Set(ctx, cacheKey, items, s.cacheTTL)
	return items, nil
}

// GetDetails returns a follow-up with its threaded comments.
func (s *FollowUpService) GetDetails(ctx context.Context, id string, actor *models.JWTClaims) (*models.FollowUpDetail, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	cacheKey := CollectionKey(models.CollectionFollowUps, "detail", id)
	var cached models.FollowUpDetail
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		if !actor.SameCompany(cached.CompanyID) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "follow-up not found")
		}
		return &cached, nil
	}

	detail, err := s.loadDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.SameCompany(detail.CompanyID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "follow-up not found")
	}
	_ = s.cache.Set(ctx, cacheKey, detail, s.cacheTTL)
	return detail, nil
}

// Create schedules a new Pending follow-up against an enquiry.
func (s *FollowUpService) Create(ctx context.Context, req dto.CreateFollowUpRequest, actor *models.JWTClaims) (*dto.FollowUpResult, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid follow-up payload")
	}
	enquiry, err := s.enquiries.FindByID(ctx, req.EnquiryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "enquiry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enquiry")
	}
	if !actor.SameCompany(enquiry.CompanyID) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "enquiry not found")
	}

	assignee := strings.TrimSpace(req.AssignedTo)
	if assignee == "" {
		assignee = actor.UserID
	}
	if assignee != actor.UserID {
		user, err := s.users.FindByID(ctx, assignee)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrValidation, "assignee not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignee")
		}
		if !user.Active || user.CompanyID != enquiry.CompanyID {
			return nil, appErrors.Clone(appErrors.ErrValidation, "assignee must be an active member of the company")
		}
	}

	creator := actor.UserID
	item := &models.FollowUp{
		EnquiryID:    enquiry.ID,
		Type:         req.Type,
		ScheduledFor: req.ScheduledFor.UTC(),
		Status:       models.FollowUpStatusPending,
		Priority:     req.Priority,
		Notes:        strings.TrimSpace(req.Notes),
		AssignedTo:   &assignee,
		CreatedBy:    &creator,
		CompanyID:    enquiry.CompanyID,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create follow-up")
	}
	s.metrics.RecordFollowUpTransition(models.FollowUpStatusPending, 1)
	s.emitAudit(ctx, actor, models.AuditActionFollowUpCreate, item.ID, nil, item)

	if assignee != actor.UserID {
		s.notify(ctx, &models.Notification{
			UserID:    assignee,
			Title:     "Follow-up assigned",
			Message:   fmt.Sprintf("%s assigned you a %s follow-up for %s on %s", actorName(actor), item.Type, enquiry.CandidateName, item.ScheduledFor.Format(time.RFC1123)),
			Type:      models.NotificationTypeFollowUp,
			ActionURL: "/follow-ups/" + item.ID,
			CompanyID: item.CompanyID,
		})
	}
	return s.refreshed(ctx, item.ID, nil)
}

// Reschedule moves a follow-up to a new slot and returns it to Pending from any state.
func (s *FollowUpService) Reschedule(ctx context.Context, id string, req dto.RescheduleFollowUpRequest, actor *models.JWTClaims) (*dto.FollowUpResult, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if req.ScheduledFor.IsZero() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "scheduled_for is required")
	}
	current, err := s.load(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Reschedule(ctx, id, req.ScheduledFor.UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "follow-up not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reschedule follow-up")
	}
	s.metrics.RecordFollowUpTransition(models.FollowUpStatusPending, 1)
	s.emitAudit(ctx, actor, models.AuditActionFollowUpReschedule, id,
		map[string]interface{}{"scheduled_for": current.ScheduledFor, "status": current.Status},
		map[string]interface{}{"scheduled_for": req.ScheduledFor.UTC(), "status": models.FollowUpStatusPending})
	return s.refreshed(ctx, id, nil)
}

// Complete closes a follow-up with an outcome and a completion comment.
func (s *FollowUpService) Complete(ctx context.Context, id string, req dto.CompleteFollowUpRequest, actor *models.JWTClaims) (*dto.FollowUpResult, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	text := strings.TrimSpace(req.Comment)
	if text == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "comment is required")
	}
	if p := req.AdmissionPossibility; p != nil && (*p < models.AdmissionPossibilityMin || *p > models.AdmissionPossibilityMax) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "admission_possibility must be between 0 and 100")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid completion payload")
	}

	current, err := s.load(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if current.Status == models.FollowUpStatusCompleted {
		return nil, appErrors.Clone(appErrors.ErrConflict, "follow-up already completed")
	}
	if !canComplete(current, actor) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the assignee or an admin can complete this follow-up")
	}

	userID := actor.UserID
	comment := &models.FollowUpComment{
		FollowUpID: id,
		UserID:     &userID,
		Author:     actorName(actor),
		Comment:    text,
		CompanyID:  current.CompanyID,
	}
	params := repository.CompleteFollowUpParams{
		ID:                   id,
		OutcomeStatus:        optionalString(req.OutcomeStatus),
		AdmissionPossibility: req.AdmissionPossibility,
		Comment:              comment,
	}
	if err := s.repo.Complete(ctx, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "follow-up already completed")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to complete follow-up")
	}
	s.metrics.RecordFollowUpTransition(models.FollowUpStatusCompleted, 1)
	s.emitAudit(ctx, actor, models.AuditActionFollowUpComplete, id,
		map[string]interface{}{"status": current.Status},
		map[string]interface{}{"status": models.FollowUpStatusCompleted, "outcome_status": params.OutcomeStatus, "admission_possibility": params.AdmissionPossibility})

	if current.CreatedBy != nil && *current.CreatedBy != actor.UserID {
		s.notify(ctx, &models.Notification{
			UserID:    *current.CreatedBy,
			Title:     "Follow-up completed",
			Message:   fmt.Sprintf("%s completed the follow-up for %s", actorName(actor), current.StudentName),
			Type:      models.NotificationTypeFollowUp,
			ActionURL: "/follow-ups/" + id,
			CompanyID: current.CompanyID,
		})
	}
	return s.refreshed(ctx, id, comment)
}

// AddComment posts to the thread regardless of follow-up status.
func (s *FollowUpService) AddComment(ctx context.Context, id string, req dto.AddCommentRequest, actor *models.JWTClaims) (*dto.FollowUpResult, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	text := strings.TrimSpace(req.Comment)
	if text == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "comment must not be empty")
	}
	current, err := s.load(ctx, id, actor)
	if err != nil {
		return nil, err
	}

	var parentID *string
	if req.ParentID != nil && strings.TrimSpace(*req.ParentID) != "" {
		pid := strings.TrimSpace(*req.ParentID)
		parent, err := s.comments.GetByID(ctx, pid)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrValidation, "parent comment not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load parent comment")
		}
		if parent.FollowUpID != id {
			return nil, appErrors.Clone(appErrors.ErrValidation, "parent comment belongs to another follow-up")
		}
		parentID = &pid
	}

	userID := actor.UserID
	comment := &models.FollowUpComment{
		FollowUpID:      id,
		UserID:          &userID,
		Author:          actorName(actor),
		Comment:         text,
		ParentCommentID: parentID,
		CompanyID:       current.CompanyID,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add comment")
	}
	return s.refreshed(ctx, id, comment)
}

// DeleteComment removes a comment authored by the actor, or any comment for admins.
// Replies are kept and surface as roots of the thread.
func (s *FollowUpService) DeleteComment(ctx context.Context, commentID string, actor *models.JWTClaims) (*dto.FollowUpResult, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "comment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load comment")
	}
	if !actor.SameCompany(comment.CompanyID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "comment not found")
	}
	if !comment.IsAuthoredBy(actor.UserID) && !actor.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the author or an admin can delete this comment")
	}
	if err := s.comments.Delete(ctx, commentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "comment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete comment")
	}
	s.emitAudit(ctx, actor, models.AuditActionCommentDelete, commentID, comment, nil)
	return s.refreshed(ctx, comment.FollowUpID, nil)
}

// SweepMissed marks Pending follow-ups scheduled before cutoff as Missed.
func (s *FollowUpService) SweepMissed(ctx context.Context, cutoff time.Time) (int64, error) {
	count, err := s.repo.MarkMissed(ctx, cutoff)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark missed follow-ups")
	}
	if count > 0 {
		s.metrics.RecordFollowUpTransition(models.FollowUpStatusMissed, int(count))
		if err := s.cache.InvalidateCollections(ctx, followUpInvalidates...); err != nil {
			s.logger.Warn("failed to invalidate follow-ups after sweep", zap.Error(err))
		}
	}
	return count, nil
}

func (s *FollowUpService) load(ctx context.Context, id string, actor *models.JWTClaims) (*models.FollowUp, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "follow-up not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load follow-up")
	}
	if !actor.SameCompany(item.CompanyID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "follow-up not found")
	}
	return item, nil
}

func (s *FollowUpService) loadDetail(ctx context.Context, id string) (*models.FollowUpDetail, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "follow-up not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load follow-up")
	}
	comments, err := s.comments.ListByFollowUp(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load comments")
	}
	if comments == nil {
		comments = []models.FollowUpComment{}
	}
	item.Comments = comments
	return &models.FollowUpDetail{FollowUp: *item, Thread: BuildCommentTree(comments)}, nil
}

// refreshed reloads the follow-up after a write so callers never see optimistic state.
func (s *FollowUpService) refreshed(ctx context.Context, id string, comment *models.FollowUpComment) (*dto.FollowUpResult, error) {
	detail, err := s.loadDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.FollowUpResult{FollowUp: detail, Comment: comment, Invalidates: followUpInvalidates}, nil
}

func (s *FollowUpService) notify(ctx context.Context, n *models.Notification) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, n)
}

func (s *FollowUpService) emitAudit(ctx context.Context, actor *models.JWTClaims, action, resourceID string, oldValues, newValues interface{}) {
	if s.audit == nil {
		return
	}
	userID := actor.UserID
	meta := models.RequestMetaFrom(ctx, "followup-service")
	entry := &models.AuditLog{
		UserID:     &userID,
		CompanyID:  actor.CompanyID,
		Action:     action,
		Resource:   "follow_up",
		ResourceID: &resourceID,
		OldValues:  marshalAuditValue(oldValues),
		NewValues:  marshalAuditValue(newValues),
		IPAddress:  meta.IPAddress,
		UserAgent:  meta.UserAgent,
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to persist audit log", zap.String("action", action), zap.Error(err))
	}
}

func canComplete(item *models.FollowUp, actor *models.JWTClaims) bool {
	if actor.IsAdmin() {
		return true
	}
	return item.AssignedTo != nil && *item.AssignedTo == actor.UserID
}

func followUpListKey(filter models.FollowUpFilter) string {
	statuses := make([]string, len(filter.Status))
	for i, status := range filter.Status {
		statuses[i] = string(status)
	}
	return CollectionKey(models.CollectionFollowUps, "list",
		filter.CompanyID,
		strings.Join(statuses, ","),
		filter.AssignedTo,
		filter.EnquiryID,
		strconv.Itoa(filter.Limit),
		strconv.Itoa(filter.Offset),
	)
}

func actorName(actor *models.JWTClaims) string {
	if name := strings.TrimSpace(actor.FullName); name != "" {
		return name
	}
	if actor.Email != "" {
		return actor.Email
	}
	return actor.UserID
}

func marshalAuditValue(value interface{}) []byte {
	if value == nil {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil
	}
	return raw
}

func optionalString(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	v := strings.TrimSpace(value)
	return &v
}
