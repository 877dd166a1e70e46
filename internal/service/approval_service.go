package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/consultancy-crm-api/internal/dto"
	"github.com/noah-isme/consultancy-crm-api/internal/models"
	"github.com/noah-isme/consultancy-crm-api/internal/repository"
	appErrors "github.com/noah-isme/consultancy-crm-api/pkg/errors"
)

type approvalStore interface {
	Create(ctx context.Context, req *models.ApprovalRequest) error
	GetByID(ctx context.Context, id string) (*models.ApprovalRequest, error)
	List(ctx context.Context, filter models.ApprovalFilter) ([]models.ApprovalRequest, error)
	CountPending(ctx context.Context, filter models.ApprovalFilter) (int, error)
	Resolve(ctx context.Context, exec sqlx.ExtContext, params repository.ResolveApprovalParams) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// ApprovalService owns approval requests: deferring gated mutations and resolving them.
type ApprovalService struct {
	repo      approvalStore
	tx        txProvider
	entities  EntityRegistry
	audit     auditLogger
	notifier  Notifier
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// ApprovalServiceOption configures optional collaborators.
type ApprovalServiceOption func(*ApprovalService)

// WithApprovalNotifier informs admins of new requests and requesters of decisions.
func WithApprovalNotifier(notifier Notifier) ApprovalServiceOption {
	return func(s *ApprovalService) {
		s.notifier = notifier
	}
}

// WithApprovalCache caches the pending counter.
func WithApprovalCache(cache *CacheService) ApprovalServiceOption {
	return func(s *ApprovalService) {
		s.cache = cache
	}
}

// WithApprovalMetrics records review outcomes.
func WithApprovalMetrics(metrics *MetricsService) ApprovalServiceOption {
	return func(s *ApprovalService) {
		s.metrics = metrics
	}
}

// NewApprovalService constructs the service. tx opens the transaction an approval runs in.
func NewApprovalService(repo approvalStore, tx txProvider, entities EntityRegistry, audit auditLogger, validate *validator.Validate, logger *zap.Logger, opts ...ApprovalServiceOption) *ApprovalService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &ApprovalService{repo: repo, tx: tx, entities: entities, audit: audit, validator: validate, logger: logger}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Create defers a gated mutation into a pending request. Any rejection is a submission error
// and leaves the entity untouched.
func (s *ApprovalService) Create(ctx context.Context, req dto.CreateApprovalRequest, actor *models.JWTClaims) (*dto.ApprovalResult, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrSubmission.Code, appErrors.ErrSubmission.Status, "invalid approval request")
	}
	mutator, err := s.entities.Lookup(req.EntityType)
	if err != nil {
		return nil, submissionError(err)
	}
	record, err := mutator.Load(ctx, req.EntityID)
	if err != nil {
		return nil, submissionError(err)
	}
	if !actor.SameCompany(record.CompanyID) {
		return nil, appErrors.Clone(appErrors.ErrSubmission, "entity not found")
	}

	request := &models.ApprovalRequest{
		Action:      req.Action,
		EntityType:  strings.ToLower(strings.TrimSpace(req.EntityType)),
		EntityID:    record.ID,
		EntityName:  strings.TrimSpace(req.EntityName),
		Message:     strings.TrimSpace(req.Message),
		Status:      models.ApprovalStatusPending,
		RequestedBy: actor.UserID,
		CompanyID:   record.CompanyID,
	}
	if request.EntityName == "" {
		request.EntityName = record.Name
	}

	switch req.Action {
	case models.ApprovalActionDelete:
		if request.Message == "" {
			return nil, appErrors.Clone(appErrors.ErrSubmission, "a justification message is required to request a delete")
		}
	case models.ApprovalActionUpdate:
		changes, err := mutator.NormalizeChanges(req.PendingChanges)
		if err != nil {
			return nil, submissionError(err)
		}
		encoded, err := json.Marshal(changes)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrSubmission.Code, appErrors.ErrSubmission.Status, "invalid pending changes")
		}
		request.PendingChanges = types.NullJSONText{JSONText: types.JSONText(encoded), Valid: true}
		if request.Message == "" {
			request.Message = "Proposed changes: " + strings.Join(changedFieldNames(changes), ", ")
		}
	}

	if err := s.repo.Create(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrSubmission.Code, appErrors.ErrSubmission.Status, "failed to submit approval request")
	}
	s.emitAudit(ctx, actor, models.AuditActionApprovalCreate, request, record.Snapshot, request.PendingChanges.JSONText)
	if s.notifier != nil {
		s.notifier.NotifyAdmins(ctx, request.CompanyID, actor.UserID, models.Notification{
			Title:     "Approval requested",
			Message:   fmt.Sprintf("%s requested to %s %s %q", actorName(actor), strings.ToLower(string(request.Action)), request.EntityType, request.EntityName),
			Type:      models.NotificationTypeApproval,
			ActionURL: "/approval-requests/" + request.ID,
			CompanyID: request.CompanyID,
		})
	}
	return &dto.ApprovalResult{
		Request:     request,
		Invalidates: []models.Collection{models.CollectionApprovalRequests, mutator.Collection()},
	}, nil
}

// List returns approval requests visible to the actor, newest first.
func (s *ApprovalService) List(ctx context.Context, query dto.ApprovalQuery, actor *models.JWTClaims) ([]models.ApprovalRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	filter := approvalScope(actor)
	filter.Status = query.Status
	filter.EntityType = strings.ToLower(strings.TrimSpace(query.EntityType))
	filter.Limit = query.Limit
	filter.Offset = query.Offset

	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list approval requests")
	}
	if items == nil {
		items = []models.ApprovalRequest{}
	}
	return items, nil
}

// Get returns a single request within the actor's scope.
func (s *ApprovalService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.ApprovalRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	request, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !inApprovalScope(request, actor) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "approval request not found")
	}
	return request, nil
}

// PendingCount counts unresolved requests within the actor's scope.
func (s *ApprovalService) PendingCount(ctx context.Context, actor *models.JWTClaims) (int, error) {
	if actor == nil {
		return 0, appErrors.ErrUnauthorized
	}
	filter := approvalScope(actor)
	cacheKey := CollectionKey(models.CollectionApprovalRequests, "pending", filter.CompanyID, filter.RequestedBy)
	var cached int
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return cached, nil
	}
	total, err := s.repo.CountPending(ctx, filter)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count approval requests")
	}
	_ = s.cache.Set(ctx, cacheKey, total, 0)
	return total, nil
}

// Approve claims the pending request and applies its mutation in one transaction, so the entity
// changes only if the request is marked approved.
func (s *ApprovalService) Approve(ctx context.Context, id string, req dto.ReviewApprovalRequest, actor *models.JWTClaims) (*dto.ApprovalResult, error) {
	request, err := s.reviewable(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	mutator, err := s.entities.Lookup(request.EntityType)
	if err != nil {
		return nil, err
	}
	var changes map[string]json.RawMessage
	switch request.Action {
	case models.ApprovalActionDelete:
	case models.ApprovalActionUpdate:
		if err := request.PendingChanges.Unmarshal(&changes); err != nil || len(changes) == 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "approval request carries no pending changes")
		}
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported action: %s", request.Action))
	}
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	params := reviewParams(request, models.ApprovalStatusApproved, optionalString(req.Note), actor)
	if err = s.claim(ctx, tx, params); err != nil {
		return nil, err
	}
	if request.Action == models.ApprovalActionDelete {
		err = mutator.Delete(ctx, tx, request.EntityID)
	} else {
		_, err = mutator.Update(ctx, tx, request.EntityID, changes)
	}
	if err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit approval")
	}

	s.resolved(ctx, request, params, actor)
	return &dto.ApprovalResult{
		Request:     request,
		Invalidates: []models.Collection{models.CollectionApprovalRequests, mutator.Collection()},
	}, nil
}

// Reject resolves the request without touching the entity. A review note is required.
func (s *ApprovalService) Reject(ctx context.Context, id string, req dto.ReviewApprovalRequest, actor *models.JWTClaims) (*dto.ApprovalResult, error) {
	note := optionalString(req.Note)
	if note == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "review_note is required to reject")
	}
	request, err := s.reviewable(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	params := reviewParams(request, models.ApprovalStatusRejected, note, actor)
	if err := s.claim(ctx, nil, params); err != nil {
		return nil, err
	}
	s.resolved(ctx, request, params, actor)
	return &dto.ApprovalResult{
		Request:     request,
		Invalidates: []models.Collection{models.CollectionApprovalRequests},
	}, nil
}

func (s *ApprovalService) reviewable(ctx context.Context, id string, actor *models.JWTClaims) (*models.ApprovalRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !actor.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins can review approval requests")
	}
	request, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.SameCompany(request.CompanyID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "approval request not found")
	}
	if request.IsResolved() {
		return nil, appErrors.Clone(appErrors.ErrConflict, "approval request already reviewed")
	}
	return request, nil
}

func reviewParams(request *models.ApprovalRequest, status models.ApprovalStatus, note *string, actor *models.JWTClaims) repository.ResolveApprovalParams {
	return repository.ResolveApprovalParams{
		ID:         request.ID,
		Status:     status,
		ReviewedBy: actor.UserID,
		ReviewedAt: time.Now().UTC(),
		Note:       note,
	}
}

// claim moves the request out of PENDING. A request someone else already resolved is a conflict.
func (s *ApprovalService) claim(ctx context.Context, exec sqlx.ExtContext, params repository.ResolveApprovalParams) error {
	if err := s.repo.Resolve(ctx, exec, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrConflict, "approval request already processed")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve approval request")
	}
	return nil
}

// resolved runs once the review is durable.
func (s *ApprovalService) resolved(ctx context.Context, request *models.ApprovalRequest, params repository.ResolveApprovalParams, actor *models.JWTClaims) {
	previous := request.Status
	reviewer := params.ReviewedBy
	reviewedAt := params.ReviewedAt
	request.Status = params.Status
	request.ReviewedBy = &reviewer
	request.ReviewedAt = &reviewedAt
	request.ReviewNote = params.Note

	s.metrics.RecordApprovalReview(params.Status)
	s.emitAudit(ctx, actor, models.AuditActionApprovalReview, request,
		marshalAuditValue(map[string]interface{}{"status": previous}),
		marshalAuditValue(map[string]interface{}{"status": params.Status, "review_note": params.Note}))
	if s.notifier != nil && request.RequestedBy != actor.UserID {
		status := strings.ToLower(string(params.Status))
		s.notifier.Notify(ctx, &models.Notification{
			UserID:    request.RequestedBy,
			Title:     "Approval request " + status,
			Message:   fmt.Sprintf("Your request to %s %s %q was %s", strings.ToLower(string(request.Action)), request.EntityType, request.EntityName, status),
			Type:      models.NotificationTypeApproval,
			ActionURL: "/approval-requests/" + request.ID,
			CompanyID: request.CompanyID,
		})
	}
}

func (s *ApprovalService) load(ctx context.Context, id string) (*models.ApprovalRequest, error) {
	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "approval request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load approval request")
	}
	return request, nil
}

func (s *ApprovalService) emitAudit(ctx context.Context, actor *models.JWTClaims, action string, request *models.ApprovalRequest, oldValues, newValues []byte) {
	if s.audit == nil {
		return
	}
	userID := actor.UserID
	meta := models.RequestMetaFrom(ctx, "approval-service")
	entry := &models.AuditLog{
		UserID:     &userID,
		CompanyID:  request.CompanyID,
		Action:     action,
		Resource:   request.EntityType,
		ResourceID: &request.EntityID,
		OldValues:  oldValues,
		NewValues:  newValues,
		IPAddress:  meta.IPAddress,
		UserAgent:  meta.UserAgent,
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to persist audit log", zap.String("action", action), zap.Error(err))
	}
}

// approvalScope limits listing: developer admins see all, company admins their tenant,
// everyone else their own requests.
func approvalScope(actor *models.JWTClaims) models.ApprovalFilter {
	switch actor.Role {
	case models.RoleDevAdmin:
		return models.ApprovalFilter{}
	case models.RoleCompanyAdmin:
		return models.ApprovalFilter{CompanyID: actor.CompanyID}
	default:
		return models.ApprovalFilter{CompanyID: actor.CompanyID, RequestedBy: actor.UserID}
	}
}

func inApprovalScope(request *models.ApprovalRequest, actor *models.JWTClaims) bool {
	scope := approvalScope(actor)
	if scope.CompanyID != "" && request.CompanyID != scope.CompanyID {
		return false
	}
	return scope.RequestedBy == "" || request.RequestedBy == scope.RequestedBy
}

// submissionError re-tags a rejection on the deferral path as a submission failure.
func submissionError(err error) error {
	e := appErrors.FromError(err)
	if e.Code == appErrors.ErrInternal.Code {
		return appErrors.Wrap(err, appErrors.ErrSubmission.Code, appErrors.ErrSubmission.Status, "failed to submit approval request")
	}
	return appErrors.Wrap(err, appErrors.ErrSubmission.Code, appErrors.ErrSubmission.Status, e.Message)
}
