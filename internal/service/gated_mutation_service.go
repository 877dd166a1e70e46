package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/noah-isme/consultancy-crm-api/internal/dto"
	"github.com/noah-isme/consultancy-crm-api/internal/models"
	appErrors "github.com/noah-isme/consultancy-crm-api/pkg/errors"
)

type approvalSubmitter interface {
	Create(ctx context.Context, req dto.CreateApprovalRequest, actor *models.JWTClaims) (*dto.ApprovalResult, error)
}

// GatedMutationService routes deletes and updates of gated entities by the actor's role:
// admins mutate directly, everyone else files an approval request.
type GatedMutationService struct {
	entities  EntityRegistry
	approvals approvalSubmitter
	audit     auditLogger
	metrics   *MetricsService
	deferral  bool
	logger    *zap.Logger
}

// GatedMutationOption configures the router.
type GatedMutationOption func(*GatedMutationService)

// WithDeferral toggles the deferred route. With it off, non-admin mutations are refused instead of
// filing requests nobody can review.
func WithDeferral(enabled bool) GatedMutationOption {
	return func(s *GatedMutationService) {
		s.deferral = enabled
	}
}

// NewGatedMutationService constructs the router. Deferral is on unless disabled with WithDeferral.
func NewGatedMutationService(entities EntityRegistry, approvals approvalSubmitter, audit auditLogger, metrics *MetricsService, logger *zap.Logger, opts ...GatedMutationOption) *GatedMutationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &GatedMutationService{entities: entities, approvals: approvals, audit: audit, metrics: metrics, deferral: true, logger: logger}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Delete removes the entity now or defers the removal for review.
func (s *GatedMutationService) Delete(ctx context.Context, entityType, id string, req dto.GatedMutationRequest, actor *models.JWTClaims) (*dto.RouteOutcome, error) {
	return s.mutate(ctx, models.ApprovalActionDelete, entityType, id, req, actor)
}

// Update applies the changes now or defers them for review.
func (s *GatedMutationService) Update(ctx context.Context, entityType, id string, req dto.GatedMutationRequest, actor *models.JWTClaims) (*dto.RouteOutcome, error) {
	return s.mutate(ctx, models.ApprovalActionUpdate, entityType, id, req, actor)
}

func (s *GatedMutationService) mutate(ctx context.Context, action models.ApprovalAction, entityType, id string, req dto.GatedMutationRequest, actor *models.JWTClaims) (*dto.RouteOutcome, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	mutator, err := s.entities.Lookup(entityType)
	if err != nil {
		return nil, err
	}

	route := Route(actor.Role)
	if route == models.RouteDeferred {
		if !s.deferral {
			return nil, appErrors.Clone(appErrors.ErrSubmission, "approval requests are disabled, ask an admin to make this change")
		}
		result, err := s.approvals.Create(ctx, dto.CreateApprovalRequest{
			Action:         action,
			EntityType:     entityType,
			EntityID:       id,
			EntityName:     req.EntityName,
			Message:        req.Message,
			PendingChanges: req.Changes,
		}, actor)
		if err != nil {
			return nil, appErrors.Passthrough(err, appErrors.ErrSubmission, "failed to submit approval request")
		}
		s.metrics.RecordMutationRoute(route, action)
		return &dto.RouteOutcome{
			Route:       route,
			Request:     result.Request,
			Invalidates: result.Invalidates,
		}, nil
	}

	record, err := mutator.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.SameCompany(record.CompanyID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, string(mutator.Collection())+" record not found")
	}

	outcome := &dto.RouteOutcome{Route: route, Invalidates: []models.Collection{mutator.Collection()}}
	var newValues []byte
	auditAction := models.AuditActionEntityDelete
	switch action {
	case models.ApprovalActionDelete:
		if err := mutator.Delete(ctx, nil, record.ID); err != nil {
			return nil, err
		}
	case models.ApprovalActionUpdate:
		changes, err := mutator.NormalizeChanges(req.Changes)
		if err != nil {
			return nil, err
		}
		entity, err := mutator.Update(ctx, nil, record.ID, changes)
		if err != nil {
			return nil, err
		}
		outcome.Entity = entity
		newValues = entity
		auditAction = models.AuditActionEntityUpdate
	}

	s.metrics.RecordMutationRoute(route, action)
	s.emitAudit(ctx, actor, auditAction, entityType, record, newValues)
	return outcome, nil
}

func (s *GatedMutationService) emitAudit(ctx context.Context, actor *models.JWTClaims, action, entityType string, record *EntityRecord, newValues json.RawMessage) {
	if s.audit == nil {
		return
	}
	userID := actor.UserID
	meta := models.RequestMetaFrom(ctx, "gated-mutation-service")
	entry := &models.AuditLog{
		UserID:     &userID,
		CompanyID:  record.CompanyID,
		Action:     action,
		Resource:   entityType,
		ResourceID: &record.ID,
		OldValues:  record.Snapshot,
		NewValues:  newValues,
		IPAddress:  meta.IPAddress,
		UserAgent:  meta.UserAgent,
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to persist audit log", zap.String("action", action), zap.Error(err))
	}
}
