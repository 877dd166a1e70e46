package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/consultancy-crm-api/internal/dto"
	"github.com/noah-isme/consultancy-crm-api/internal/models"
	appErrors "github.com/noah-isme/consultancy-crm-api/pkg/errors"
)

// ownershipWriter moves created_by from one user to another. The write only lands while fromUserID
// still owns the stored row; otherwise it reports sql.ErrNoRows.
type ownershipWriter interface {
	Reassign(ctx context.Context, id, companyID, fromUserID, toUserID string) error
}

var transferInvalidates = []models.Collection{models.CollectionEnquiries, models.CollectionRegistrations}

// TransferService hands ownership of enquiries and registrations to another staff member.
type TransferService struct {
	enquiries     ownershipWriter
	registrations ownershipWriter
	users         userLookup
	audit         auditLogger
	notifier      Notifier
	metrics       *MetricsService
	validator     *validator.Validate
	concurrency   int
	logger        *zap.Logger
}

// TransferServiceOption configures optional collaborators.
type TransferServiceOption func(*TransferService)

// WithTransferNotifier tells the recipient about records they received.
func WithTransferNotifier(notifier Notifier) TransferServiceOption {
	return func(s *TransferService) {
		s.notifier = notifier
	}
}

// WithTransferMetrics counts applied and failed items.
func WithTransferMetrics(metrics *MetricsService) TransferServiceOption {
	return func(s *TransferService) {
		s.metrics = metrics
	}
}

// WithTransferConcurrency bounds the number of concurrent record updates.
func WithTransferConcurrency(n int) TransferServiceOption {
	return func(s *TransferService) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// NewTransferService constructs the service.
func NewTransferService(enquiries, registrations ownershipWriter, users userLookup, audit auditLogger, validate *validator.Validate, logger *zap.Logger, opts ...TransferServiceOption) *TransferService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &TransferService{
		enquiries:     enquiries,
		registrations: registrations,
		users:         users,
		audit:         audit,
		validator:     validate,
		concurrency:   8,
		logger:        logger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// transferJob is one validated item ready to be written.
type transferJob struct {
	kind string
	id   string
}

// Transfer reassigns created_by on every item to the recipient. Only created_by is written, and only
// while the actor still owns the stored row, so the submitted record never overwrites other fields.
// Items are written concurrently and independently: a failed item does not undo the others. When any
// item fails the result is returned together with a submission error.
func (s *TransferService) Transfer(ctx context.Context, req dto.TransferRequest, actor *models.JWTClaims) (*dto.TransferResult, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	req.ToUserID = strings.TrimSpace(req.ToUserID)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid transfer request")
	}
	if req.ToUserID == actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot transfer records to yourself")
	}
	recipient, err := s.recipient(ctx, req.ToUserID, actor)
	if err != nil {
		return nil, err
	}

	jobs := make([]transferJob, len(req.Items))
	for i, item := range req.Items {
		job, err := decodeTransferItem(item, actor)
		if err != nil {
			return nil, err
		}
		jobs[i] = job
	}

	results := make([]dto.TransferItemResult, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range jobs {
		i := i
		g.Go(func() error {
			job := jobs[i]
			results[i] = dto.TransferItemResult{Type: job.kind, ID: job.id}
			if err := s.apply(gctx, job, actor, recipient.ID); err != nil {
				s.logger.Warn("transfer item failed", zap.String("type", job.kind), zap.String("id", job.id), zap.Error(err))
				results[i].Error = err.Error()
				return nil
			}
			results[i].Applied = true
			return nil
		})
	}
	_ = g.Wait()

	result := &dto.TransferResult{ToUserID: recipient.ID, Items: results}
	for _, item := range results {
		if item.Applied {
			result.Applied++
		} else {
			result.Failed++
		}
	}
	s.metrics.RecordTransferItems(result.Applied, result.Failed)

	if result.Applied > 0 {
		result.Invalidates = transferInvalidates
		s.emitAudit(ctx, actor, recipient, req.Note, result)
		s.notifyRecipient(ctx, actor, recipient, req.Note, result.Applied)
	}
	if result.Failed > 0 {
		return result, appErrors.Clone(appErrors.ErrSubmission, fmt.Sprintf("%d of %d records could not be transferred", result.Failed, len(results)))
	}
	return result, nil
}

func (s *TransferService) recipient(ctx context.Context, userID string, actor *models.JWTClaims) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "recipient not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recipient")
	}
	if !user.Active || user.CompanyID != actor.CompanyID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "recipient not found")
	}
	return user, nil
}

func (s *TransferService) apply(ctx context.Context, job transferJob, actor *models.JWTClaims, recipientID string) error {
	var writer ownershipWriter
	switch job.kind {
	case models.EntityEnquiry:
		writer = s.enquiries
	case models.EntityRegistration:
		writer = s.registrations
	default:
		return fmt.Errorf("unsupported transfer type %s", job.kind)
	}
	if err := writer.Reassign(ctx, job.id, actor.CompanyID, actor.UserID, recipientID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%s %s is not owned by you", job.kind, job.id)
		}
		return err
	}
	return nil
}

// decodeTransferItem parses the submitted record and rejects items that are plainly not the actor's.
// The stored owner is checked again when the item is written.
func decodeTransferItem(item dto.TransferItem, actor *models.JWTClaims) (transferJob, error) {
	job := transferJob{kind: strings.ToLower(item.Type), id: item.ID}
	var (
		recordID  string
		companyID string
		createdBy *string
	)
	switch job.kind {
	case models.EntityEnquiry:
		var record models.Enquiry
		if err := json.Unmarshal(item.OriginalRecord, &record); err != nil {
			return job, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid original record for %s %s", item.Type, item.ID))
		}
		recordID, companyID, createdBy = record.ID, record.CompanyID, record.CreatedBy
	case models.EntityRegistration:
		var record models.Registration
		if err := json.Unmarshal(item.OriginalRecord, &record); err != nil {
			return job, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid original record for %s %s", item.Type, item.ID))
		}
		recordID, companyID, createdBy = record.ID, record.CompanyID, record.CreatedBy
	default:
		return job, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported transfer type: %s", item.Type))
	}
	if recordID != item.ID {
		return job, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("original record does not match %s %s", item.Type, item.ID))
	}
	if createdBy == nil || *createdBy != actor.UserID || companyID != actor.CompanyID {
		return job, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("you do not own %s %s", item.Type, item.ID))
	}
	return job, nil
}

func (s *TransferService) emitAudit(ctx context.Context, actor *models.JWTClaims, recipient *models.User, note string, result *dto.TransferResult) {
	if s.audit == nil {
		return
	}
	userID := actor.UserID
	recipientID := recipient.ID
	meta := models.RequestMetaFrom(ctx, "transfer-service")
	entry := &models.AuditLog{
		UserID:     &userID,
		CompanyID:  actor.CompanyID,
		Action:     models.AuditActionTransfer,
		Resource:   "transfer",
		ResourceID: &recipientID,
		OldValues:  marshalAuditValue(map[string]interface{}{"created_by": actor.UserID}),
		NewValues:  marshalAuditValue(map[string]interface{}{"created_by": recipient.ID, "note": note, "items": result.Items}),
		IPAddress:  meta.IPAddress,
		UserAgent:  meta.UserAgent,
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to persist audit log", zap.String("action", entry.Action), zap.Error(err))
	}
}

func (s *TransferService) notifyRecipient(ctx context.Context, actor *models.JWTClaims, recipient *models.User, note string, applied int) {
	if s.notifier == nil {
		return
	}
	message := fmt.Sprintf("%s transferred %d record(s) to you", actorName(actor), applied)
	if trimmed := strings.TrimSpace(note); trimmed != "" {
		message += ": " + trimmed
	}
	s.notifier.Notify(ctx, &models.Notification{
		UserID:    recipient.ID,
		Title:     "Records transferred to you",
		Message:   message,
		Type:      models.NotificationTypeTransfer,
		ActionURL: "/students/mine",
		CompanyID: recipient.CompanyID,
	})
}
