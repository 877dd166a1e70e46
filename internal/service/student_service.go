package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/consultancy-crm-api/internal/models"
	appErrors "github.com/noah-isme/consultancy-crm-api/pkg/errors"
)

type enquiryOwnerLister interface {
	ListByCreator(ctx context.Context, companyID, userID string) ([]models.Enquiry, error)
}

type registrationOwnerLister interface {
	ListByCreator(ctx context.Context, companyID, userID string) ([]models.Registration, error)
}

// StudentService answers "which students do I own", the source list for transfers.
type StudentService struct {
	enquiries     enquiryOwnerLister
	registrations registrationOwnerLister
	cache         *CacheService
	cacheTTL      time.Duration
	logger        *zap.Logger
}

// NewStudentService constructs the student service. cache may be nil.
func NewStudentService(enquiries enquiryOwnerLister, registrations registrationOwnerLister, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{enquiries: enquiries, registrations: registrations, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// Mine returns enquiries and registrations created by the actor. Each half is cached under its
// own collection so that invalidating one does not serve stale data for the other.
func (s *StudentService) Mine(ctx context.Context, actor *models.JWTClaims) (*models.OwnedStudents, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	owned := &models.OwnedStudents{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		key := CollectionKey(models.CollectionEnquiries, "mine", actor.CompanyID, actor.UserID)
		if hit, _ := s.cache.Get(gctx, key, &owned.Enquiries); hit {
			return nil
		}
		items, err := s.enquiries.ListByCreator(gctx, actor.CompanyID, actor.UserID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enquiries")
		}
		if items == nil {
			items = []models.Enquiry{}
		}
		owned.Enquiries = items
		_ = s.cache.Set(gctx, key, items, s.cacheTTL)
		return nil
	})
	g.Go(func() error {
		key := CollectionKey(models.CollectionRegistrations, "mine", actor.CompanyID, actor.UserID)
		if hit, _ := s.cache.Get(gctx, key, &owned.Registrations); hit {
			return nil
		}
		items, err := s.registrations.ListByCreator(gctx, actor.CompanyID, actor.UserID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list registrations")
		}
		if items == nil {
			items = []models.Registration{}
		}
		owned.Registrations = items
		_ = s.cache.Set(gctx, key, items, s.cacheTTL)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return owned, nil
}
