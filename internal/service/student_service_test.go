package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/consultancy-crm-api/internal/models"
	appErrors "github.com/noah-isme/consultancy-crm-api/pkg/errors"
)

type ownedListerStub struct {
	enquiries     []models.Enquiry
	registrations []models.Registration
	err           error
}

type ownedEnquiries struct{ *ownedListerStub }

func (s ownedEnquiries) ListByCreator(ctx context.Context, companyID, userID string) ([]models.Enquiry, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []models.Enquiry
	for _, item := range s.enquiries {
		if item.CompanyID == companyID && item.CreatedBy != nil && *item.CreatedBy == userID {
			out = append(out, item)
		}
	}
	return out, nil
}

type ownedRegistrations struct{ *ownedListerStub }

func (s ownedRegistrations) ListByCreator(ctx context.Context, companyID, userID string) ([]models.Registration, error) {
	var out []models.Registration
	for _, item := range s.registrations {
		if item.CompanyID == companyID && item.CreatedBy != nil && *item.CreatedBy == userID {
			out = append(out, item)
		}
	}
	return out, nil
}

func TestStudentServiceMine(t *testing.T) {
	stub := &ownedListerStub{
		enquiries: []models.Enquiry{
			{ID: "enq-1", CompanyID: "co-1", CreatedBy: strPtr("counselor-1")},
			{ID: "enq-2", CompanyID: "co-1", CreatedBy: strPtr("counselor-2")},
		},
	}
	svc := NewStudentService(ownedEnquiries{stub}, ownedRegistrations{stub}, nil, 0, nil)

	owned, err := svc.Mine(context.Background(), counselor())
	require.NoError(t, err)
	require.Len(t, owned.Enquiries, 1)
	assert.Equal(t, "enq-1", owned.Enquiries[0].ID)
	assert.NotNil(t, owned.Registrations)
	assert.Empty(t, owned.Registrations)
}

func TestStudentServiceMineFailure(t *testing.T) {
	stub := &ownedListerStub{err: errors.New("db down")}
	svc := NewStudentService(ownedEnquiries{stub}, ownedRegistrations{stub}, nil, 0, nil)

	_, err := svc.Mine(context.Background(), counselor())
	assert.True(t, errors.Is(err, appErrors.ErrInternal))

	_, err = svc.Mine(context.Background(), nil)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}
