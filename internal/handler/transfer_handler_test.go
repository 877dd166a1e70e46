package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/consultancy-crm-api/internal/dto"
	"github.com/noah-isme/consultancy-crm-api/internal/models"
	appErrors "github.com/noah-isme/consultancy-crm-api/pkg/errors"
)

type transferServiceMock struct {
	result  *dto.TransferResult
	err     error
	lastReq dto.TransferRequest
}

func (m *transferServiceMock) Transfer(ctx context.Context, req dto.TransferRequest, actor *models.JWTClaims) (*dto.TransferResult, error) {
	m.lastReq = req
	return m.result, m.err
}

type ownedStudentsMock struct{}

func (ownedStudentsMock) Mine(ctx context.Context, actor *models.JWTClaims) (*models.OwnedStudents, error) {
	return &models.OwnedStudents{
		Enquiries:     []models.Enquiry{{ID: "enq-1", CreatedBy: &actor.UserID}},
		Registrations: []models.Registration{},
	}, nil
}

const transferBody = `{"to_user_id":"counselor-2","note":"leave","items":[{"type":"enquiry","id":"enq-1","original_record":{"id":"enq-1"}}]}`

func TestTransferHandlerSuccess(t *testing.T) {
	svc := &transferServiceMock{result: &dto.TransferResult{ToUserID: "counselor-2", Applied: 1, Invalidates: []models.Collection{models.CollectionEnquiries, models.CollectionRegistrations}}}
	cache := &invalidatorStub{}
	h := NewTransferHandler(svc, ownedStudentsMock{}, cache)

	c, w := newTestContext(http.MethodPost, "/transfers", transferBody, counselorClaims())
	h.Transfer(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, svc.lastReq.Items, 1)
	assert.JSONEq(t, `{"id":"enq-1"}`, string(svc.lastReq.Items[0].OriginalRecord))
	assert.Equal(t, "leave", svc.lastReq.Note)
	assert.Len(t, cache.collections, 2)
}

func TestTransferHandlerPartialFailureCarriesItems(t *testing.T) {
	svc := &transferServiceMock{
		result: &dto.TransferResult{
			ToUserID:    "counselor-2",
			Items:       []dto.TransferItemResult{{Type: "enquiry", ID: "enq-1", Applied: true}, {Type: "enquiry", ID: "enq-2", Error: "write failed"}},
			Applied:     1,
			Failed:      1,
			Invalidates: []models.Collection{models.CollectionEnquiries, models.CollectionRegistrations},
		},
		err: appErrors.Clone(appErrors.ErrSubmission, "1 of 2 records could not be transferred"),
	}
	cache := &invalidatorStub{}
	h := NewTransferHandler(svc, ownedStudentsMock{}, cache)

	c, w := newTestContext(http.MethodPost, "/transfers", transferBody, counselorClaims())
	h.Transfer(c)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := decodeEnvelope(t, w)
	require.NotNil(t, body.Error)
	assert.Equal(t, "SUBMISSION_FAILED", body.Error.Code)
	assert.Contains(t, string(body.Data), `"failed":1`)
	assert.Len(t, cache.collections, 2)
}

func TestTransferHandlerValidationError(t *testing.T) {
	h := NewTransferHandler(&transferServiceMock{err: appErrors.Clone(appErrors.ErrValidation, "cannot transfer records to yourself")}, ownedStudentsMock{}, nil)

	c, w := newTestContext(http.MethodPost, "/transfers", transferBody, counselorClaims())
	h.Transfer(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTransferHandlerMine(t *testing.T) {
	h := NewTransferHandler(&transferServiceMock{}, ownedStudentsMock{}, nil)

	c, w := newTestContext(http.MethodGet, "/students/mine", "", counselorClaims())
	h.Mine(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decodeEnvelope(t, w).Data), `"enq-1"`)
}
