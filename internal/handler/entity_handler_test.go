package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/consultancy-crm-api/internal/dto"
	"github.com/noah-isme/consultancy-crm-api/internal/models"
	appErrors "github.com/noah-isme/consultancy-crm-api/pkg/errors"
)

type gatedServiceMock struct {
	route    models.MutationRoute
	lastType string
	lastID   string
	lastReq  dto.GatedMutationRequest
	err      error
}

func (m *gatedServiceMock) outcome() (*dto.RouteOutcome, error) {
	if m.err != nil {
		return nil, m.err
	}
	outcome := &dto.RouteOutcome{Route: m.route, Invalidates: []models.Collection{models.CollectionEnquiries}}
	if m.route == models.RouteDeferred {
		outcome.Request = &models.ApprovalRequest{ID: "apr-1", Status: models.ApprovalStatusPending}
	} else {
		outcome.Entity = json.RawMessage(`{"id":"enq-1"}`)
	}
	return outcome, nil
}

func (m *gatedServiceMock) Delete(ctx context.Context, entityType, id string, req dto.GatedMutationRequest, actor *models.JWTClaims) (*dto.RouteOutcome, error) {
	m.lastType, m.lastID, m.lastReq = entityType, id, req
	return m.outcome()
}

func (m *gatedServiceMock) Update(ctx context.Context, entityType, id string, req dto.GatedMutationRequest, actor *models.JWTClaims) (*dto.RouteOutcome, error) {
	m.lastType, m.lastID, m.lastReq = entityType, id, req
	return m.outcome()
}

func entityParams(c *gin.Context) {
	c.Params = gin.Params{{Key: "type", Value: "enquiry"}, {Key: "id", Value: "enq-1"}}
}

func TestEntityHandlerDirectDelete(t *testing.T) {
	svc := &gatedServiceMock{route: models.RouteDirect}
	cache := &invalidatorStub{}
	h := NewEntityHandler(svc, cache)

	c, w := newTestContext(http.MethodDelete, "/entities/enquiry/enq-1", "", adminClaims())
	entityParams(c)
	h.Delete(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "enquiry", svc.lastType)
	assert.Equal(t, "enq-1", svc.lastID)
	assert.Equal(t, []models.Collection{models.CollectionEnquiries}, cache.collections)
}

func TestEntityHandlerDeferredDeleteIsAccepted(t *testing.T) {
	svc := &gatedServiceMock{route: models.RouteDeferred}
	h := NewEntityHandler(svc, &invalidatorStub{})

	c, w := newTestContext(http.MethodDelete, "/entities/enquiry/enq-1", `{"entity_name":"Asha","message":"duplicate"}`, counselorClaims())
	entityParams(c)
	h.Delete(c)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "duplicate", svc.lastReq.Message)
	body := decodeEnvelope(t, w)
	assert.Equal(t, "Request sent for approval", body.Meta["message"])
	assert.Contains(t, string(body.Data), `"route":"DEFERRED"`)
}

func TestEntityHandlerUpdatePassesChanges(t *testing.T) {
	svc := &gatedServiceMock{route: models.RouteDirect}
	h := NewEntityHandler(svc, nil)

	c, w := newTestContext(http.MethodPatch, "/entities/enquiry/enq-1", `{"changes":{"schoolName":"St. Mary"}}`, adminClaims())
	entityParams(c)
	h.Update(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"schoolName":"St. Mary"}`, string(svc.lastReq.Changes))
}

func TestEntityHandlerSubmissionFailure(t *testing.T) {
	cache := &invalidatorStub{}
	h := NewEntityHandler(&gatedServiceMock{err: appErrors.Clone(appErrors.ErrSubmission, "failed to submit approval request")}, cache)

	c, w := newTestContext(http.MethodDelete, "/entities/enquiry/enq-1", "", counselorClaims())
	entityParams(c)
	h.Delete(c)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Empty(t, cache.collections)
}
