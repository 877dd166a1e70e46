package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/consultancy-crm-api/internal/dto"
	"github.com/noah-isme/consultancy-crm-api/internal/models"
	appErrors "github.com/noah-isme/consultancy-crm-api/pkg/errors"
)

type followUpServiceMock struct {
	lastQuery    dto.FollowUpQuery
	lastComplete dto.CompleteFollowUpRequest
	lastComment  dto.AddCommentRequest
	lastID       string
	result       *dto.FollowUpResult
	err          error
}

func (m *followUpServiceMock) List(ctx context.Context, query dto.FollowUpQuery, actor *models.JWTClaims) ([]models.FollowUp, error) {
	m.lastQuery = query
	return []models.FollowUp{{ID: "fu-1"}}, m.err
}

func (m *followUpServiceMock) GetDetails(ctx context.Context, id string, actor *models.JWTClaims) (*models.FollowUpDetail, error) {
	m.lastID = id
	if m.err != nil {
		return nil, m.err
	}
	return &models.FollowUpDetail{FollowUp: models.FollowUp{ID: id}}, nil
}

func (m *followUpServiceMock) Create(ctx context.Context, req dto.CreateFollowUpRequest, actor *models.JWTClaims) (*dto.FollowUpResult, error) {
	return m.result, m.err
}

func (m *followUpServiceMock) Reschedule(ctx context.Context, id string, req dto.RescheduleFollowUpRequest, actor *models.JWTClaims) (*dto.FollowUpResult, error) {
	m.lastID = id
	return m.result, m.err
}

func (m *followUpServiceMock) Complete(ctx context.Context, id string, req dto.CompleteFollowUpRequest, actor *models.JWTClaims) (*dto.FollowUpResult, error) {
	m.lastID = id
	m.lastComplete = req
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func (m *followUpServiceMock) AddComment(ctx context.Context, id string, req dto.AddCommentRequest, actor *models.JWTClaims) (*dto.FollowUpResult, error) {
	m.lastID = id
	m.lastComment = req
	return m.result, m.err
}

func (m *followUpServiceMock) DeleteComment(ctx context.Context, commentID string, actor *models.JWTClaims) (*dto.FollowUpResult, error) {
	m.lastID = commentID
	return m.result, m.err
}

func followUpResult() *dto.FollowUpResult {
	return &dto.FollowUpResult{
		FollowUp:    &models.FollowUpDetail{FollowUp: models.FollowUp{ID: "fu-1", Status: models.FollowUpStatusCompleted}},
		Invalidates: []models.Collection{models.CollectionFollowUps},
	}
}

func TestFollowUpHandlerListParsesFilters(t *testing.T) {
	svc := &followUpServiceMock{}
	h := NewFollowUpHandler(svc, &invalidatorStub{})

	c, w := newTestContext(http.MethodGet, "/follow-ups?status=pending,MISSED&assigned_to=u-2&limit=20", "", counselorClaims())
	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []models.FollowUpStatus{models.FollowUpStatusPending, models.FollowUpStatusMissed}, svc.lastQuery.Status)
	assert.Equal(t, "u-2", svc.lastQuery.AssignedTo)
	assert.Equal(t, 20, svc.lastQuery.Limit)
}

func TestFollowUpHandlerListRejectsUnknownStatus(t *testing.T) {
	h := NewFollowUpHandler(&followUpServiceMock{}, nil)

	c, w := newTestContext(http.MethodGet, "/follow-ups?status=Archived", "", counselorClaims())
	h.List(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFollowUpHandlerCompleteInvalidates(t *testing.T) {
	svc := &followUpServiceMock{result: followUpResult()}
	cache := &invalidatorStub{}
	h := NewFollowUpHandler(svc, cache)

	c, w := newTestContext(http.MethodPost, "/follow-ups/fu-1/complete", `{"comment":"done","admission_possibility":70}`, counselorClaims())
	c.Params = gin.Params{{Key: "id", Value: "fu-1"}}
	h.Complete(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "fu-1", svc.lastID)
	assert.Equal(t, "done", svc.lastComplete.Comment)
	require.NotNil(t, svc.lastComplete.AdmissionPossibility)
	assert.Equal(t, 70, *svc.lastComplete.AdmissionPossibility)
	assert.Equal(t, []models.Collection{models.CollectionFollowUps}, cache.collections)
}

func TestFollowUpHandlerCompleteConflict(t *testing.T) {
	svc := &followUpServiceMock{err: appErrors.Clone(appErrors.ErrConflict, "follow-up already completed")}
	cache := &invalidatorStub{}
	h := NewFollowUpHandler(svc, cache)

	c, w := newTestContext(http.MethodPost, "/follow-ups/fu-1/complete", `{"comment":"again"}`, counselorClaims())
	c.Params = gin.Params{{Key: "id", Value: "fu-1"}}
	h.Complete(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CONFLICT", decodeEnvelope(t, w).Error.Code)
	assert.Empty(t, cache.collections)
}

func TestFollowUpHandlerAddCommentReply(t *testing.T) {
	svc := &followUpServiceMock{result: followUpResult()}
	h := NewFollowUpHandler(svc, nil)

	c, w := newTestContext(http.MethodPost, "/follow-ups/fu-1/comments", `{"comment":"re","parent_comment":"c-1"}`, counselorClaims())
	c.Params = gin.Params{{Key: "id", Value: "fu-1"}}
	h.AddComment(c)

	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, svc.lastComment.ParentID)
	assert.Equal(t, "c-1", *svc.lastComment.ParentID)
}

func TestFollowUpHandlerBadJSONAndMissingClaims(t *testing.T) {
	h := NewFollowUpHandler(&followUpServiceMock{}, nil)

	c, w := newTestContext(http.MethodPatch, "/follow-ups/fu-1/reschedule", `{"scheduled_for":`, counselorClaims())
	h.Reschedule(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = newTestContext(http.MethodGet, "/follow-ups/fu-1", "", nil)
	h.Get(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestFollowUpHandlerDeleteCommentUsesCommentParam(t *testing.T) {
	svc := &followUpServiceMock{result: followUpResult()}
	h := NewFollowUpHandler(svc, nil)

	c, w := newTestContext(http.MethodDelete, "/follow-up-comments/c-9", "", adminClaims())
	c.Params = gin.Params{{Key: "commentId", Value: "c-9"}}
	h.DeleteComment(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "c-9", svc.lastID)
}
