package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/consultancy-crm-api/internal/dto"
	"github.com/noah-isme/consultancy-crm-api/internal/models"
	appErrors "github.com/noah-isme/consultancy-crm-api/pkg/errors"
	"github.com/noah-isme/consultancy-crm-api/pkg/response"
)

type followUpService interface {
	List(ctx context.Context, query dto.FollowUpQuery, actor *models.JWTClaims) ([]models.FollowUp, error)
	GetDetails(ctx context.Context, id string, actor *models.JWTClaims) (*models.FollowUpDetail, error)
	Create(ctx context.Context, req dto.CreateFollowUpRequest, actor *models.JWTClaims) (*dto.FollowUpResult, error)
	Reschedule(ctx context.Context, id string, req dto.RescheduleFollowUpRequest, actor *models.JWTClaims) (*dto.FollowUpResult, error)
	Complete(ctx context.Context, id string, req dto.CompleteFollowUpRequest, actor *models.JWTClaims) (*dto.FollowUpResult, error)
	AddComment(ctx context.Context, id string, req dto.AddCommentRequest, actor *models.JWTClaims) (*dto.FollowUpResult, error)
	DeleteComment(ctx context.Context, commentID string, actor *models.JWTClaims) (*dto.FollowUpResult, error)
}

// FollowUpHandler exposes follow-up and comment endpoints.
type FollowUpHandler struct {
	service followUpService
	cache   collectionInvalidator
}

// NewFollowUpHandler constructs the handler.
func NewFollowUpHandler(service followUpService, cache collectionInvalidator) *FollowUpHandler {
	return &FollowUpHandler{service: service, cache: cache}
}

// List godoc
// @Summary List follow-ups
// @Tags FollowUps
// @Produce json
// @Param status query string false "Comma separated statuses (Pending,Completed,Missed)"
// @Param assigned_to query string false "Assignee user ID"
// @Param enquiry_id query string false "Enquiry ID"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} response.Envelope
// @Router /follow-ups [get]
func (h *FollowUpHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	query := dto.FollowUpQuery{
		AssignedTo: strings.TrimSpace(c.Query("assigned_to")),
		EnquiryID:  strings.TrimSpace(c.Query("enquiry_id")),
		Limit:      queryInt(c, "limit"),
		Offset:     queryInt(c, "offset"),
	}
	for _, raw := range queryList(c, "status") {
		status, ok := parseFollowUpStatus(raw)
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown follow-up status: "+raw))
			return
		}
		query.Status = append(query.Status, status)
	}
	items, err := h.service.List(c.Request.Context(), query, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Create godoc
// @Summary Schedule a follow-up
// @Tags FollowUps
// @Accept json
// @Produce json
// @Param payload body dto.CreateFollowUpRequest true "Follow-up payload"
// @Success 201 {object} response.Envelope
// @Router /follow-ups [post]
func (h *FollowUpHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateFollowUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid follow-up payload"))
		return
	}
	result, err := h.service.Create(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	invalidate(c, h.cache, result.Invalidates)
	response.Created(c, result.FollowUp)
}

// Get godoc
// @Summary Get a follow-up with its comment thread
// @Tags FollowUps
// @Produce json
// @Param id path string true "Follow-up ID"
// @Success 200 {object} response.Envelope
// @Router /follow-ups/{id} [get]
func (h *FollowUpHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	detail, err := h.service.GetDetails(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Reschedule godoc
// @Summary Reschedule a follow-up
// @Tags FollowUps
// @Accept json
// @Produce json
// @Param id path string true "Follow-up ID"
// @Param payload body dto.RescheduleFollowUpRequest true "New slot"
// @Success 200 {object} response.Envelope
// @Router /follow-ups/{id}/reschedule [patch]
func (h *FollowUpHandler) Reschedule(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.RescheduleFollowUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid reschedule payload"))
		return
	}
	result, err := h.service.Reschedule(c.Request.Context(), c.Param("id"), req, claims)
	h.respond(c, http.StatusOK, result, err)
}

// Complete godoc
// @Summary Complete a follow-up with a closing comment
// @Tags FollowUps
// @Accept json
// @Produce json
// @Param id path string true "Follow-up ID"
// @Param payload body dto.CompleteFollowUpRequest true "Completion payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /follow-ups/{id}/complete [post]
func (h *FollowUpHandler) Complete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CompleteFollowUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid completion payload"))
		return
	}
	result, err := h.service.Complete(c.Request.Context(), c.Param("id"), req, claims)
	h.respond(c, http.StatusOK, result, err)
}

// AddComment godoc
// @Summary Comment on a follow-up
// @Tags FollowUps
// @Accept json
// @Produce json
// @Param id path string true "Follow-up ID"
// @Param payload body dto.AddCommentRequest true "Comment payload"
// @Success 201 {object} response.Envelope
// @Router /follow-ups/{id}/comments [post]
func (h *FollowUpHandler) AddComment(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid comment payload"))
		return
	}
	result, err := h.service.AddComment(c.Request.Context(), c.Param("id"), req, claims)
	h.respond(c, http.StatusCreated, result, err)
}

// DeleteComment godoc
// @Summary Delete a follow-up comment
// @Tags FollowUps
// @Produce json
// @Param commentId path string true "Comment ID"
// @Success 200 {object} response.Envelope
// @Router /follow-up-comments/{commentId} [delete]
func (h *FollowUpHandler) DeleteComment(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	result, err := h.service.DeleteComment(c.Request.Context(), c.Param("commentId"), claims)
	h.respond(c, http.StatusOK, result, err)
}

func (h *FollowUpHandler) respond(c *gin.Context, status int, result *dto.FollowUpResult, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	invalidate(c, h.cache, result.Invalidates)
	response.JSON(c, status, result, nil)
}

func parseFollowUpStatus(raw string) (models.FollowUpStatus, bool) {
	for _, status := range []models.FollowUpStatus{models.FollowUpStatusPending, models.FollowUpStatusCompleted, models.FollowUpStatusMissed} {
		if strings.EqualFold(raw, string(status)) {
			return status, true
		}
	}
	return "", false
}
