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

type approvalService interface {
	Create(ctx context.Context, req dto.CreateApprovalRequest, actor *models.JWTClaims) (*dto.ApprovalResult, error)
	List(ctx context.Context, query dto.ApprovalQuery, actor *models.JWTClaims) ([]models.ApprovalRequest, error)
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.ApprovalRequest, error)
	PendingCount(ctx context.Context, actor *models.JWTClaims) (int, error)
	Approve(ctx context.Context, id string, req dto.ReviewApprovalRequest, actor *models.JWTClaims) (*dto.ApprovalResult, error)
	Reject(ctx context.Context, id string, req dto.ReviewApprovalRequest, actor *models.JWTClaims) (*dto.ApprovalResult, error)
}

// ApprovalHandler exposes REST endpoints for approval requests.
type ApprovalHandler struct {
	service approvalService
	cache   collectionInvalidator
}

// NewApprovalHandler constructs the handler.
func NewApprovalHandler(service approvalService, cache collectionInvalidator) *ApprovalHandler {
	return &ApprovalHandler{service: service, cache: cache}
}

// Create godoc
// @Summary Submit an approval request
// @Tags Approvals
// @Accept json
// @Produce json
// @Param payload body dto.CreateApprovalRequest true "Approval payload"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /approval-requests [post]
func (h *ApprovalHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid approval payload"))
		return
	}
	result, err := h.service.Create(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	invalidate(c, h.cache, result.Invalidates)
	response.Created(c, result.Request)
}

// List godoc
// @Summary List approval requests
// @Tags Approvals
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Param entity_type query string false "Entity type"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} response.Envelope
// @Router /approval-requests [get]
func (h *ApprovalHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	query := dto.ApprovalQuery{
		EntityType: c.Query("entity_type"),
		Limit:      queryInt(c, "limit"),
		Offset:     queryInt(c, "offset"),
	}
	for _, raw := range queryList(c, "status") {
		query.Status = append(query.Status, models.ApprovalStatus(strings.ToUpper(raw)))
	}
	items, err := h.service.List(c.Request.Context(), query, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// PendingCount godoc
// @Summary Count pending approval requests
// @Tags Approvals
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /approval-requests/pending-count [get]
func (h *ApprovalHandler) PendingCount(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	count, err := h.service.PendingCount(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"count": count}, nil)
}

// Get godoc
// @Summary Get approval request detail
// @Tags Approvals
// @Produce json
// @Param id path string true "Approval request ID"
// @Success 200 {object} response.Envelope
// @Router /approval-requests/{id} [get]
func (h *ApprovalHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	item, err := h.service.Get(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Approve godoc
// @Summary Approve and apply a pending request
// @Tags Approvals
// @Accept json
// @Produce json
// @Param id path string true "Approval request ID"
// @Param payload body dto.ReviewApprovalRequest false "Review note"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /approval-requests/{id}/approve [post]
func (h *ApprovalHandler) Approve(c *gin.Context) {
	h.review(c, h.service.Approve)
}

// Reject godoc
// @Summary Reject a pending request
// @Tags Approvals
// @Accept json
// @Produce json
// @Param id path string true "Approval request ID"
// @Param payload body dto.ReviewApprovalRequest true "Review note"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /approval-requests/{id}/reject [post]
func (h *ApprovalHandler) Reject(c *gin.Context) {
	h.review(c, h.service.Reject)
}

type reviewFunc func(ctx context.Context, id string, req dto.ReviewApprovalRequest, actor *models.JWTClaims) (*dto.ApprovalResult, error)

func (h *ApprovalHandler) review(c *gin.Context, decide reviewFunc) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.ReviewApprovalRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid review payload"))
			return
		}
	}
	result, err := decide(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	invalidate(c, h.cache, result.Invalidates)
	response.JSON(c, http.StatusOK, result.Request, nil)
}
