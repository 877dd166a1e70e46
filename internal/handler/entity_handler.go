package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/consultancy-crm-api/internal/dto"
	"github.com/noah-isme/consultancy-crm-api/internal/models"
	appErrors "github.com/noah-isme/consultancy-crm-api/pkg/errors"
	"github.com/noah-isme/consultancy-crm-api/pkg/response"
)

type gatedMutationService interface {
	Delete(ctx context.Context, entityType, id string, req dto.GatedMutationRequest, actor *models.JWTClaims) (*dto.RouteOutcome, error)
	Update(ctx context.Context, entityType, id string, req dto.GatedMutationRequest, actor *models.JWTClaims) (*dto.RouteOutcome, error)
}

// EntityHandler exposes gated deletes and updates of enquiries, registrations and enrollments.
type EntityHandler struct {
	service gatedMutationService
	cache   collectionInvalidator
}

// NewEntityHandler constructs the handler.
func NewEntityHandler(service gatedMutationService, cache collectionInvalidator) *EntityHandler {
	return &EntityHandler{service: service, cache: cache}
}

// Delete godoc
// @Summary Delete an entity or request its deletion
// @Description Admins delete immediately (200). Other roles get a pending approval request (202).
// @Tags Entities
// @Accept json
// @Produce json
// @Param type path string true "enquiry, registration or enrollment"
// @Param id path string true "Entity ID"
// @Param payload body dto.GatedMutationRequest false "Justification"
// @Success 200 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /entities/{type}/{id} [delete]
func (h *EntityHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.GatedMutationRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid delete payload"))
			return
		}
	}
	outcome, err := h.service.Delete(c.Request.Context(), c.Param("type"), c.Param("id"), req, claims)
	h.respond(c, outcome, err)
}

// Update godoc
// @Summary Update an entity or propose the change for review
// @Description Admins update immediately (200). Other roles get a pending approval request (202).
// @Tags Entities
// @Accept json
// @Produce json
// @Param type path string true "enquiry, registration or enrollment"
// @Param id path string true "Entity ID"
// @Param payload body dto.GatedMutationRequest true "Changes"
// @Success 200 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /entities/{type}/{id} [patch]
func (h *EntityHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.GatedMutationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid update payload"))
		return
	}
	outcome, err := h.service.Update(c.Request.Context(), c.Param("type"), c.Param("id"), req, claims)
	h.respond(c, outcome, err)
}

func (h *EntityHandler) respond(c *gin.Context, outcome *dto.RouteOutcome, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	invalidate(c, h.cache, outcome.Invalidates)
	if outcome.Route == models.RouteDeferred {
		response.Accepted(c, outcome, map[string]interface{}{"message": "Request sent for approval"})
		return
	}
	response.JSON(c, http.StatusOK, outcome, nil)
}
