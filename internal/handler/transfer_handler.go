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

type transferService interface {
	Transfer(ctx context.Context, req dto.TransferRequest, actor *models.JWTClaims) (*dto.TransferResult, error)
}

type ownedStudentsService interface {
	Mine(ctx context.Context, actor *models.JWTClaims) (*models.OwnedStudents, error)
}

// TransferHandler exposes ownership transfer of students between staff.
type TransferHandler struct {
	transfers transferService
	students  ownedStudentsService
	cache     collectionInvalidator
}

// NewTransferHandler constructs the handler.
func NewTransferHandler(transfers transferService, students ownedStudentsService, cache collectionInvalidator) *TransferHandler {
	return &TransferHandler{transfers: transfers, students: students, cache: cache}
}

// Mine godoc
// @Summary List enquiries and registrations owned by the caller
// @Tags Transfers
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /students/mine [get]
func (h *TransferHandler) Mine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	owned, err := h.students.Mine(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, owned, nil)
}

// Transfer godoc
// @Summary Transfer ownership of students to another staff member
// @Description Items are applied independently. On partial failure the response is 422 and carries per-item outcomes.
// @Tags Transfers
// @Accept json
// @Produce json
// @Param payload body dto.TransferRequest true "Transfer batch"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /transfers [post]
func (h *TransferHandler) Transfer(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid transfer payload"))
		return
	}
	result, err := h.transfers.Transfer(c.Request.Context(), req, claims)
	if result != nil {
		invalidate(c, h.cache, result.Invalidates)
	}
	if err != nil {
		if result != nil {
			response.ErrorWithData(c, err, result)
			return
		}
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
