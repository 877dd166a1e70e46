package dto

import (
	"encoding/json"

	"github.com/noah-isme/consultancy-crm-api/internal/models"
)

// TransferItem references one record to hand over together with its full current state.
type TransferItem struct {
	Type           string          `json:"type" validate:"required,oneof=enquiry registration"`
	ID             string          `json:"id" validate:"required"`
	OriginalRecord json.RawMessage `json:"original_record" validate:"required"`
}

// TransferRequest reassigns ownership of a batch of records.
type TransferRequest struct {
	Items    []TransferItem `json:"items" validate:"required,min=1,dive"`
	ToUserID string         `json:"to_user_id" validate:"required"`
	Note     string         `json:"note" validate:"max=1000"`
}

// TransferItemResult is the outcome for one record of a batch.
type TransferItemResult struct {
	Type    string `json:"type"`
	ID      string `json:"id"`
	Applied bool   `json:"applied"`
	Error   string `json:"error,omitempty"`
}

// TransferResult summarises a batch; Failed > 0 means the batch failed, possibly after partial success.
type TransferResult struct {
	ToUserID    string               `json:"to_user_id"`
	Items       []TransferItemResult `json:"items"`
	Applied     int                  `json:"applied"`
	Failed      int                  `json:"failed"`
	Invalidates []models.Collection  `json:"-"`
}
