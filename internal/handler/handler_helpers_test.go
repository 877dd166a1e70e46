package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/consultancy-crm-api/internal/middleware"
	"github.com/noah-isme/consultancy-crm-api/internal/models"
)

type invalidatorStub struct {
	collections []models.Collection
}

func (i *invalidatorStub) InvalidateCollections(ctx context.Context, collections ...models.Collection) error {
	i.collections = append(i.collections, collections...)
	return nil
}

func newTestContext(method, target, body string, claims *models.JWTClaims) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var req *http.Request
	if body == "" {
		req, _ = http.NewRequest(method, target, nil)
	} else {
		req, _ = http.NewRequest(method, target, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	c.Request = req
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c, w
}

type envelopeBody struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Meta map[string]interface{} `json:"meta"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelopeBody {
	t.Helper()
	var body envelopeBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func counselorClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "counselor-1", Role: models.RoleCounselor, CompanyID: "co-1"}
}

func adminClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "admin-1", Role: models.RoleCompanyAdmin, CompanyID: "co-1"}
}
