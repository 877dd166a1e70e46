package handler

import (
	"context"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/consultancy-crm-api/internal/middleware"
	"github.com/noah-isme/consultancy-crm-api/internal/models"
)

type collectionInvalidator interface {
	InvalidateCollections(ctx context.Context, collections ...models.Collection) error
}

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.CurrentUser(c)
}

// invalidate drops cached reads touched by a successful mutation. Cache failures are logged by
// the cache service and never fail the request.
func invalidate(c *gin.Context, cache collectionInvalidator, collections []models.Collection) {
	if cache == nil || len(collections) == 0 {
		return
	}
	_ = cache.InvalidateCollections(c.Request.Context(), collections...)
}

func queryInt(c *gin.Context, key string) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0
	}
	return value
}

func queryList(c *gin.Context, key string) []string {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
