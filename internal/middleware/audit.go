package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/consultancy-crm-api/internal/models"
)

// AuditMeta attaches the client address and user agent to the request context so that
// audit entries written by services identify who made the change.
func AuditMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := models.WithRequestMeta(c.Request.Context(), models.RequestMeta{
			IPAddress: c.ClientIP(),
			UserAgent: c.GetHeader("User-Agent"),
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
