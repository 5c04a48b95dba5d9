package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/klipworks/kliping/models"
)

// Auth returns bearer-token authentication middleware.
//
// Every request must carry `Authorization: Bearer <token>` matching the
// configured secret. An absent or malformed header is 401; a present
// but mismatched token is 403. If token is empty, the middleware is a
// no-op (open access).
func Auth(token string) gin.HandlerFunc {
	if token == "" {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		presented, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ScrapeResponse{
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeUnauthorized,
					Message: "missing or malformed Authorization header: expected Bearer <token>",
				},
			})
			return
		}

		if presented != token {
			c.AbortWithStatusJSON(http.StatusForbidden, models.ScrapeResponse{
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeForbidden,
					Message: "invalid token",
				},
			})
			return
		}

		c.Next()
	}
}

// bearerToken extracts the token from an `Authorization: Bearer <t>` header.
func bearerToken(c *gin.Context) (string, bool) {
	auth := c.GetHeader("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", false
	}
	t := strings.TrimPrefix(auth, "Bearer ")
	if t == "" {
		return "", false
	}
	return t, true
}
