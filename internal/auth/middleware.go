package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// SessionRequired is a Gin middleware that validates the session token from
// Authorization: Bearer <token> and checks it was issued for the :id in the path.
// A token close to expiry is replaced through the RenewedTokenHeader response header.
func SessionRequired(jwtManager *JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing Authorization header",
			})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid Authorization header format",
			})
			return
		}

		claims, err := jwtManager.ParseAndValidate(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired token",
			})
			return
		}

		if id := c.Param("id"); id != "" && id != claims.SessionID {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "token does not grant access to this session",
			})
			return
		}

		if renewed, ok, err := jwtManager.Renew(claims); err != nil {
			slog.Warn("Failed to renew session token", "session_id", claims.SessionID, "error", err)
		} else if ok {
			c.Header(RenewedTokenHeader, renewed)
		}

		// Store session info into Gin context for later handlers.
		c.Set(sessionIDKey, claims.SessionID)
		c.Set(roomIDKey, claims.RoomID)

		c.Next()
	}
}
