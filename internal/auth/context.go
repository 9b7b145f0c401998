package auth

import "github.com/gin-gonic/gin"

const (
	sessionIDKey = "sessionID"
	roomIDKey    = "roomID"
)

// GetSessionID returns the authenticated session's ID or empty string.
func GetSessionID(c *gin.Context) string {
	if v, ok := c.Get(sessionIDKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// GetRoomID returns the room the session token was issued for, or 0.
func GetRoomID(c *gin.Context) int64 {
	if v, ok := c.Get(roomIDKey); ok {
		if id, ok := v.(int64); ok {
			return id
		}
	}
	return 0
}
