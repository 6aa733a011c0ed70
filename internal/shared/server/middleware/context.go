package middleware

import "github.com/gin-gonic/gin"

// Context keys handlers set so request logs can carry wizard identifiers.
const (
	SessionIDKey = "sessionId"
	FileIDKey    = "fileId"
	StepKey      = "step"
)

// SessionIDFromContext returns the session a request addressed, preferring
// the value a handler stored over the raw route parameter.
func SessionIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	if val, ok := c.Get(SessionIDKey); ok {
		if id, ok := val.(string); ok && id != "" {
			return id
		}
	}
	return c.Param("id")
}
