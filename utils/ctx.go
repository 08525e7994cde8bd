package utils

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func CurrentUserID(c *gin.Context) uint {
	v, _ := c.Get("userId")
	switch id := v.(type) {
	case uint:
		return id
	case int:
		return uint(id)
	case int64:
		return uint(id)
	case float64:
		return uint(id)
	default:
		return 0
	}
}

func CurrentRole(c *gin.Context) string {
	if v, ok := c.Get("role"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// SessionID returns the guest session id from the request, minting one when
// the client has none yet. The id is echoed back via the X-Session-Id header
// so the storefront can persist it.
func SessionID(c *gin.Context) string {
	sid := c.GetHeader("X-Session-Id")
	if sid == "" {
		sid = uuid.NewString()
	}
	c.Header("X-Session-Id", sid)
	return sid
}
