package session

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// CookieName carries the opaque session identifier across page loads.
	CookieName = "console_session"

	contextKey = "sessionId"
	idPrefix   = "sess_"

	cookieMaxAge = 12 * 60 * 60
)

// Middleware ensures every request carries a session ID, issuing one when
// absent, and stores it in the gin context for handlers and logging.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := resolveID(c)
		if id == "" {
			id = NewID()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(CookieName, id, cookieMaxAge, "/", "", false, true)
		}
		c.Set(contextKey, id)
		c.Next()
	}
}

// FromContext returns the session ID stored by Middleware.
func FromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(contextKey)
}

// NewID issues a fresh opaque session identifier.
func NewID() string {
	return idPrefix + uuid.NewString()
}

// Valid reports whether id looks like an identifier this console issued or a
// backend-issued opaque token. Anything non-blank without path separators is
// accepted; session IDs are opaque by contract.
func Valid(id string) bool {
	if strings.TrimSpace(id) == "" {
		return false
	}
	return !strings.ContainsAny(id, "/\\ ")
}

func resolveID(c *gin.Context) string {
	if header := strings.TrimSpace(c.GetHeader("X-Session-Id")); header != "" && Valid(header) {
		return header
	}
	if cookie, err := c.Cookie(CookieName); err == nil && Valid(cookie) {
		return cookie
	}
	return ""
}
