package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"consultant-hub/internal/models"
)

// SessionCookie is the cookie set by the HTML login flow. The JSON API also
// accepts Authorization: Bearer.
const SessionCookie = "session"

const ctxConsultant = "consultant"

// tokenFrom pulls the session token from the Authorization header or the
// session cookie, header winning.
func tokenFrom(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if tok, err := c.Cookie(SessionCookie); err == nil {
		return tok
	}
	return ""
}

// SessionMiddleware resolves the token, if any, and stores the consultant
// on the context. Anonymous requests pass through. Installed on the whole
// engine so both the JSON API and the HTML pages see the same session.
func (h *Handler) SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tok := tokenFrom(c); tok != "" {
			if consultant, err := h.auth.Verify(c.Request.Context(), tok); err == nil {
				c.Set(ctxConsultant, consultant)
			}
		}
		c.Next()
	}
}

// requireAuth aborts with 401 when no valid session is attached.
func (h *Handler) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentConsultant(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

// CurrentConsultant returns the authenticated consultant, if any.
func CurrentConsultant(c *gin.Context) (*models.Consultant, bool) {
	v, ok := c.Get(ctxConsultant)
	if !ok {
		return nil, false
	}
	consultant, ok := v.(*models.Consultant)
	return consultant, ok
}
