package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"consultant-hub/internal/assistant"
	"consultant-hub/internal/auth"
	"consultant-hub/internal/media"
	"consultant-hub/internal/posts"
	"consultant-hub/internal/quiz"
	"consultant-hub/internal/social"
)

// writeError is the single place service errors become HTTP status codes.
// Internal failures are logged and returned as a generic message.
func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, auth.ErrValidation),
		errors.Is(err, posts.ErrValidation),
		errors.Is(err, social.ErrValidation),
		errors.Is(err, quiz.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, posts.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, posts.ErrNotFound),
		errors.Is(err, social.ErrNotFound),
		errors.Is(err, auth.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, auth.ErrDuplicateHandle):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, social.ErrSelfFollow):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, media.ErrUnsupportedMediaType):
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": err.Error()})
	case errors.Is(err, assistant.ErrDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		h.log.Error("internal error", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
