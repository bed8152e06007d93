package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"consultant-hub/internal/assistant"
	"consultant-hub/internal/media"
	"consultant-hub/internal/models"
)

type assistantQueryRequest struct {
	Query string `form:"query" binding:"required"`
}

// AssistantQuery sends one image plus a free-text question straight to the
// assistant and returns its answer. Open to anonymous visitors, like the quiz.
func (h *Handler) AssistantQuery(c *gin.Context) {
	var req assistantQueryRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fh, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}

	mime := fh.Header.Get("Content-Type")
	if mediaType, ok := media.TypeForMime(mime); !ok || mediaType != models.MediaTypeImage {
		h.writeError(c, media.ErrUnsupportedMediaType)
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read image"})
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read image"})
		return
	}

	text, err := h.assistant.Generate(c.Request.Context(), req.Query, &assistant.ImagePart{
		MimeType: mime,
		Data:     data,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"response": text, "model": h.assistant.Model()})
}
