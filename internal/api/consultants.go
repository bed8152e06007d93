package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// GetConsultant returns the public profile with its recent posts and
// follower count.
func (h *Handler) GetConsultant(c *gin.Context) {
	id := c.Param("id")

	consultant, err := h.auth.GetConsultant(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	viewerID := ""
	if viewer, ok := CurrentConsultant(c); ok {
		viewerID = viewer.ID
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	list, err := h.posts.ListByConsultant(c.Request.Context(), id, viewerID, page, pageSize)
	if err != nil {
		h.writeError(c, err)
		return
	}

	followers, err := h.social.FollowerCount(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"consultant": consultant,
		"posts":      list,
		"followers":  followers,
	})
}
