package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ToggleLike(c *gin.Context) {
	consultant, _ := CurrentConsultant(c)

	liked, err := h.social.ToggleLike(c.Request.Context(), consultant.ID, c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": liked})
}

type commentRequest struct {
	Body string `form:"body" json:"body" binding:"required"`
}

func (h *Handler) AddComment(c *gin.Context) {
	consultant, _ := CurrentConsultant(c)

	var req commentRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := h.social.AddComment(c.Request.Context(), consultant.ID, c.Param("id"), req.Body)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (h *Handler) ListComments(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))

	comments, err := h.social.ListComments(c.Request.Context(), c.Param("id"), page, pageSize)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"page": page, "page_size": pageSize, "items": comments})
}

func (h *Handler) Follow(c *gin.Context) {
	consultant, _ := CurrentConsultant(c)

	if err := h.social.Follow(c.Request.Context(), consultant.ID, c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "following"})
}

func (h *Handler) Unfollow(c *gin.Context) {
	consultant, _ := CurrentConsultant(c)

	if err := h.social.Unfollow(c.Request.Context(), consultant.ID, c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "unfollowed"})
}
