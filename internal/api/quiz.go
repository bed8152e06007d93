package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"consultant-hub/internal/media"
	"consultant-hub/internal/quiz"
)

type quizRequest struct {
	Answer1 string `form:"answer_1" json:"answer_1" binding:"required"`
	Answer2 string `form:"answer_2" json:"answer_2" binding:"required"`
	Answer3 string `form:"answer_3" json:"answer_3"`
}

// SubmitQuiz works for anonymous visitors too; a session only links the
// submission to its consultant.
func (h *Handler) SubmitQuiz(c *gin.Context) {
	var req quizRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var image *media.Upload
	if fh, err := c.FormFile("image"); err == nil {
		upload, cleanup, err := uploadFrom(fh)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read image"})
			return
		}
		defer cleanup()
		image = upload
	}

	var consultantID *string
	if consultant, ok := CurrentConsultant(c); ok {
		consultantID = &consultant.ID
	}

	sub, err := h.quiz.Submit(c.Request.Context(), consultantID, quiz.Answers{
		Answer1: req.Answer1,
		Answer2: req.Answer2,
		Answer3: req.Answer3,
	}, image)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}
