package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"consultant-hub/internal/auth"
	"consultant-hub/internal/media"
	"consultant-hub/internal/models"
)

type registerRequest struct {
	Handle         string `form:"handle" json:"handle" binding:"required"`
	Email          string `form:"email" json:"email" binding:"required,email"`
	Name           string `form:"name" json:"name" binding:"required"`
	Specialization string `form:"specialization" json:"specialization"`
	Bio            string `form:"bio" json:"bio"`
	Password       string `form:"password" json:"password" binding:"required,min=6"`
}

// RegisterConsultant accepts JSON or multipart (the latter may carry an
// avatar file).
func (h *Handler) RegisterConsultant(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in := auth.RegisterInput{
		Handle:         req.Handle,
		Email:          req.Email,
		Name:           req.Name,
		Specialization: req.Specialization,
		Bio:            req.Bio,
		Password:       req.Password,
	}

	if fh, err := c.FormFile("avatar"); err == nil {
		upload, cleanup, err := uploadFrom(fh)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read avatar"})
			return
		}
		defer cleanup()
		in.Avatar = upload
	}

	consultant, err := h.auth.Register(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, selfResponse(consultant))
}

// selfResponse is the owner's view of an account. It is the only payload
// that carries the email; public consultant payloads omit it.
func selfResponse(c *models.Consultant) gin.H {
	return gin.H{
		"id":             c.ID,
		"handle":         c.Handle,
		"email":          c.Email,
		"name":           c.Name,
		"specialization": c.Specialization,
		"bio":            c.Bio,
		"avatar_path":    c.AvatarPath,
		"created_at":     c.CreatedAt,
		"updated_at":     c.UpdatedAt,
	}
}

type loginRequest struct {
	Handle   string `form:"handle" json:"handle" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, consultant, err := h.auth.Login(c.Request.Context(), req.Handle, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "consultant": selfResponse(consultant)})
}

func (h *Handler) Logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context(), tokenFrom(c)); err != nil {
		h.writeError(c, err)
		return
	}
	c.SetCookie(SessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}

func (h *Handler) Me(c *gin.Context) {
	consultant, _ := CurrentConsultant(c)
	c.JSON(http.StatusOK, selfResponse(consultant))
}

// Pointer fields so an omitted field stays untouched instead of being
// cleared by its zero value.
type profileRequest struct {
	Name           *string `form:"name" json:"name"`
	Specialization *string `form:"specialization" json:"specialization"`
	Bio            *string `form:"bio" json:"bio"`
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	consultant, _ := CurrentConsultant(c)

	var req profileRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var avatar *media.Upload
	if fh, err := c.FormFile("avatar"); err == nil {
		upload, cleanup, err := uploadFrom(fh)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read avatar"})
			return
		}
		defer cleanup()
		avatar = upload
	}

	updated, err := h.auth.UpdateProfile(c.Request.Context(), consultant.ID, auth.ProfileUpdate{
		Name:           req.Name,
		Specialization: req.Specialization,
		Bio:            req.Bio,
		Avatar:         avatar,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, selfResponse(updated))
}
