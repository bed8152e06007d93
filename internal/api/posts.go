package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"consultant-hub/internal/media"
	"consultant-hub/internal/posts"
)

// mediaUploads collects the multipart "media" files of a request.
func mediaUploads(c *gin.Context) ([]media.Upload, []func(), error) {
	form, err := c.MultipartForm()
	if err != nil {
		// Plain form posts without files are fine.
		return nil, nil, nil
	}

	var uploads []media.Upload
	var cleanups []func()
	for _, fh := range form.File["media"] {
		u, cleanup, err := uploadFrom(fh)
		if err != nil {
			for _, fn := range cleanups {
				fn()
			}
			return nil, nil, err
		}
		uploads = append(uploads, *u)
		cleanups = append(cleanups, cleanup)
	}
	return uploads, cleanups, nil
}

func (h *Handler) CreatePost(c *gin.Context) {
	consultant, _ := CurrentConsultant(c)

	uploads, cleanups, err := mediaUploads(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read media"})
		return
	}
	defer func() {
		for _, fn := range cleanups {
			fn()
		}
	}()

	post, err := h.posts.Create(c.Request.Context(), consultant.ID, c.PostForm("body"), uploads)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (h *Handler) Feed(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	list, err := h.posts.Feed(c.Request.Context(), posts.FeedFilter{
		Query:          c.Query("q"),
		Specialization: c.Query("specialization"),
		Page:           page,
		PageSize:       pageSize,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	ids := make([]string, len(list))
	for i, p := range list {
		ids[i] = p.ID
	}
	counts, err := h.social.CountsFor(c.Request.Context(), ids)
	if err != nil {
		h.writeError(c, err)
		return
	}

	items := make([]gin.H, len(list))
	for i, p := range list {
		n := counts[p.ID]
		items[i] = gin.H{"post": p, "likes": n.Likes, "comments": n.Comments}
	}
	c.JSON(http.StatusOK, gin.H{"page": page, "page_size": pageSize, "items": items})
}

func (h *Handler) GetPost(c *gin.Context) {
	post, err := h.posts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *Handler) UpdatePost(c *gin.Context) {
	consultant, _ := CurrentConsultant(c)

	uploads, cleanups, err := mediaUploads(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read media"})
		return
	}
	defer func() {
		for _, fn := range cleanups {
			fn()
		}
	}()

	post, err := h.posts.Update(c.Request.Context(), consultant.ID, c.Param("id"), c.PostForm("body"), uploads)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *Handler) DeletePost(c *gin.Context) {
	consultant, _ := CurrentConsultant(c)

	if err := h.posts.Delete(c.Request.Context(), consultant.ID, c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "post deleted"})
}
