package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"consultant-hub/internal/api"
	"consultant-hub/internal/auth"
	"consultant-hub/internal/media"
	"consultant-hub/internal/models"
	"consultant-hub/internal/posts"
	"consultant-hub/internal/quiz"
	"consultant-hub/internal/social"
)

// Handler serves the visitor- and consultant-facing HTML pages.
type Handler struct {
	auth   *auth.Service
	posts  *posts.Service
	social *social.Service
	quiz   *quiz.Service
	log    *zap.Logger
}

func NewHandler(authSvc *auth.Service, postSvc *posts.Service, socialSvc *social.Service, quizSvc *quiz.Service, log *zap.Logger) *Handler {
	return &Handler{auth: authSvc, posts: postSvc, social: socialSvc, quiz: quizSvc, log: log}
}

func (h *Handler) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/login", h.LoginPage)
	r.POST("/login", h.LoginSubmit)
	r.GET("/signup", h.SignupPage)
	r.POST("/signup", h.SignupSubmit)
	r.GET("/logout", h.LogoutSubmit)
	r.GET("/feed", h.FeedPage)
	r.GET("/consultants/:id", h.ProfilePage)
	r.GET("/dashboard", h.DashboardPage)
	r.POST("/dashboard/posts", h.CreatePostSubmit)
	r.GET("/quiz", h.QuizPage)
	r.POST("/quiz", h.QuizSubmit)
}

func (h *Handler) viewer(c *gin.Context) *models.Consultant {
	consultant, _ := api.CurrentConsultant(c)
	return consultant
}

// Root sends consultants to their dashboard and everyone else to the feed.
func (h *Handler) Root(c *gin.Context) {
	if h.viewer(c) != nil {
		c.Redirect(http.StatusSeeOther, "/dashboard")
		return
	}
	c.Redirect(http.StatusSeeOther, "/feed")
}

func (h *Handler) LoginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", AuthPage{Viewer: viewerView(h.viewer(c))})
}

func (h *Handler) LoginSubmit(c *gin.Context) {
	token, _, err := h.auth.Login(c.Request.Context(), c.PostForm("handle"), c.PostForm("password"))
	if errors.Is(err, auth.ErrInvalidCredentials) {
		c.HTML(http.StatusUnauthorized, "login.html", AuthPage{Error: "Incorrect handle or password."})
		return
	}
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.SetCookie(api.SessionCookie, token, 0, "/", "", false, true)
	c.Redirect(http.StatusSeeOther, "/dashboard")
}

func (h *Handler) SignupPage(c *gin.Context) {
	c.HTML(http.StatusOK, "signup.html", AuthPage{Viewer: viewerView(h.viewer(c))})
}

func (h *Handler) SignupSubmit(c *gin.Context) {
	in := auth.RegisterInput{
		Handle:         c.PostForm("handle"),
		Email:          c.PostForm("email"),
		Name:           c.PostForm("name"),
		Specialization: c.PostForm("specialization"),
		Bio:            c.PostForm("bio"),
		Password:       c.PostForm("password"),
	}
	if fh, err := c.FormFile("avatar"); err == nil {
		f, err := fh.Open()
		if err == nil {
			defer f.Close()
			in.Avatar = &media.Upload{
				Filename:    fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Data:        f,
			}
		}
	}

	if _, err := h.auth.Register(c.Request.Context(), in); err != nil {
		if msg, ok := formMessage(err); ok {
			c.HTML(http.StatusBadRequest, "signup.html", AuthPage{Error: msg})
			return
		}
		h.renderError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/login")
}

func (h *Handler) LogoutSubmit(c *gin.Context) {
	if tok, err := c.Cookie(api.SessionCookie); err == nil && tok != "" {
		if err := h.auth.Logout(c.Request.Context(), tok); err != nil {
			h.log.Warn("logout failed", zap.Error(err))
		}
	}
	c.SetCookie(api.SessionCookie, "", -1, "/", "", false, true)
	c.Redirect(http.StatusSeeOther, "/login")
}

func (h *Handler) FeedPage(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	filter := posts.FeedFilter{
		Query:          c.Query("q"),
		Specialization: c.Query("specialization"),
		Page:           page,
	}

	list, err := h.posts.Feed(c.Request.Context(), filter)
	if err != nil {
		h.renderError(c, err)
		return
	}
	views, err := h.withCounts(c, list)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.HTML(http.StatusOK, "feed.html", FeedPage{
		Viewer:         viewerView(h.viewer(c)),
		Query:          filter.Query,
		Specialization: filter.Specialization,
		Posts:          views,
	})
}

func (h *Handler) ProfilePage(c *gin.Context) {
	id := c.Param("id")
	consultant, err := h.auth.GetConsultant(c.Request.Context(), id)
	if err != nil {
		h.renderError(c, err)
		return
	}

	viewerID := ""
	if v := h.viewer(c); v != nil {
		viewerID = v.ID
	}
	list, err := h.posts.ListByConsultant(c.Request.Context(), id, viewerID, 1, posts.DefaultPageSize)
	if err != nil {
		h.renderError(c, err)
		return
	}
	views, err := h.withCounts(c, list)
	if err != nil {
		h.renderError(c, err)
		return
	}
	followers, err := h.social.FollowerCount(c.Request.Context(), id)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.HTML(http.StatusOK, "profile.html", ProfilePage{
		Viewer:     viewerView(h.viewer(c)),
		Consultant: consultantView(consultant),
		Followers:  followers,
		Posts:      views,
	})
}

func (h *Handler) DashboardPage(c *gin.Context) {
	viewer := h.viewer(c)
	if viewer == nil {
		c.Redirect(http.StatusSeeOther, "/login")
		return
	}

	list, err := h.posts.ListByConsultant(c.Request.Context(), viewer.ID, viewer.ID, 1, posts.DefaultPageSize)
	if err != nil {
		h.renderError(c, err)
		return
	}
	views, err := h.withCounts(c, list)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.HTML(http.StatusOK, "dashboard.html", DashboardPage{Viewer: viewerView(viewer), Posts: views})
}

func (h *Handler) CreatePostSubmit(c *gin.Context) {
	viewer := h.viewer(c)
	if viewer == nil {
		c.Redirect(http.StatusSeeOther, "/login")
		return
	}

	var uploads []media.Upload
	if form, err := c.MultipartForm(); err == nil {
		for _, fh := range form.File["media"] {
			f, err := fh.Open()
			if err != nil {
				continue
			}
			defer f.Close()
			uploads = append(uploads, media.Upload{
				Filename:    fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Data:        f,
			})
		}
	}

	if _, err := h.posts.Create(c.Request.Context(), viewer.ID, c.PostForm("body"), uploads); err != nil {
		msg, ok := formMessage(err)
		if !ok {
			h.renderError(c, err)
			return
		}
		list, lerr := h.posts.ListByConsultant(c.Request.Context(), viewer.ID, viewer.ID, 1, posts.DefaultPageSize)
		if lerr != nil {
			h.renderError(c, lerr)
			return
		}
		views, verr := h.withCounts(c, list)
		if verr != nil {
			h.renderError(c, verr)
			return
		}
		c.HTML(http.StatusBadRequest, "dashboard.html", DashboardPage{
			Viewer: viewerView(viewer),
			Posts:  views,
			Error:  msg,
		})
		return
	}
	c.Redirect(http.StatusSeeOther, "/dashboard")
}

func (h *Handler) QuizPage(c *gin.Context) {
	c.HTML(http.StatusOK, "quiz.html", QuizPage{Viewer: viewerView(h.viewer(c))})
}

func (h *Handler) QuizSubmit(c *gin.Context) {
	var image *media.Upload
	if fh, err := c.FormFile("image"); err == nil {
		f, err := fh.Open()
		if err == nil {
			defer f.Close()
			image = &media.Upload{
				Filename:    fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Data:        f,
			}
		}
	}

	var consultantID *string
	if v := h.viewer(c); v != nil {
		consultantID = &v.ID
	}

	sub, err := h.quiz.Submit(c.Request.Context(), consultantID, quiz.Answers{
		Answer1: c.PostForm("answer_1"),
		Answer2: c.PostForm("answer_2"),
		Answer3: c.PostForm("answer_3"),
	}, image)
	if err != nil {
		if msg, ok := formMessage(err); ok {
			c.HTML(http.StatusBadRequest, "quiz.html", QuizPage{
				Viewer:  viewerView(h.viewer(c)),
				Message: msg,
			})
			return
		}
		h.renderError(c, err)
		return
	}

	c.HTML(http.StatusOK, "quiz.html", QuizPage{
		Viewer:          viewerView(h.viewer(c)),
		Message:         "Your quiz has been submitted.",
		Recommendations: recommendationLines(sub.Recommendations),
	})
}

func (h *Handler) withCounts(c *gin.Context, list []*models.Post) ([]PostView, error) {
	ids := make([]string, len(list))
	for i, p := range list {
		ids[i] = p.ID
	}
	counts, err := h.social.CountsFor(c.Request.Context(), ids)
	if err != nil {
		return nil, err
	}
	viewerID := ""
	if v := h.viewer(c); v != nil {
		viewerID = v.ID
	}
	return postViews(list, counts, viewerID), nil
}

// formMessage returns the message for errors the visitor can correct by
// changing their input. Anything else is internal and must not reach the page.
func formMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, auth.ErrValidation),
		errors.Is(err, auth.ErrDuplicateHandle),
		errors.Is(err, posts.ErrValidation),
		errors.Is(err, quiz.ErrValidation),
		errors.Is(err, media.ErrUnsupportedMediaType):
		return err.Error(), true
	}
	return "", false
}

func (h *Handler) renderError(c *gin.Context, err error) {
	if errors.Is(err, auth.ErrNotFound) || errors.Is(err, posts.ErrNotFound) {
		c.String(http.StatusNotFound, "not found")
		return
	}
	h.log.Error("page render failed", zap.String("path", c.FullPath()), zap.Error(err))
	c.String(http.StatusInternalServerError, "internal error")
}
