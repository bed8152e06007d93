package api

import (
	"mime/multipart"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"consultant-hub/internal/assistant"
	"consultant-hub/internal/auth"
	"consultant-hub/internal/media"
	"consultant-hub/internal/posts"
	"consultant-hub/internal/quiz"
	"consultant-hub/internal/social"
	"consultant-hub/internal/ws"
)

// Handler carries the services behind the JSON API.
type Handler struct {
	auth      *auth.Service
	posts     *posts.Service
	social    *social.Service
	quiz      *quiz.Service
	assistant *assistant.Client
	hub       *ws.Hub
	log       *zap.Logger
}

func NewHandler(authSvc *auth.Service, postSvc *posts.Service, socialSvc *social.Service, quizSvc *quiz.Service, assistantClient *assistant.Client, hub *ws.Hub, log *zap.Logger) *Handler {
	return &Handler{
		auth:      authSvc,
		posts:     postSvc,
		social:    socialSvc,
		quiz:      quizSvc,
		assistant: assistantClient,
		hub:       hub,
		log:       log,
	}
}

// Register mounts the API under /api and the feed websocket under /ws.
// The session middleware is expected to be installed on the engine already.
func (h *Handler) Register(r gin.IRouter) {
	apiGroup := r.Group("/api")
	{
		authGroup := apiGroup.Group("/auth")
		{
			authGroup.POST("/register", h.RegisterConsultant)
			authGroup.POST("/login", h.Login)
			authGroup.POST("/logout", h.requireAuth(), h.Logout)
			authGroup.GET("/me", h.requireAuth(), h.Me)
			authGroup.PUT("/me", h.requireAuth(), h.UpdateProfile)
		}

		apiGroup.GET("/posts", h.Feed)
		apiGroup.GET("/posts/:id", h.GetPost)
		apiGroup.POST("/posts", h.requireAuth(), h.CreatePost)
		apiGroup.PUT("/posts/:id", h.requireAuth(), h.UpdatePost)
		apiGroup.DELETE("/posts/:id", h.requireAuth(), h.DeletePost)

		apiGroup.POST("/posts/:id/like", h.requireAuth(), h.ToggleLike)
		apiGroup.GET("/posts/:id/comments", h.ListComments)
		apiGroup.POST("/posts/:id/comments", h.requireAuth(), h.AddComment)

		apiGroup.GET("/consultants/:id", h.GetConsultant)
		apiGroup.POST("/consultants/:id/follow", h.requireAuth(), h.Follow)
		apiGroup.DELETE("/consultants/:id/follow", h.requireAuth(), h.Unfollow)

		apiGroup.POST("/quiz", h.SubmitQuiz)
		apiGroup.POST("/assistant/query", h.AssistantQuery)
	}

	r.GET("/ws/feed", func(c *gin.Context) {
		h.hub.ServeWs(c.Writer, c.Request)
	})
}

// uploadFrom converts one multipart file header into a media upload. The
// caller must consume the reader before the request ends.
func uploadFrom(fh *multipart.FileHeader) (*media.Upload, func(), error) {
	f, err := fh.Open()
	if err != nil {
		return nil, nil, err
	}
	return &media.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        f,
	}, func() { f.Close() }, nil
}
