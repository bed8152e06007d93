package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"consultant-hub/internal/api"
	"consultant-hub/internal/assistant"
	"consultant-hub/internal/auth"
	"consultant-hub/internal/config"
	"consultant-hub/internal/database"
	"consultant-hub/internal/logger"
	"consultant-hub/internal/media"
	"consultant-hub/internal/posts"
	"consultant-hub/internal/quiz"
	"consultant-hub/internal/social"
	"consultant-hub/internal/web"
	"consultant-hub/internal/ws"
)

func main() {
	cfg := config.LoadConfig()
	if cfg.SessionSecret == "" {
		log.Fatal("SESSION_SECRET must be set")
	}

	zlog, err := logger.New()
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zlog.Sync()

	db, err := database.Open(cfg)
	if err != nil {
		zlog.Fatal("database connect failed", zap.Error(err))
	}

	storage, err := media.NewStorage(cfg.MediaRoot, zlog)
	if err != nil {
		zlog.Fatal("media storage init failed", zap.Error(err))
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	hub := ws.NewHub(zlog)
	go hub.Run()

	sessions := auth.NewSessionStore(rdb)
	authSvc := auth.NewService(db, sessions, storage, cfg.SessionSecret, cfg.SessionTTL, zlog)
	postSvc := posts.NewService(db, storage, hub, zlog)
	socialSvc := social.NewService(db)
	assistantClient := assistant.NewClient(cfg.AssistantAPIKey, cfg.AssistantModel, cfg.AssistantBaseURL, zlog)
	quizSvc := quiz.NewService(db, storage, assistantClient, zlog)

	apiHandler := api.NewHandler(authSvc, postSvc, socialSvc, quizSvc, assistantClient, hub, zlog)
	webHandler := web.NewHandler(authSvc, postSvc, socialSvc, quizSvc, zlog)

	r := gin.Default()
	r.LoadHTMLGlob("web/templates/*.html")
	r.Use(apiHandler.SessionMiddleware())
	r.Static("/static/media", storage.Root())

	apiHandler.Register(r)
	webHandler.Register(r)

	zlog.Info("server starting", zap.String("addr", cfg.BindAddr))
	if err := r.Run(cfg.BindAddr); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}
