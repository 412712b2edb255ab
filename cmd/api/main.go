package main

import (
	"context"
	"fmt"
	stdlog "log"
	"net/http"
	"time"

	"reelchat/config"
	"reelchat/internal/domain/chat"
	"reelchat/internal/domain/notification"
	"reelchat/internal/events"
	"reelchat/internal/handler"
	"reelchat/internal/live"
	"reelchat/internal/middleware"
	rediscache "reelchat/internal/redis"
	"reelchat/internal/repository"
	"reelchat/internal/services"
	"reelchat/internal/websocket"
	"reelchat/pkg/database"
	"reelchat/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.LoadConfig()

	mode := logger.DevelopmentMode
	if cfg.AppMode == "release" {
		mode = logger.ProductionMode
		gin.SetMode(gin.ReleaseMode)
	}
	log := logger.New(mode)
	logger.SetGlobalLogger(log)

	database.Connect(cfg)
	defer database.Close()

	if err := database.DB.AutoMigrate(
		&chat.Conversation{},
		&chat.Message{},
		&chat.MessageSeen{},
		&chat.MessageLike{},
		&notification.Notification{},
	); err != nil {
		stdlog.Fatalf("Failed to apply GORM migrations: %v", err)
	}

	// Redis carries the pub/sub fan-out and the unread badge cache. Without
	// it the node still serves traffic, with in-process events and badge
	// reads hitting the store every time.
	var bus events.Bus
	var badgeCache *rediscache.UnreadBadgeCache
	redisClient, err := rediscache.NewClient(cfg)
	if err != nil {
		log.Warnf("redis unavailable, falling back to in-process events: %v", err)
		bus = events.NewMemoryBus()
	} else {
		redisBus := events.NewRedisBus(redisClient, log)
		if err := redisBus.Start(); err != nil {
			stdlog.Fatalf("Failed to start redis event bus: %v", err)
		}
		defer redisBus.Stop()
		bus = redisBus
		badgeCache = rediscache.NewUnreadBadgeCache(redisClient, 30*time.Second)
	}

	conversationRepo := repository.NewConversationRepository(database.DB)
	messageRepo := repository.NewMessageRepository(database.DB)
	notificationRepo := repository.NewNotificationRepository(database.DB)

	profiles := services.NewStaticProfileProvider()
	notificationService := services.NewNotificationService(notificationRepo, profiles, log)
	unreadService := services.NewUnreadService(
		conversationRepo,
		messageRepo,
		badgeCache,
		services.ParseStrategy(cfg.UnreadStrategy),
		log,
	)
	chatService := services.NewChatService(
		conversationRepo,
		messageRepo,
		notificationService,
		unreadService,
		profiles,
		bus,
		log,
	)
	receiptService := services.NewReceiptService(conversationRepo, messageRepo, unreadService, bus, log)
	feed := live.NewFeed(messageRepo, bus, log)

	hub := websocket.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	wsHandler := websocket.NewHandler(
		hub,
		feed,
		chatService,
		receiptService,
		websocket.NewChannelAuthorizer(conversationRepo),
		bus,
		cfg.SeenDwell,
		log,
	)
	chatHandler := handler.NewChatHandler(chatService, receiptService, unreadService)
	notificationHandler := handler.NewNotificationHandler(notificationService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggingMiddleware(log))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	api := r.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	{
		api.POST("/conversations", chatHandler.EnsureConversation)
		api.GET("/conversations", chatHandler.ListConversations)
		api.GET("/conversations/:id/messages", chatHandler.Messages)
		api.POST("/conversations/:id/seen", chatHandler.MarkSeen)

		api.POST("/messages", chatHandler.Send)
		api.PATCH("/messages/:id", chatHandler.Edit)
		api.DELETE("/messages/:id", chatHandler.Delete)
		api.POST("/messages/:id/like", chatHandler.Like)
		api.DELETE("/messages/:id/like", chatHandler.Unlike)

		api.GET("/unread", chatHandler.UnreadCount)

		api.GET("/notifications", notificationHandler.Feed)
		api.POST("/notifications/:id/read", notificationHandler.MarkRead)

		api.GET("/ws", wsHandler.Connect)
	}

	log.Infof("Starting server on port %s", cfg.AppPort)
	if err := r.Run(fmt.Sprintf(":%s", cfg.AppPort)); err != nil {
		stdlog.Fatalf("Failed to start server: %v", err)
	}
}
