package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"social-service/internal/cache"
	"social-service/internal/config"
	"social-service/internal/db"
	"social-service/internal/handlers"
	"social-service/internal/middleware"
	"social-service/internal/observability"
	"social-service/internal/rabbitmq"
	"social-service/internal/repositories"
	"social-service/internal/telemetry"
	"social-service/internal/workers"
	"social-service/internal/ws"
)

const serviceName = "social-service"

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	database, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer database.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.OTLPEndpoint, serviceName, cfg.Environment)
	if err != nil {
		log.Printf("tracing disabled: %v", err)
	} else {
		defer shutdownTracing(context.Background())
	}

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	observability.SetPublisher(publisher)

	auditEmitter := telemetry.NewAuditEmitter(publisher, "audit.social", serviceName, cfg.Environment)

	idCache := cache.New(cfg.RedisAddr)
	defer idCache.Close()

	conversationRepo := repositories.NewConversationRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	followRepo := repositories.NewFollowRepo(database)
	notificationRepo := repositories.NewNotificationRepo(database)
	userRepo := repositories.NewUserRepo(database)
	outboxRepo := repositories.NewOutboxRepo(database)

	hub := ws.NewHub()

	conversationHandler := handlers.NewConversationHandler(conversationRepo)
	messageHandler := handlers.NewMessageHandler(messageRepo, conversationRepo, hub)
	notificationHandler := handlers.NewNotificationHandler(notificationRepo)
	followHandler := handlers.NewFollowHandler(followRepo, userRepo, notificationRepo, idCache, auditEmitter, cfg.CacheTTL)
	socketHandler := ws.NewSocketHandler(hub, cfg.SigningKey)

	go workers.NewOutboxRelayer(outboxRepo, publisher).Run(ctx)
	go workers.NewReconciler(userRepo, followRepo).Run(ctx)

	router := gin.Default()
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())

	auth := middleware.Auth(cfg.SigningKey)

	router.GET("/conversations/:user_a/:user_b", conversationHandler.GetOrCreate)
	router.POST("/messages/send", messageHandler.Send)
	router.GET("/messages/:conversation_id", messageHandler.List)

	router.GET("/notifications", auth, notificationHandler.List)
	router.GET("/notifications/unread-count", auth, notificationHandler.UnreadCount)
	router.PUT("/notifications/mark-as-read", auth, notificationHandler.MarkAllRead)
	router.DELETE("/notifications", auth, notificationHandler.DeleteAll)
	router.POST("/notifications/message", auth, notificationHandler.CreateMessageNotification)

	router.POST("/users/follow/:id", auth, followHandler.Toggle)
	router.GET("/users/:id/followers", auth, followHandler.Followers)
	router.GET("/users/:id/following", auth, followHandler.Following)
	router.GET("/users/profile/:username", auth, followHandler.Profile)

	router.GET("/ws", socketHandler.Handle)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers.RegisterDebugRoutes(router, auditEmitter, cfg.DebugRoutes)

	if err := router.Run(cfg.ServerAddr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
