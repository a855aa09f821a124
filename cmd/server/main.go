package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"team_messaging/internal/bus"
	"team_messaging/internal/config"
	"team_messaging/internal/handler"
	"team_messaging/internal/middleware"
	"team_messaging/internal/repository"
	"team_messaging/internal/service"
	"team_messaging/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	appLogger := logger.New(cfg.Log.Level)

	// Подключение к PostgreSQL
	dbPool, err := pgxpool.New(context.Background(), cfg.Database.DSN)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", "error", err)
	}
	defer dbPool.Close()

	if err := dbPool.Ping(context.Background()); err != nil {
		appLogger.Fatal("Failed to ping database", "error", err)
	}
	appLogger.Info("Database connection established")

	// Подключение к Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		appLogger.Fatal("Failed to connect to Redis", "error", err)
	}
	appLogger.Info("Redis connection established")

	// Шина fan-out между gateway-процессами
	eventBus, err := newBus(cfg, rdb, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to create event bus", "error", err)
	}
	defer eventBus.Close()
	appLogger.Info("Event bus initialized", "driver", cfg.Bus.Driver)

	// Инициализация слоев
	repos := repository.NewRepositories(dbPool, rdb, appLogger)
	services := service.NewServices(repos, eventBus, cfg, appLogger)

	hub := handler.NewHub(eventBus, appLogger)
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	if err := hub.Run(hubCtx); err != nil {
		appLogger.Fatal("Failed to start hub", "error", err)
	}

	handlers := handler.NewHandlers(services, hub, appLogger)

	authMiddleware := middleware.NewAuthMiddleware(services.Auth, appLogger)
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(services.RateLimit, appLogger)

	router := setupRouter(handlers, authMiddleware, rateLimitMiddleware, cfg, appLogger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		appLogger.Info("Starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("Failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Fatal("Server forced to shutdown", "error", err)
	}

	stopHub()
	appLogger.Info("Server exited")
}

func newBus(cfg *config.Config, rdb *redis.Client, log logger.Logger) (bus.Bus, error) {
	switch cfg.Bus.Driver {
	case "nats":
		return bus.NewNATSBus(cfg.NATS.URL, log)
	case "memory":
		return bus.NewMemoryBus(), nil
	default:
		return bus.NewRedisBus(rdb, log), nil
	}
}

func setupRouter(
	handlers *handler.Handlers,
	authMiddleware *middleware.AuthMiddleware,
	rateLimitMiddleware *middleware.RateLimitMiddleware,
	cfg *config.Config,
	log logger.Logger,
) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.ErrorHandler())

	// Health check
	router.GET("/health", handlers.Health.Check)

	// API v1
	v1 := router.Group("/api/v1")
	{
		protected := v1.Group("")
		protected.Use(authMiddleware.RequireAuth())
		{
			messages := protected.Group("/messages")
			messages.Use(rateLimitMiddleware.Limit())
			{
				messages.POST("/load", handlers.Message.Load)
				messages.POST("/search", handlers.Message.Search)
			}

			rooms := protected.Group("/rooms")
			{
				rooms.POST("", handlers.Room.Create)
				rooms.GET("", handlers.Room.List)
				rooms.GET("/:id/members", handlers.Room.GetMembers)
				rooms.POST("/:id/members", handlers.Room.AddMember)
				rooms.POST("/:id/leave", handlers.Room.Leave)
				rooms.PUT("/:id/members/:userId/role", handlers.Room.UpdateRole)
				rooms.GET("/:id/unread", handlers.Room.UnreadCount)
			}

			protected.GET("/presence/online", handlers.Presence.Online)
		}
	}

	// WebSocket endpoint
	router.GET("/ws", handlers.WebSocket.HandleConnection)

	return router
}
