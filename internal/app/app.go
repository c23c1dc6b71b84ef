package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hqchat_backend/database"
	"hqchat_backend/internal/auth"
	"hqchat_backend/internal/config"
	"hqchat_backend/internal/handlers"
	"hqchat_backend/internal/logger"
	"hqchat_backend/internal/repositories"
	repoChat "hqchat_backend/internal/repositories/chat"
	"hqchat_backend/internal/routes"
	chatsvc "hqchat_backend/internal/services/chat"
	"hqchat_backend/ws"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Run поднимает процесс: конфиг, логгер, БД, проводка, HTTP-сервер.
func Run() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	gormDB, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatal("Failed to get *sql.DB from GORM", "error", err)
	}
	if err = sqlDB.Ping(); err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	logger.Info("Database connected")

	if err := database.Migrate(gormDB); err != nil {
		logger.Fatal("Migration failed", "error", err)
	}

	ginRouter, hub := SetupRouter(cfg, gormDB)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: address, Handler: ginRouter}

	go func() {
		logger.Info("Server starting", "address", address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server startup error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}
	hub.Shutdown()
	logger.Info("Server stopped")
}

// SetupRouter собирает весь граф зависимостей и возвращает роутер
// вместе с хабом. Хаб создаётся здесь и передаётся по ссылке; его
// жизненный цикл - от старта процесса до остановки.
func SetupRouter(cfg *config.Config, gormDB *gorm.DB) (*gin.Engine, *ws.Hub) {
	// Репозитории
	userRepo := repositories.NewUserRepository(gormDB)
	roomRepo := repoChat.NewRoomRepository(gormDB)
	memberRepo := repoChat.NewMemberRepository(gormDB)
	messageRepo := repoChat.NewMessageRepository(gormDB)
	receiptRepo := repoChat.NewReadReceiptRepository(gormDB)

	// Realtime-ядро
	hub := ws.NewHub()

	// Сервисы
	guard := chatsvc.NewGuard(memberRepo, cfg.Chat.OpenRooms)
	presence := chatsvc.NewPresence(memberRepo)
	receiptService := chatsvc.NewReadReceiptService(memberRepo, receiptRepo, hub)
	chatService := chatsvc.NewChatService(roomRepo, memberRepo, messageRepo, userRepo, guard, receiptService, hub)

	resolver := auth.NewResolver(userRepo, cfg.JWT.Secret, cfg.JWT.Alg)

	// Обработчики
	baseHandler := handlers.NewBaseHandler()
	chatHandler := handlers.NewChatHandler(baseHandler, chatService)
	wsHandler := ws.NewHandler(hub, resolver, guard, presence, chatService, cfg.WebSocket.TokenSource, cfg.WebSocket.RelayMessages)

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	ginRouter := gin.New()
	ginRouter.Use(gin.Recovery())

	routes.RegisterRoutes(ginRouter, resolver, chatHandler, wsHandler)

	return ginRouter, hub
}
