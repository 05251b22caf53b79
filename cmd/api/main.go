package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/spck/arcade-backend/internal/config"
	"github.com/spck/arcade-backend/internal/engine"
	"github.com/spck/arcade-backend/internal/engine/caro"
	"github.com/spck/arcade-backend/internal/engine/tictac"
	"github.com/spck/arcade-backend/internal/history"
	"github.com/spck/arcade-backend/internal/hub"
	"github.com/spck/arcade-backend/internal/matchmaking"
	"github.com/spck/arcade-backend/internal/presence"
	"github.com/spck/arcade-backend/internal/registry"
	"github.com/spck/arcade-backend/internal/repository/postgres"
	redisrepo "github.com/spck/arcade-backend/internal/repository/redis"
	"github.com/spck/arcade-backend/internal/room"
	transportHttp "github.com/spck/arcade-backend/internal/transport/http"
	"github.com/spck/arcade-backend/internal/transport/http/middleware"
	"github.com/spck/arcade-backend/internal/transport/ws"
)

func main() {
	cfg := config.LoadConfig()

	// Persistence
	db, err := postgres.InitDB(cfg.DatabaseURL, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBConnMaxLifetimeMin)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	log.Println("Running database migrations...")
	if err := postgres.RunMigrations(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	userRepo := postgres.NewUserRepo(db)
	friendRepo := postgres.NewFriendRepo(db)
	historyRepo := postgres.NewHistoryRepo(db)
	chatRepo := postgres.NewChatRepo(db)

	redisClient := redisrepo.InitRedis(cfg.RedisURL, cfg.RedisPassword)
	if redisClient != nil {
		defer redisClient.Close()
	}
	historyStore := redisrepo.NewCachedHistory(historyRepo, redisClient)

	// Realtime core
	reg := registry.New()
	engines := engine.NewRegistry(caro.New(), tictac.New())
	queue := matchmaking.NewQueue()
	notifier := presence.NewNotifier(friendRepo, reg)
	reporter := history.NewReporter(historyStore, reg)
	rooms := room.NewManager(engines, reg, reporter)
	dispatcher := hub.NewDispatcher(reg, queue, rooms, notifier, engines, chatRepo)
	wsHandler := ws.NewHandler(reg, queue, rooms, notifier, dispatcher, cfg.AllowedOrigins)

	// HTTP handlers
	authHandler := transportHttp.NewAuthHandler(userRepo)
	friendsHandler := transportHttp.NewFriendsHandler(friendRepo, reg)
	historyHandler := transportHttp.NewHistoryHandler(historyStore)
	chatHandler := transportHttp.NewChatHandler(chatRepo)
	usersHandler := transportHttp.NewUsersHandler(userRepo)

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(middleware.CORSMiddleware())

	router.POST("/api/auth/register", authHandler.Register)
	router.POST("/api/auth/login", authHandler.Login)

	protected := router.Group("/")
	protected.Use(middleware.AuthMiddleware())
	{
		protected.GET("/api/auth/me", authHandler.Me)

		protected.GET("/api/friends", friendsHandler.List)
		protected.POST("/api/friends/request", friendsHandler.SendRequest)
		protected.POST("/api/friends/respond", friendsHandler.Respond)
		protected.DELETE("/api/friends/:friendUsername", friendsHandler.Remove)

		protected.GET("/api/history", historyHandler.GetHistory)
		protected.DELETE("/api/history", historyHandler.ClearHistory)

		protected.GET("/api/chat/:friendUsername", chatHandler.GetConversation)
		protected.GET("/api/users/search", usersHandler.Search)
	}

	// WebSocket route (token auth handled inside the handler)
	router.GET("/ws", func(c *gin.Context) {
		wsHandler.HandleWebSocket(c.Writer, c.Request)
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("Server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
