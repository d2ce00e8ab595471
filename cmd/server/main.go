package main

import (
	"context"
	"designboards/auth"
	"designboards/internal/asset"
	"designboards/internal/boardapi"
	"designboards/internal/config"
	"designboards/internal/db"
	"designboards/internal/middleware"
	"designboards/internal/session"
	"designboards/internal/worker"
	"designboards/redis"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	config.LoadConfig()

	// Connect to database
	db.ConnectDb()
	defer db.CloseDb()

	// Migrate database schema
	db.Migrate()

	// Initialize Redis
	redis.InitRedis()

	// Background pool for feed publishes and cache writes
	pool := worker.NewWorkerPool(4)
	defer pool.Shutdown()

	// Initialize repository
	boardRepo := boardapi.NewRepository(db.AppDb)
	// Initialize service
	cache := redis.NewCache(redis.RedisClient)
	boardService := boardapi.NewService(boardRepo, cache)
	// Initialize handler
	boardHandler := boardapi.NewHandler(boardService)
	assetStore := asset.NewDiskStore(config.AppConfig.AssetDir, config.AppConfig.AssetBaseURL)
	assetHandler := asset.NewHandler(assetStore)

	// Session arena for server-hosted (headless) board sessions
	sessions := session.NewManager(boardService, redis.RedisClient, pool, session.Options{
		HistoryDepth: config.AppConfig.HistoryDepth,
		SaveDebounce: config.AppConfig.SaveDebounce,
		SaveRetries:  config.AppConfig.SaveRetries,
	})
	defer sessions.CloseAll()

	// Initialize Gin router
	router := gin.Default()
	router.Use(middleware.ErrorHandler())

	// cors setting
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
	}

	if config.AppConfig.Environment == "development" {
		// Allow all origins in development
		corsConfig.AllowAllOrigins = true
	} else {
		// Restrict origins in production
		corsConfig.AllowOrigins = []string{config.AppConfig.FrontendAddress}
	}
	router.Use(cors.New(corsConfig))

	// Board routes
	router.POST("/boards", auth.AuthMiddleWare(), boardHandler.Create)
	router.GET("/boards", auth.AuthMiddleWare(), boardHandler.ShowUserBoards)
	router.GET("/boards/:id", auth.AuthMiddleWare(), boardHandler.ShowBoard)
	router.PUT("/boards/:id/objects", auth.AuthMiddleWare(), boardHandler.SaveObjects)
	router.PUT("/boards/:id/settings", auth.AuthMiddleWare(), boardHandler.UpdateSettings)
	router.DELETE("/boards/:id", auth.AuthMiddleWare(), boardHandler.DeleteBoard)

	// Asset upload + static serving
	router.POST("/assets", auth.AuthMiddleWare(), assetHandler.Upload)
	router.Static(config.AppConfig.AssetBaseURL, config.AppConfig.AssetDir)

	// internal use routes
	sessionHandler := boardapi.NewSessionHandler(sessions)
	internal := router.Group("/internal", auth.InternalAuthMiddleware(config.AppConfig.InternalSecret))
	internal.GET("/boards/:id/state", boardHandler.ShowBoardState)
	internal.POST("/boards/:id/session", sessionHandler.Open)
	internal.GET("/boards/:id/session", sessionHandler.Show)
	internal.DELETE("/boards/:id/session", sessionHandler.Close)

	// Server configuration
	serverPort := config.AppConfig.ServerPort
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", serverPort),
		Handler: router.Handler(),
	}

	// Start server
	go func() {
		log.Printf("Server listening on port %s", serverPort)
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// flush open sessions before the listener goes away
	sessions.CloseAll()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Println("Server shutdown error:", err)
	}

	<-ctx.Done()
	log.Println("Server shutdown complete")
}
