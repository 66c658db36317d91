package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"automedon/internal/api"
	"automedon/internal/config"
	"automedon/internal/modules/admin"
	"automedon/internal/modules/feed"
	"automedon/internal/modules/missions"
	"automedon/internal/modules/users"
	"automedon/pkg/email"
	"automedon/pkg/storage"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

func main() {
	// 1. --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	e := echo.New()

	// 2. --- Middleware ---
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: cfg.RequestTimeout,
		Skipper: func(c echo.Context) bool {
			// The websocket feed outlives any request deadline.
			return strings.HasPrefix(c.Path(), "/ws/")
		},
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"http://localhost:5173", cfg.ClientOrigin},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	// 3. --- Database Connection ---
	dbConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to parse database configuration: %v", err)
	}

	dbPool, err := pgxpool.NewWithConfig(context.Background(), dbConfig)
	if err != nil {
		log.Fatalf("Unable to create connection pool: %v", err)
	}
	defer dbPool.Close()

	if err := dbPool.Ping(context.Background()); err != nil {
		log.Fatalf("Unable to ping database: %v", err)
	}
	e.Logger.Info("Successfully connected to the database!")

	// 4. --- Redis (realtime feed bus) ---
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer rdb.Close()

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Unable to ping redis: %v", err)
	}

	// 5. --- Shared infrastructure ---
	emailer, err := email.NewSESV2Sender(context.Background(), cfg.AWSRegion, cfg.SESFromEmail)
	if err != nil {
		log.Fatalf("Unable to initialize SES sender: %v", err)
	}

	templateManager, err := email.NewTemplateManager()
	if err != nil {
		log.Fatalf("Unable to parse email templates: %v", err)
	}

	uploader, err := storage.NewS3Uploader(context.Background(), cfg.AWSRegion, cfg.S3Bucket)
	if err != nil {
		log.Fatalf("Unable to initialize S3 uploader: %v", err)
	}

	googleOAuthConfig := &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email"},
		Endpoint:     google.Endpoint,
	}

	// 6. --- Dependency Injection (Wiring everything up) ---
	// --- Feed Module ---
	publisher := feed.NewPublisher(rdb)
	hub := feed.NewHub(rdb)
	feedHandler := feed.NewHandler(hub)

	// --- Users Module ---
	userRepo := users.NewRepository(dbPool)
	userService := users.NewService(userRepo, emailer, templateManager, uploader, cfg.JWTSecret, cfg.ClientOrigin, googleOAuthConfig)
	userHandler := users.NewHandler(userService, cfg.ClientOrigin)

	// --- Missions Module ---
	missionRepo := missions.NewRepository(dbPool)
	notifier := email.NewMissionNotifier(emailer, templateManager)
	missionService := missions.NewService(missionRepo, userRepo, publisher, uploader, notifier)
	missionHandler := missions.NewHandler(missionService)

	// --- Admin Module ---
	adminService := admin.NewService(missionRepo, userRepo, publisher)
	adminHandler := admin.NewHandler(adminService)

	// 7. --- Initialize Router ---
	api.SetupRoutes(e, cfg.JWTSecret,
		userHandler,
		missionHandler,
		adminHandler,
		feedHandler,
	)

	// 8. --- Start feed fanout and server with graceful shutdown ---
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go hub.Run(hubCtx)

	go func() {
		if err := e.Start(":" + cfg.ServerPort); err != nil && err != http.ErrServerClosed {
			e.Logger.Fatal("shutting down the server an error occurred:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		e.Logger.Fatal("Server forced to shutdown:", err)
	}
	log.Println("Server exiting")
}
