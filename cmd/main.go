package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"

	"github.com/cookseyplate/tipping-system/config"
	"github.com/cookseyplate/tipping-system/db"
	"github.com/cookseyplate/tipping-system/handlers"
	"github.com/cookseyplate/tipping-system/live"
	"github.com/cookseyplate/tipping-system/repositories"
	api "github.com/cookseyplate/tipping-system/routes"
	"github.com/cookseyplate/tipping-system/services"
	"github.com/cookseyplate/tipping-system/squiggle"
	"github.com/cookseyplate/tipping-system/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	if err := db.RunMigrations(cfg.DatabaseURL); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("database migrations applied")

	var uploader storage.FileUploader
	if cfg.R2Configured() {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Info("Cloudflare R2 not configured, logo mirroring disabled")
	}

	wsHub := live.NewHub(logger)
	go wsHub.Run()

	roundRepo := repositories.NewPostgresRoundRepository(dbConn)
	gameRepo := repositories.NewPostgresGameRepository(dbConn)
	squiggleGameRepo := repositories.NewPostgresSquiggleGameRepository(dbConn)
	tipRepo := repositories.NewPostgresTipRepository(dbConn)
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	finalsRepo := repositories.NewPostgresFinalsConfigRepository(dbConn)
	winnerRepo := repositories.NewPostgresRoundWinnerRepository(dbConn)
	ladderRepo := repositories.NewPostgresLadderRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	importLogRepo := repositories.NewPostgresImportLogRepository(dbConn)
	logger.Info("repositories initialized")

	squiggleClient := squiggle.NewClient(cfg.SquiggleAPIURL, logger)
	cachedFetcher := squiggle.NewCachedFetcher(squiggleClient, logger)

	roundService := services.NewRoundService(roundRepo, gameRepo, logger)
	tipService := services.NewTipService(tipRepo, gameRepo, userRepo, finalsRepo, logger)
	scoringService := services.NewScoringService(tipRepo, squiggleGameRepo, gameRepo, roundRepo, finalsRepo, winnerRepo, logger)
	ladderService := services.NewLadderService(ladderRepo, roundRepo)
	userService := services.NewUserService(userRepo)
	syncService := services.NewSyncService(
		cachedFetcher, squiggleGameRepo, gameRepo, roundRepo, teamRepo, importLogRepo,
		roundService, scoringService, uploader, wsHub, logger,
	)
	schedulerService := services.NewSchedulerService(
		syncService, roundService, scoringService, importLogRepo, cfg.SchedulerEnabled, logger,
	)
	logger.Info("services initialized")

	schedulerCtx, stopScheduler := context.WithCancel(context.Background())
	defer stopScheduler()
	go func() {
		if err := schedulerService.Start(schedulerCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("scheduler stopped", slog.Any("error", err))
		}
	}()

	roundHandler := handlers.NewRoundHandler(roundService, tipService)
	tipHandler := handlers.NewTipHandler(tipService, scoringService)
	ladderHandler := handlers.NewLadderHandler(ladderService)
	userHandler := handlers.NewUserHandler(userService, ladderService)
	syncHandler := handlers.NewSyncHandler(syncService, cachedFetcher)
	schedulerHandler := handlers.NewSchedulerHandler(schedulerService)
	logHandler := handlers.NewLogHandler(syncService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, logger)

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		cfg.CORSAllowedOrigins,
		roundHandler,
		tipHandler,
		ladderHandler,
		userHandler,
		syncHandler,
		schedulerHandler,
		logHandler,
		webSocketHandler,
	)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		stopScheduler()

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
}
