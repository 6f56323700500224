// @title Loan Market API
// @version 1.0
// @description Teams register players and negotiate loans of players between each other.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Dosada05/loan-market/config"
	"github.com/Dosada05/loan-market/db"
	"github.com/Dosada05/loan-market/handlers"
	"github.com/Dosada05/loan-market/logger"
	"github.com/Dosada05/loan-market/middleware"
	"github.com/Dosada05/loan-market/notify"
	"github.com/Dosada05/loan-market/repositories"
	"github.com/Dosada05/loan-market/routes"
	"github.com/Dosada05/loan-market/services"
	"github.com/Dosada05/loan-market/storage"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.New(logger.Options{Env: cfg.AppEnv, File: cfg.LogFile})
	defer func() { _ = log.Sync() }()
	log.Info("configuration loaded", "port", cfg.ServerPort, "env", cfg.AppEnv, "storage", cfg.StorageDriver)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		return err
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			log.Error("failed to close database connection", "error", err)
		} else {
			log.Info("database connection closed")
		}
	}()
	log.Info("database connection established")

	version, err := db.Migrate(dbConn, cfg.MigrationsPath)
	if err != nil {
		log.Error("failed to apply migrations", "path", cfg.MigrationsPath, "error", err)
		return err
	}
	log.Info("database schema is up to date", "version", version)

	uploader, err := newUploader(ctx, cfg)
	if err != nil {
		log.Error("failed to initialize image storage", "driver", cfg.StorageDriver, "error", err)
		return err
	}
	log.Info("image storage initialized", "driver", cfg.StorageDriver)

	hub := notify.NewHub(log)
	go hub.Run(ctx)

	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	playerRepo := repositories.NewPostgresPlayerRepository(dbConn)

	authService := services.NewAuthService(teamRepo, log)
	teamService := services.NewTeamService(teamRepo, uploader, log)
	playerService := services.NewPlayerService(playerRepo, teamRepo, uploader,
		services.PlayerServiceOptions{ResetLoanOnEdit: cfg.LoanResetOnEdit}, log)
	loanService := services.NewLoanService(playerRepo, teamRepo, uploader, hub, log)

	tokens := middleware.NewTokenAuth(cfg.JWTSecretKey, cfg.JWTTTL)

	router := chi.NewRouter()
	opts := routes.Options{
		Logger:         log,
		Tokens:         tokens,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	}
	if cfg.StorageDriver == config.StorageLocal {
		opts.ImageDir = cfg.ImageDir
		opts.ImagePath = imagePath(cfg.PublicImageBaseURL)
	}
	routes.SetupRoutes(router, routes.Handlers{
		Auth:      handlers.NewAuthHandler(authService, teamService, tokens),
		Team:      handlers.NewTeamHandler(teamService),
		Player:    handlers.NewPlayerHandler(playerService),
		Loan:      handlers.NewLoanHandler(loanService),
		WebSocket: handlers.NewWebSocketHandler(hub, cfg.CORSAllowedOrigins),
	}, opts)

	errorLog, err := zap.NewStdLogAt(log.Desugar(), zap.ErrorLevel)
	if err != nil {
		return fmt.Errorf("failed to create server error log: %w", err)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 40 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     errorLog,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("starting server", "address", server.Addr)
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			return err
		}
	case <-ctx.Done():
		log.Info("shutdown signal received", "timeout", shutdownTimeout)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
			if closeErr := server.Close(); closeErr != nil {
				log.Error("failed to force close server", "error", closeErr)
			}
			return err
		}
	}

	log.Info("server shutdown complete")
	return nil
}

func newUploader(ctx context.Context, cfg *config.Config) (storage.FileUploader, error) {
	switch cfg.StorageDriver {
	case config.StorageR2:
		return storage.NewCloudflareR2Uploader(ctx, storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
	default:
		return storage.NewDiskUploader(cfg.ImageDir, cfg.PublicImageBaseURL)
	}
}

// imagePath extracts the route prefix from PUBLIC_IMAGE_BASE_URL, which may be absolute.
func imagePath(base string) string {
	u, err := url.Parse(base)
	if err != nil || u.Path == "" {
		return "/images"
	}
	return u.Path
}
