// Package main provides the entry point for the HTTP server.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	applicationRouter "github.com/EOEPCA/open-science-catalog-backend/internal/application/router"
	"github.com/EOEPCA/open-science-catalog-backend/internal/catalog"
	"github.com/EOEPCA/open-science-catalog-backend/internal/config"
	"github.com/EOEPCA/open-science-catalog-backend/internal/health"
	"github.com/EOEPCA/open-science-catalog-backend/internal/middleware"
	"github.com/EOEPCA/open-science-catalog-backend/internal/platform"
	processingModel "github.com/EOEPCA/open-science-catalog-backend/internal/processing/model"
	processingRouter "github.com/EOEPCA/open-science-catalog-backend/internal/processing/router"
	submissionRouter "github.com/EOEPCA/open-science-catalog-backend/internal/submission/router"
	"github.com/EOEPCA/open-science-catalog-backend/pkg/logger"
)

// startupTimeout bounds the initial platform reachability check.
const startupTimeout = 30 * time.Second

func main() {
	// A .env file is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	appLogger, err := logger.New()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer appLogger.Sync() //nolint:errcheck // stdout sync errors are unactionable

	gin.SetMode(cfg.GinMode)

	platformClient, err := platform.NewGitHub(appLogger)
	if err != nil {
		appLogger.Fatalw("Failed to create platform client", "error", err)
	}

	verifyCtx, cancelVerify := context.WithTimeout(context.Background(), startupTimeout)
	if err := platformClient.Verify(verifyCtx); err != nil {
		cancelVerify()
		appLogger.Fatalw("Platform repository is unreachable", "error", err)
	}
	cancelVerify()

	backends, err := processingModel.LoadBackendsFromEnv()
	if err != nil {
		appLogger.Fatalw("Failed to load processing backends", "error", err)
	}
	appLogger.Infow("Configured processing backends", "backends", backends.Names())

	catalogClient, err := catalog.New(appLogger)
	if err != nil {
		appLogger.Fatalw("Failed to create resource catalog client", "error", err)
	}

	engine := gin.New()
	engine.Use(
		middleware.Recovery(appLogger),
		middleware.RequestIDMiddleware(),
		middleware.AuthContext(),
		middleware.Logger(appLogger),
	)

	healthHandler := health.New(platformClient, appLogger)
	engine.GET("/health", healthHandler.Check)

	submissionRouter.RegisterRoutes(engine, platformClient, appLogger)
	processingRouter.RegisterRoutes(engine, backends, catalogClient, appLogger)
	applicationRouter.RegisterRoutes(engine, catalogClient, appLogger)

	srv := &http.Server{
		Addr:         cfg.Server.GetAddress(),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		appLogger.Infow("Starting server", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatalw("Server failed", "error", err)
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Errorw("Server shutdown failed", "error", err)
		return
	}
	appLogger.Info("Server stopped")
}
