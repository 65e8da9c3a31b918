package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"productivity-service/internal/config"
	"productivity-service/internal/features"
	"productivity-service/internal/handler"
	"productivity-service/internal/metrics"
	"productivity-service/internal/ml"
	"productivity-service/internal/ml_client"
	"productivity-service/internal/predictor"
	"productivity-service/internal/repository"
	"productivity-service/internal/service"
	"productivity-service/internal/telegram_bot"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "configs/config.yml", "path to the YAML config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := newLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("Starting Productivity Service...")

	// Load model artifacts; any failure here is fatal
	model, err := loadModel(cfg)
	if err != nil {
		logger.Fatal("Failed to load model", zap.String("backend", cfg.Model.Backend), zap.Error(err))
	}
	means, err := ml.LoadMeans(cfg.Model.MeansPath)
	if err != nil {
		logger.Fatal("Failed to load feature means", zap.Error(err))
	}
	columns, err := ml.LoadColumns(cfg.Model.ColumnsPath)
	if err != nil {
		logger.Fatal("Failed to load feature columns", zap.Error(err))
	}

	artifacts := ml.NewArtifacts(model, means, columns)
	defer artifacts.Close()

	builder := features.NewBuilder(artifacts)
	if err := builder.Validate(); err != nil {
		logger.Fatal("Model artifacts are inconsistent", zap.Error(err))
	}

	logger.Info("Model loaded",
		zap.String("backend", model.Name()),
		zap.Int("features", len(columns)))

	// Initialize repository
	store, err := repository.Open(cfg.Storage.Type, cfg.Storage.Path, logger)
	if err != nil {
		logger.Fatal("Failed to open prediction store", zap.Error(err))
	}
	defer store.Close()

	if err := store.Initialize(); err != nil {
		logger.Fatal("Failed to initialize prediction store", zap.Error(err))
	}

	// Initialize service
	productivity := service.NewProductivity(builder, predictor.New(artifacts, logger), store, logger)

	// Initialize HTTP handler
	pageHandler := handler.NewHandler(productivity, handler.ModelInfo{
		Backend: model.Name(),
		Columns: builder.Columns(),
	}, logger)

	// Setup Gin router
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery(), handler.RequestLogger(logger))

	pageHandler.RegisterRoutes(router)
	if cfg.Metrics.Enabled {
		router.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Optional Telegram bot
	bot, err := telegram_bot.NewBot(cfg, productivity, logger)
	if err != nil {
		logger.Error("Failed to start Telegram bot", zap.Error(err))
	} else if bot != nil {
		go func() {
			if err := bot.Start(ctx); err != nil {
				logger.Error("Telegram bot stopped", zap.Error(err))
			}
		}()
	}

	// Start server
	serverAddr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.Info("Server starting", zap.String("address", serverAddr))

	// Graceful shutdown
	srv := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("Productivity Service is running",
		zap.String("port", cfg.Server.Port),
		zap.String("storage", cfg.Storage.Path))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// newLogger builds a console logger for development and JSON for production
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zapCfg := zap.NewDevelopmentConfig()
	if cfg.Logging.Env == "production" {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zap.ParseAtomicLevel(cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Logging.Level, err)
	}
	zapCfg.Level = level

	return zapCfg.Build()
}

func loadModel(cfg *config.Config) (ml.Model, error) {
	switch cfg.Model.Backend {
	case "linear":
		return ml.LoadLinearModel(cfg.Model.Path)
	case "onnx":
		return ml.LoadONNXModel(ml.ONNXConfig{
			ModelPath:         cfg.Model.Path,
			SharedLibraryPath: cfg.Model.ONNX.SharedLibraryPath,
			InputName:         cfg.Model.ONNX.InputName,
			OutputName:        cfg.Model.ONNX.OutputName,
		})
	case "remote":
		client := ml_client.NewClient(cfg.Model.Remote.URL, time.Duration(cfg.Model.Remote.TimeoutSeconds)*time.Second)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := client.HealthCheck(ctx); err != nil {
			return nil, fmt.Errorf("model service is not reachable: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown model backend %q", cfg.Model.Backend)
	}
}
