package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/homologa/vehicle-homologation/internal/config"
	"github.com/homologa/vehicle-homologation/internal/container"
	httpapi "github.com/homologa/vehicle-homologation/internal/interfaces/http"
	"github.com/homologa/vehicle-homologation/pkg/utils"
)

func main() {
	configPath := os.Getenv("HOMOLOG_CONFIG")
	if configPath == "" {
		configPath = config.DefaultPath
	}

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting vehicle homologation service",
		zap.String("config", configPath),
		zap.Int("port", cfg.Server.Port),
		zap.Bool("lark_enabled", cfg.Lark.Enabled),
		zap.Bool("payment_webhook", cfg.Webhook.PaymentSecret != ""))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Service stopped with error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}

	logger.Info("Server exited successfully")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	c, err := container.NewContainer(cfg.ToContainerConfig(), logger)
	if err != nil {
		return err
	}
	if err := c.Start(ctx); err != nil {
		return fmt.Errorf("start container: %w", err)
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Error("Container close failed", zap.Error(err))
		}
	}()

	serverCfg := httpapi.ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		JWTSecret:      cfg.Auth.JWTSecret,
		JWTIssuer:      cfg.Auth.Issuer,
		WebhookSecret:  cfg.Webhook.PaymentSecret,
		WebhookMaxSkew: cfg.Webhook.MaxSkew,
	}

	server := httpapi.NewServer(serverCfg, httpapi.Deps{
		Submissions: c.Services().Submission,
		Engine:      c.WorkflowEngine(),
		Reports:     c.Services().Report,
		Dispatcher:  c.Dispatcher(),
		Ready:       c.Ready,
	}, container.NewLoggerAdapter(logger))

	return server.Start(ctx)
}
