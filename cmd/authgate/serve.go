package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/authgate/authgate/internal/auth"
	"github.com/authgate/authgate/internal/platform/config"
	"github.com/authgate/authgate/internal/platform/server"
	"github.com/authgate/authgate/internal/platform/telemetry"
	"github.com/authgate/authgate/internal/provider/cognito"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig()
	if err != nil {
		return oops.Code("CONFIG_INVALID").With("config", configFile).Wrap(err)
	}

	logger := telemetry.NewLogger(cfg.Log.Level, cfg.Log.Format)
	telemetry.SetDefault(logger)

	if missing := cfg.Missing(); len(missing) > 0 {
		logger.Error("required configuration missing, affected flows will fail", "missing", missing)
	}

	metrics := telemetry.NewMetrics()

	providerCfg := cognito.Config{
		Region:     cfg.Provider.Region,
		UserPoolID: cfg.Provider.UserPoolID,
		ClientID:   cfg.Provider.ClientID,
		Endpoint:   cfg.Provider.Endpoint,
	}
	client, err := cognito.NewClient(ctx, providerCfg)
	if err != nil {
		return err
	}

	svc := auth.NewService(auth.ServiceConfig{
		Provider: cognito.New(client, providerCfg, metrics),
		Keys:     signingKeys(cfg),
		Logger:   logger,
		Observer: metrics,
	})

	deps := server.Dependencies{
		AuthHandler: auth.NewHandler(auth.HandlerConfig{Service: svc}),
		Missing:     cfg.Missing,
		Logger:      logger,
	}
	if cfg.Metrics.Addr == "" {
		deps.Metrics = metrics.Handler()
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	api := server.New(addr, deps)

	// Graceful shutdown on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return api.Start(gctx)
	})
	if cfg.Metrics.Addr != "" {
		g.Go(func() error {
			return server.NewMetrics(cfg.Metrics.Addr, metrics.Handler(), logger).Start(gctx)
		})
	}

	logger.Info("server ready",
		"addr", addr,
		"metrics_addr", cfg.Metrics.Addr,
		"region", cfg.Provider.Region,
	)

	if err := g.Wait(); err != nil {
		telemetry.LogError(ctx, logger, "server stopped", err)
		return err
	}
	return nil
}

func signingKeys(cfg *config.Config) auth.SigningKeys {
	return auth.SigningKeys{
		Admin:   cfg.Auth.AdminSecret,
		Regular: cfg.Auth.RegularSecret,
	}
}
