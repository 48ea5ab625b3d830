package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/brewbuddy/brewbuddy/db"
	"github.com/brewbuddy/brewbuddy/internal/api"
	"github.com/brewbuddy/brewbuddy/internal/config"
	"github.com/brewbuddy/brewbuddy/internal/database"
	"github.com/brewbuddy/brewbuddy/internal/embedder"
	"github.com/brewbuddy/brewbuddy/internal/embeddings"
	"github.com/brewbuddy/brewbuddy/internal/log"
	"github.com/brewbuddy/brewbuddy/internal/observability"
	"github.com/brewbuddy/brewbuddy/internal/retrieval"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Bootstrap the knowledge base and start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// runServe wires up the full pipeline: config, migrations, schema
// provisioning, corpus bootstrap, then the HTTP server.
func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.ValidateServe(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	logger := log.New(log.Config{Level: cfg.SlogLevel(), JSON: cfg.LogJSON})
	logger.Info("starting brewbuddy", "version", AppVersion, "config", cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.Datadog.AgentHost != "" {
		shutdownTracing, err := observability.SetupDatadog(ctx, observability.Config{
			AgentHost:   cfg.Datadog.AgentHost,
			Environment: cfg.Datadog.Environment,
			ServiceName: cfg.Datadog.ServiceName,
		})
		if err != nil {
			return fmt.Errorf("setting up tracing: %w", err)
		}
		defer func() {
			if err := shutdownTracing(context.Background()); err != nil {
				logger.Warn("tracing shutdown error", "error", err)
			}
		}()
	}

	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	pool, err := database.Open(ctx, cfg.PostgresURL())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	tier, err := embeddings.NewSchemaManager(pool, logger).Ensure(ctx)
	if err != nil {
		return fmt.Errorf("provisioning embeddings schema: %w", err)
	}
	logger.Info("embeddings schema ready", "tier", tier)

	store := embeddings.NewStore(pool, tier, logger)
	embedClient := embedder.New(cfg.OpenAIAPIKey, cfg.EmbedderModel, logger)
	orchestrator := retrieval.New(store, embedClient, logger)

	if err := orchestrator.Initialize(ctx, retrieval.DefaultCorpus()); err != nil {
		return fmt.Errorf("bootstrapping knowledge base: %w", err)
	}

	server := api.NewServer(pool, orchestrator, embedClient, store, logger)
	return server.Run(ctx, cfg.ServerAddr)
}
