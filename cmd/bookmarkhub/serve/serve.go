// Package servecmder provides the serve command, wiring config, storage,
// the ingestion worker pool, and the HTTP boundary together, grounded on
// papercomputeco-tapes/cmd/tapes/serve/serve.go's goroutine-plus-signal-
// channel shutdown shape.
package servecmder

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bookmarkhub/bookmarkhub/internal/api"
	"github.com/bookmarkhub/bookmarkhub/internal/config"
	"github.com/bookmarkhub/bookmarkhub/internal/ingest"
	"github.com/bookmarkhub/bookmarkhub/internal/llmclient"
	"github.com/bookmarkhub/bookmarkhub/internal/queue"
	"github.com/bookmarkhub/bookmarkhub/internal/rag"
	"github.com/bookmarkhub/bookmarkhub/internal/readability"
	"github.com/bookmarkhub/bookmarkhub/internal/search"
	"github.com/bookmarkhub/bookmarkhub/internal/store/postgres"
	"github.com/bookmarkhub/bookmarkhub/pkg/logger"
)

type serveCommander struct {
	configFile string
	debug      bool
	logger     *zap.Logger
}

const serveLongDesc string = `Run the bookmark hub API server and its ingestion worker pool together.`

// NewServeCmd builds the serve command.
func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the API server and ingestion workers",
		Long:  serveLongDesc,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			cmder.configFile, err = cmd.Flags().GetString("config")
			if err != nil {
				return fmt.Errorf("could not get config flag: %w", err)
			}
			return cmder.run()
		},
	}

	return cmd
}

func (c *serveCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer c.logger.Sync()

	cfg, err := config.Load(c.configFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := config.Watch(c.configFile, func() {
		c.logger.Info("config file changed, restart to apply")
	}); err != nil {
		c.logger.Warn("could not watch config file", zap.Error(err))
	}

	ctx := context.Background()

	gw, err := postgres.New(ctx, cfg.Postgres.DSN(), int32(cfg.Postgres.MaxConns))
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer gw.Close()

	llm := llmclient.New(cfg.OllamaURL, cfg.OllamaTextModel, cfg.OllamaEmbeddingModel)
	rc := readability.New(cfg.ReadabilityURL)
	pipeline := ingest.New(gw, rc, llm, c.logger)
	searchEngine := search.New(gw, llm, c.logger)
	ragComposer := rag.New(gw, llm, c.logger)

	pool := queue.NewPool(queue.Config{
		Queue:             gw,
		Process:           pipeline.Run,
		Logger:            c.logger,
		NumWorkers:        cfg.WorkerPoolSize,
		PollInterval:      cfg.PollInterval,
		VisibilityTimeout: cfg.VisibilityTimeout,
		DrainTimeout:      cfg.DrainTimeout,
	})
	defer pool.Stop()

	apiServer := api.NewServer(api.Config{ListenAddr: cfg.AppBind}, gw, searchEngine, ragComposer, pool, c.logger)

	c.logger.Info("starting bookmark hub",
		zap.String("api_addr", cfg.AppBind),
		zap.Int("worker_pool_size", cfg.WorkerPoolSize),
		zap.String("ollama_url", cfg.OllamaURL),
		zap.String("readability_url", cfg.ReadabilityURL),
	)

	errChan := make(chan error, 1)
	go func() {
		if err := apiServer.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		return apiServer.Shutdown()
	}
}
