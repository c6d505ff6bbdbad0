package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/asklore/asklore/internal/api/handlers"
	"github.com/asklore/asklore/internal/config"
	"github.com/asklore/asklore/internal/jobs"
	"github.com/asklore/asklore/internal/repository"
	"github.com/asklore/asklore/internal/server"
	"github.com/asklore/asklore/internal/service"
	"github.com/asklore/asklore/internal/telemetry"
	"github.com/spf13/cobra"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the askLore API server and the background source loader",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

// askWithDefault substitutes the configured top-k when a request leaves
// it unset.
type askWithDefault struct {
	svc  *service.AnswerService
	topK int
}

func (a *askWithDefault) Answer(ctx context.Context, question string, k int) (string, error) {
	if k <= 0 {
		k = a.topK
	}
	return a.svc.Answer(ctx, question, k)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.SentryDSN != "" {
		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if cfg.Environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			TracesSampleRate: sampleRate,
			Debug:            cfg.Debug,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	pool, err := newPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	chunkRepo := repository.NewChunkRepository(pool)
	embedder := newEmbedder(cfg)
	generator := newGenerator(cfg)

	ingestSvc := newIngestService(pool, embedder, cfg)
	answerSvc := service.NewAnswerService(chunkRepo, embedder, generator)

	catalog, err := newCatalog(ctx, cfg)
	if err != nil {
		return err
	}

	runner := jobs.NewLoadRunner(catalog, ingestSvc)

	if cfg.LoadOnStart {
		go func() {
			if err := runner.Process(ctx); err != nil {
				log.Printf("initial load failed: %v", err)
			}
		}()
	}

	var reloadWorker *jobs.Worker
	if cfg.ReloadInterval > 0 {
		reloadWorker = jobs.NewWorker(runner, cfg.ReloadInterval)
		go reloadWorker.Start(ctx)
		log.Printf("reload worker started (interval %v)", cfg.ReloadInterval)
	}

	routerCfg := server.RouterConfig{
		APIToken:       cfg.APIToken,
		AskHandler:     handlers.NewAskHandler(&askWithDefault{svc: answerSvc, topK: cfg.TopK}),
		IngestHandler:  handlers.NewIngestHandler(catalog, ingestSvc),
		StatusHandler:  handlers.NewStatusHandler(chunkRepo),
		SourcesHandler: handlers.NewSourcesHandler(chunkRepo),
	}

	router := server.NewRouter(routerCfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if reloadWorker != nil {
		reloadWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}
