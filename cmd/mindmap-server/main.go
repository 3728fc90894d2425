// Command mindmap-server serves the concept map API and live viewer sessions.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/persistorai/mindmap/internal/api"
	"github.com/persistorai/mindmap/internal/cache"
	"github.com/persistorai/mindmap/internal/config"
	"github.com/persistorai/mindmap/internal/db"
	"github.com/persistorai/mindmap/internal/db/migrations"
	"github.com/persistorai/mindmap/internal/dbpool"
	"github.com/persistorai/mindmap/internal/export"
	"github.com/persistorai/mindmap/internal/extract"
	"github.com/persistorai/mindmap/internal/generate"
	"github.com/persistorai/mindmap/internal/service"
	"github.com/persistorai/mindmap/internal/store"
	"github.com/persistorai/mindmap/internal/ws"
)

const (
	cacheTTL          = 24 * time.Hour
	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 2 * time.Minute
	shutdownTimeout   = 15 * time.Second
)

func main() {
	os.Exit(serve())
}

// serve returns the process exit code so deferred cleanup runs first.
func serve() int {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Error: loading .env: %v\n", err)
		return 1
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	log, closeLog, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Error("server exited")
		return 1
	}

	return 0
}

func run(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	pool, err := dbpool.NewPool(ctx, cfg.DatabaseURL.Value(), int32(cfg.DBMaxConns)) //nolint:gosec // bounded by config validation.
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool, log, migrations.FS); err != nil {
		return err
	}

	memory := cache.New(cfg.CacheSizeBytes(), cacheTTL, log)
	base := store.Base{Pool: pool, Log: log}
	galleryStore := store.NewGalleryStore(base)

	gen := newGenerator(cfg)
	breaker := generate.NewBreaker(gen, cfg.GenerateTimeout, log)

	graphs := service.NewGraphService(memory, store.NewGraphCacheStore(base), breaker, log)
	gallery := service.NewGalleryService(galleryStore, log)
	quizStore := store.NewQuizStore(base)
	quizStats := service.NewQuizService(quizStore)
	syncWorker := service.NewSyncWorker(gallery, graphs, quizStore, log, cfg.SyncQueueSize)

	exportOpts := export.DefaultOptions()
	exportOpts.MaxRetries = cfg.ExportMaxRetries

	hub := ws.NewHub(log)

	if err := db.NewNotifyBridge(log, pool, memory, hub).Start(ctx); err != nil {
		return err
	}

	router := api.NewRouter(ctx, &api.RouterDeps{
		Log:         log,
		DB:          pool,
		Hub:         hub,
		Graphs:      graphs,
		Gallery:     gallery,
		Quiz:        quizStats,
		Schema:      galleryStore,
		Extractor:   extract.NewExtractor(cfg.PDFToTextPath, memory, log),
		Exporter:    export.NewExporter(exportOpts, log),
		Breaker:     breaker,
		Persister:   syncWorker,
		Attempts:    syncWorker,
		Generator:   gen.Name(),
		CORSOrigins: cfg.CORSOrigins,
		Version:     config.Version,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		syncWorker.Run(gctx)
		return nil
	})

	g.Go(func() error {
		log.WithFields(logrus.Fields{
			"addr":      srv.Addr,
			"version":   config.Version,
			"generator": gen.Name(),
		}).Info("mindmap server listening")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		log.Info("shutting down")

		// Viewers receive a shutdown event before HTTP connections close.
		hub.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}

		return nil
	})

	return g.Wait()
}

func newGenerator(cfg *config.Config) generate.Generator {
	if cfg.Generator == config.GeneratorStub {
		return generate.StubGenerator{}
	}

	return generate.NewOpenAIGenerator(generate.OpenAIConfig{
		APIKey:  cfg.OpenAIAPIKey.Value(),
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.OpenAIModel,
	})
}
