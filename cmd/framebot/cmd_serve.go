package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fieldmark/framebot/internal/api"
	"github.com/fieldmark/framebot/internal/config"
	"github.com/fieldmark/framebot/internal/journal"
	"github.com/fieldmark/framebot/internal/monitoring"
	"github.com/fieldmark/framebot/internal/pipeline"
	"github.com/fieldmark/framebot/internal/pipeline/steps"
	"github.com/fieldmark/framebot/internal/server"
)

var (
	serveConfigPath string
	serveListen     string
	serveAPIListen  string
	serveDebug      bool
	serveTrace      bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the intake server and HTTP API",
	Long: `Starts the TCP intake server for emulator clients and the HTTP API for
stats and journal inspection. Runs until interrupted; on shutdown the
journal is flushed and closed.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "path to a JSON config file")
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "intake listen address (overrides config)")
	serveCmd.Flags().StringVar(&serveAPIListen, "api-listen", "", "HTTP API listen address (overrides config)")
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "log per-frame pipeline diagnostics to stderr")
	serveCmd.Flags().BoolVar(&serveTrace, "trace", false, "log per-step pipeline telemetry to stderr (very noisy)")
}

func loadConfig() (*config.BotConfig, error) {
	if serveConfigPath == "" {
		return config.Empty(), nil
	}
	return config.Load(serveConfigPath)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	listen := cfg.GetListenAddress()
	if serveListen != "" {
		listen = serveListen
	}
	apiListen := cfg.GetAPIAddress()
	if serveAPIListen != "" {
		apiListen = serveAPIListen
	}

	var diag, trace io.Writer
	if serveDebug {
		diag = os.Stderr
	}
	if serveTrace {
		diag = os.Stderr
		trace = os.Stderr
	}
	pipeline.SetLogWriters(os.Stderr, diag, trace)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := journal.OpenStore(cfg.GetJournalPath())
	if err != nil {
		return err
	}

	var writer journal.Writer = store
	if url := cfg.GetRedisURL(); url != "" {
		client, err := journal.ConnectRedis(url)
		if err != nil {
			return err
		}
		redisWriter := journal.NewRedisWriter(ctx, client, int64(cfg.GetJournalSize()))
		writer = journal.NewTeeWriter(store, redisWriter)
	}
	defer writer.Close()

	assembled := steps.Default(steps.Options{
		FrameTimeout:  cfg.GetFrameTimeout(),
		SelectionSeed: cfg.GetSelectionSeed(),
	})
	assembled.ImageChange.WithStride(cfg.GetDetectionStride())

	monitor := monitoring.NewPerformanceMonitor()
	collector := monitoring.NewCollector(monitor)

	intake := server.NewServer(server.Config{
		Address:     listen,
		Steps:       assembled,
		Journal:     writer,
		Metrics:     collector,
		IdleTimeout: cfg.GetIdleTimeout(),
	})

	apiServer := api.NewServer(monitor, intake, store)
	httpServer := &http.Server{
		Addr:    apiListen,
		Handler: api.LoggingMiddleware(apiServer.ServeMux()),
	}
	go func() {
		monitoring.Logf("HTTP API listening on %s", apiListen)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			monitoring.Logf("HTTP API failed: %v", err)
		}
	}()
	defer httpServer.Shutdown(context.Background())

	if err := intake.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
