// relay subscribes to an MQTT topic and delivers each message to the
// connected overlays, one at a time, waiting for an acknowledgment.
// Usage: go run ./cmd/relay --config configs/relay.yaml
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/rickgao/overlay-monitor/internal/auth"
	"github.com/rickgao/overlay-monitor/internal/config"
	"github.com/rickgao/overlay-monitor/internal/database"
	"github.com/rickgao/overlay-monitor/internal/dispatch"
	"github.com/rickgao/overlay-monitor/internal/hub"
	"github.com/rickgao/overlay-monitor/internal/metrics"
	"github.com/rickgao/overlay-monitor/internal/source"
	"github.com/rickgao/overlay-monitor/internal/version"
	"github.com/rickgao/overlay-monitor/internal/writer"
)

func main() {
	configPath := flag.String("config", "configs/relay.yaml", "path to config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	cfg, err := config.LoadRelayAndValidate(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Log.SlogLevel(),
	}))
	slog.SetDefault(logger)

	logger.Info("starting relay",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
		"instance_id", cfg.Instance.ID,
	)

	if err := run(cfg, logger); err != nil {
		logger.Error("relay failed", "error", err)
		os.Exit(1)
	}

	logger.Info("relay stopped")
}

func run(cfg *config.RelayConfig, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var creds *auth.Credentials
	if cfg.Auth.Enabled() {
		var err error
		creds, err = auth.LoadCredentials(cfg.Auth.Token, cfg.Auth.TokenFile)
		if err != nil {
			return fmt.Errorf("load credentials: %w", err)
		}
	}

	m := &metrics.Relay{}

	h := hub.New(hub.Config{
		WriteTimeout:    cfg.Server.WriteTimeout,
		CleanupInterval: cfg.Server.CleanupInterval,
		MaxSilence:      cfg.Server.MaxSilence,
		Credentials:     creds,
		Metrics:         m,
	}, logger)

	// Optional delivery log
	var (
		pool    *pgxpool.Pool
		handler dispatch.DeliveryHandler
		dw      *writer.DeliveryWriter
	)
	if cfg.Database.Enabled() {
		logger.Info("connecting to database",
			"host", cfg.Database.Host,
			"port", cfg.Database.Port,
			"database", cfg.Database.Name,
		)

		var err error
		pool, err = database.Connect(ctx, cfg.Database, "overlay-relay")
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()

		if err := database.EnsureSchema(ctx, pool); err != nil {
			return err
		}

		dw = writer.NewDeliveryWriter(writer.WriterConfig{
			BatchSize:     cfg.Writer.BatchSize,
			FlushInterval: cfg.Writer.FlushInterval,
			BufferSize:    cfg.Writer.BufferSize,
			Instance:      cfg.Instance.ID,
		}, pool, m, logger)
		if err := dw.Start(ctx); err != nil {
			return err
		}
		handler = dw

		logger.Info("database connected")
	}

	src, err := source.NewMQTT(source.Config{
		Broker:     cfg.Source.Broker,
		Topic:      cfg.Source.Topic,
		ClientID:   cfg.Source.ClientID,
		Username:   cfg.Source.Username,
		Password:   cfg.Source.Password,
		QoS:        byte(cfg.Source.QoS),
		BufferSize: cfg.Source.BufferSize,
	}, m, logger)
	if err != nil {
		return err
	}

	d := dispatch.New(dispatch.Config{
		AckTimeout:  cfg.Dispatch.AckTimeout,
		ImagePrefix: cfg.Dispatch.ImagePrefix,
		MaxAttempts: cfg.Dispatch.MaxAttempts,
	}, src, h, handler, m, logger)

	mux := http.NewServeMux()
	mux.Handle("/ws", h)
	mux.Handle("/output_images/", http.StripPrefix("/output_images/", http.FileServer(http.Dir(cfg.Server.ImageDir))))
	mux.HandleFunc("GET /health", healthHandler(h, src, pool, m))

	server := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return h.Run(gctx)
	})

	g.Go(func() error {
		logger.Info("relay listening", "addr", cfg.Server.Listen, "image_dir", cfg.Server.ImageDir)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("relay server: %w", err)
		}
		return nil
	})

	if err := d.Start(gctx); err != nil {
		return err
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		// Stop intake before the dispatcher.
		if err := src.Close(); err != nil {
			logger.Warn("source close", "error", err)
		}
		if err := d.Stop(shutdownCtx); err != nil {
			logger.Warn("dispatcher stop", "error", err)
		}
		h.Close()
		if dw != nil {
			if err := dw.Stop(shutdownCtx); err != nil {
				logger.Warn("delivery writer stop", "error", err)
			}
		}
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// relayHealth is the /health response.
type relayHealth struct {
	Status     string                `json:"status"`
	Clients    []hub.ClientInfo      `json:"clients"`
	QueueDepth int                   `json:"queue_depth"`
	Database   string                `json:"database,omitempty"`
	Metrics    metrics.RelaySnapshot `json:"metrics"`
	Version    version.Info          `json:"version"`
}

func healthHandler(h *hub.Hub, src source.Source, pool *pgxpool.Pool, m *metrics.Relay) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := relayHealth{
			Status:     "healthy",
			Clients:    h.ClientInfo(),
			QueueDepth: src.Len(),
			Metrics:    m.Snapshot(),
			Version:    version.Current(),
		}
		if len(health.Clients) == 0 {
			health.Status = "degraded"
		}

		if pool != nil {
			if err := pool.Ping(ctx); err != nil {
				health.Status = "unhealthy"
				health.Database = "disconnected: " + err.Error()
			} else {
				health.Database = "connected"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	}
}
