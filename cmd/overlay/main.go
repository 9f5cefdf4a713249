package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/overlay-monitor/internal/auth"
	"github.com/rickgao/overlay-monitor/internal/clock"
	"github.com/rickgao/overlay-monitor/internal/config"
	"github.com/rickgao/overlay-monitor/internal/connection"
	"github.com/rickgao/overlay-monitor/internal/monitor"
	"github.com/rickgao/overlay-monitor/internal/render"
	"github.com/rickgao/overlay-monitor/internal/version"
	"github.com/rickgao/overlay-monitor/internal/web"
)

func main() {
	configPath := flag.String("config", "configs/overlay.yaml", "path to config file")
	pageURL := flag.String("page-url", "", "override relay.page_url")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	cfg, err := loadConfig(*configPath, *pageURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Log.SlogLevel(),
	}))
	slog.SetDefault(logger)

	logger.Info("starting overlay",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
		"instance_id", cfg.Instance.ID,
	)

	if err := run(cfg, logger); err != nil {
		logger.Error("overlay failed", "error", err)
		os.Exit(1)
	}

	logger.Info("overlay stopped")
}

func loadConfig(path, pageURL string) (*config.OverlayConfig, error) {
	cfg, err := config.LoadWithDefaults(path)
	if err != nil {
		return nil, err
	}
	if pageURL != "" {
		cfg.Relay.PageURL = pageURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func run(cfg *config.OverlayConfig, logger *slog.Logger) error {
	socketURL, err := connection.EndpointURL(cfg.Relay.PageURL)
	if err != nil {
		return err
	}

	clientCfg := connection.DefaultClientConfig()
	clientCfg.HandshakeTimeout = cfg.Relay.HandshakeTimeout
	clientCfg.WriteTimeout = cfg.Relay.WriteTimeout
	clientCfg.BufferSize = cfg.Relay.BufferSize
	if cfg.Relay.Token != "" || cfg.Relay.TokenFile != "" {
		creds, err := auth.LoadCredentials(cfg.Relay.Token, cfg.Relay.TokenFile)
		if err != nil {
			return fmt.Errorf("relay credentials: %w", err)
		}
		clientCfg.Headers = creds.Headers()
	}

	var controlCreds *auth.Credentials
	if cfg.Auth.Enabled() {
		controlCreds, err = auth.LoadCredentials(cfg.Auth.Token, cfg.Auth.TokenFile)
		if err != nil {
			return fmt.Errorf("control credentials: %w", err)
		}
	}

	loop := clock.NewLoop(256, logger)
	dialer := connection.NewLoopDialer(loop, clientCfg, logger)

	server := web.New(web.Options{
		Addr:         cfg.Display.Listen,
		Title:        cfg.Display.Title,
		PollInterval: cfg.Display.PollInterval,
		Credentials:  controlCreds,
		Renderer:     render.New(time.Local),
	}, nil, logger)

	monCfg := monitor.Config{
		URL:                socketURL,
		ReconnectBase:      cfg.Monitor.ReconnectBaseDelay,
		ReconnectMax:       cfg.Monitor.ReconnectMaxDelay,
		SupervisorInterval: cfg.Monitor.SupervisorInterval,
		HeartbeatInterval:  cfg.Monitor.HeartbeatInterval,
		HeartbeatTimeout:   cfg.Monitor.HeartbeatTimeout,
		HealthInterval:     cfg.Monitor.HealthInterval,
		DisplayDuration:    cfg.Monitor.DisplayDuration,
		StatusPanelVisible: cfg.Display.ShowStatusPanel,
	}
	mon := monitor.New(monCfg, loop, dialer, server, logger)
	server.SetControls(monitor.NewController(loop, mon))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer stopLoop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := loop.Run(loopCtx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		if err := loop.Call(gctx, mon.Start); err != nil {
			return fmt.Errorf("start monitor: %w", err)
		}
		logger.Info("overlay running",
			"socket_url", socketURL,
			"display_url", "http://localhost"+cfg.Display.Listen+"/",
		)
		return nil
	})

	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("display server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := loop.Call(shutdownCtx, mon.Shutdown); err != nil {
			logger.Warn("monitor shutdown", "error", err)
		}
		stopLoop()

		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
