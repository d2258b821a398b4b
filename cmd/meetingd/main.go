// Package main runs the meeting coordinator daemon.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/meetinghub/meetingd/internal/api"
	"github.com/meetinghub/meetingd/internal/bridge"
	"github.com/meetinghub/meetingd/internal/config"
	"github.com/meetinghub/meetingd/internal/doctor"
	"github.com/meetinghub/meetingd/internal/logging"
	"github.com/meetinghub/meetingd/internal/nanda"
	"github.com/meetinghub/meetingd/internal/orchestrator"
	"github.com/meetinghub/meetingd/internal/store"
	"github.com/meetinghub/meetingd/internal/supervisor"
	"github.com/meetinghub/meetingd/internal/version"
)

const healthCheckInterval = 30 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("meetingd", flag.ContinueOnError)
	configPath := flags.String("config", "", "config file path")
	showVersion := flags.Bool("version", false, "print version and exit")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *showVersion {
		fmt.Println(version.String())
		return nil
	}

	logRuntime, err := logging.New("meetingd")
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	defer func() { _ = logRuntime.Close() }()
	logger := logRuntime.Logger

	loaded, err := config.Load(*configPath)
	if err != nil {
		logger.Error("load config failed", "error", err.Error())
		return err
	}
	for _, w := range loaded.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w.Message)
		logger.Warn("config warning", "message", w.Message)
	}
	cfg := loaded.Config

	st := store.New()
	br := bridge.New(cfg.SocketDir, cfg.Timeouts, logger)
	sup := supervisor.New(cfg.Helpers, br, logger)
	orch := orchestrator.New(st, br, logger)
	registry := nanda.NewClient(cfg.Registry.URL, logger)

	apiServer := api.New(
		logger,
		st,
		orch,
		sup,
		registry,
		cfg.Registry.AgentBaseURL,
		func() doctor.Report { return doctor.Run(loaded) },
		cfg.UploadMaxBytes,
	)

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           apiServer.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go healthLoop(ctx, sup)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("coordinator listening",
			"addr", cfg.ListenAddr,
			"socket_dir", br.SocketDir(),
			"config", loaded.Path,
			"log", logRuntime.Path,
		)
		if serveErr := httpServer.ListenAndServe(); !errors.Is(serveErr, http.ErrServerClosed) {
			errCh <- serveErr
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		sup.StopAll()
		return err
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown failed", "error", err.Error())
	}
	sup.StopAll()
	return <-errCh
}

// healthLoop records periodic liveness probes so /servers/status reflects
// helper health between operator commands.
func healthLoop(ctx context.Context, sup *supervisor.Supervisor) {
	ticker := time.NewTicker(healthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, name := range sup.Names() {
				snap, err := sup.Status(name)
				if err != nil || !snap.Running {
					continue
				}
				probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
				_, _ = sup.HealthCheck(probeCtx, name)
				cancel()
			}
		}
	}
}
