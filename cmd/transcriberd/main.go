// Package main runs the transcription helper server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/meetinghub/meetingd/internal/config"
	"github.com/meetinghub/meetingd/internal/ipc"
	"github.com/meetinghub/meetingd/internal/logging"
	"github.com/meetinghub/meetingd/internal/transcriber"
	"github.com/meetinghub/meetingd/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("transcriberd", flag.ContinueOnError)
	configPath := flags.String("config", "", "config file path")
	showVersion := flags.Bool("version", false, "print version and exit")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *showVersion {
		fmt.Println(version.String())
		return nil
	}

	logger := logging.NewStderr()

	loaded, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	cfg := loaded.Config

	socketDir := cfg.SocketDir
	if socketDir == "" {
		socketDir = ipc.DefaultSocketDir()
	}
	socketPath := ipc.SocketPath(socketDir, "transcriber")

	listener, err := ipc.Acquire(ctx, socketPath, cfg.Timeouts.Probe, 3)
	if err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			return fmt.Errorf("another transcriber is already listening on %s", socketPath)
		}
		return err
	}
	defer os.Remove(socketPath)

	service := transcriber.NewService(transcriber.NewWhisperBackend(cfg.OpenAI), logger)

	logger.Info("transcriber listening", "socket", socketPath, "model", cfg.OpenAI.WhisperModel)
	return ipc.Serve(ctx, listener, service)
}
