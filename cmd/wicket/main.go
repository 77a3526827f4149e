// Command wicket is a terminal client for a support-ticket chat backend.
//
// Usage:
//
//	WICKET_INIT_DATA=... wicket [flags]
//
// Environment:
//
//	WICKET_BASE_URL      Backend base URL (default: http://localhost:8080)
//	WICKET_INIT_DATA     Signed identity payload from the host platform
//	WICKET_POLL_INTERVAL Poll cadence (default: 2s)
//	WICKET_LOG_FILE      Debug log destination (default: no logging)
//
// Flags:
//
//	-base-url string     Backend base URL (overrides WICKET_BASE_URL)
//	-transcript string   Path to save the transcript on exit
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/fwojciec/wicket"
	bt "github.com/fwojciec/wicket/bubbletea"
	wicketjson "github.com/fwojciec/wicket/json"
	"github.com/fwojciec/wicket/webapp"
	"github.com/rs/zerolog"
)

type config struct {
	BaseURL      string        `env:"WICKET_BASE_URL" envDefault:"http://localhost:8080"`
	InitData     string        `env:"WICKET_INIT_DATA"`
	PollInterval time.Duration `env:"WICKET_POLL_INTERVAL" envDefault:"2s"`
	LogFile      string        `env:"WICKET_LOG_FILE"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "wicket: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}

	var (
		baseURL        = flag.String("base-url", cfg.BaseURL, "Backend base URL")
		transcriptPath = flag.String("transcript", "", "Path to save the transcript on exit")
	)
	flag.Parse()

	log, cleanup, err := newLogger(cfg.LogFile)
	if err != nil {
		return err
	}
	defer cleanup()

	// Handle OS signals for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := webapp.New(*baseURL)
	ctrl := wicket.NewController(client, wicket.WithLogger(log))

	tuiModel := bt.New(ctrl, cfg.InitData, wicket.DefaultTheme(), cfg.PollInterval)
	if err := bt.Run(ctx, tuiModel); err != nil {
		return fmt.Errorf("TUI: %w", err)
	}

	// Save transcript on exit.
	if *transcriptPath != "" {
		tr := ctrl.Transcript()
		if err := wicketjson.Save(*transcriptPath, tr); err != nil {
			return fmt.Errorf("save transcript: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Transcript saved to %s\n", *transcriptPath)
	}

	return nil
}

// newLogger returns a file-backed debug logger, or a no-op logger when no
// path is configured. Logging to the terminal would corrupt the TUI.
func newLogger(path string) (zerolog.Logger, func(), error) {
	if path == "" {
		return zerolog.Nop(), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return zerolog.Logger{}, nil, fmt.Errorf("open log file: %w", err)
	}
	log := zerolog.New(f).Level(zerolog.DebugLevel).With().Timestamp().Logger()
	return log, func() { f.Close() }, nil
}
