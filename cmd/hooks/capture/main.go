// Package main provides the editor-callback capture hook. It reads one
// event from stdin, writes it to the learning ledger, and always exits
// cleanly: capture failures must never break the editor.
package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm/logger"

	"github.com/pensieve-dev/pensieve/internal/capture"
	"github.com/pensieve-dev/pensieve/internal/config"
	"github.com/pensieve-dev/pensieve/internal/db"
	"github.com/pensieve-dev/pensieve/pkg/hookio"
)

func main() {
	// Stdout carries the hook acknowledgement, so logs go to stderr.
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	if os.Getenv("PENSIEVE_DEBUG") != "" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true})

	hookio.Run("capture", handleCapture)
}

func handleCapture(ctx context.Context, ev *capture.Event) error {
	cfg := config.Get()

	store, err := db.NewStore(db.Config{
		Path:          cfg.DBPath,
		MaxConns:      cfg.MaxConns,
		BusyTimeoutMS: cfg.BusyTimeoutMS,
		LogLevel:      logger.Silent,
	})
	if err != nil {
		// Storage-unavailable is fatal for this invocation, but the editor
		// still gets its acknowledgement.
		return err
	}
	defer store.Close()

	capture.New(store).Dispatch(ctx, ev)
	return nil
}
