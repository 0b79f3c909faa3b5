// SPDX-License-Identifier: EPL-2.0

// Command squarewd serves the square-wave converter over HTTP.
//
// Usage:
//
//	squarewd [flags]
//
// Every flag has a SQUAREW_* environment variable counterpart; flags win.
//
// Examples:
//
//	squarewd -addr :9000
//	SQUAREW_LOWPASS=true squarewd -cutoff 2500
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/tucommenceapousser/squarew/internal/config"
	"github.com/tucommenceapousser/squarew/internal/server"
)

func main() {
	cfg := config.Load()

	fs := flag.NewFlagSet("squarewd", flag.ExitOnError)
	cfg.RegisterServerFlags(fs)
	cfg.RegisterConversionFlags(fs)
	fs.Parse(os.Args[1:])

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := log.New(os.Stderr, "squarewd: ", log.LstdFlags)

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Fatalf("config: %v", err)
	}

	logger.Printf("defaults: rate=%d mode=%s lowpass=%t cutoff=%gHz order=%d, max upload %d MiB",
		cfg.SampleRate, cfg.Mode, cfg.LowPass, cfg.CutoffHz, cfg.FilterOrder, cfg.MaxUploadMB)

	if err := srv.ListenAndServe(ctx); err != nil {
		logger.Fatalf("server: %v", err)
	}
	logger.Println("stopped")
}
