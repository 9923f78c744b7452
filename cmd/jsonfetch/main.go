package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/jsonfetch/internal/app"
	"github.com/samvad-hq/jsonfetch/internal/config"
	"github.com/samvad-hq/jsonfetch/internal/logger"
	"github.com/samvad-hq/jsonfetch/pkg/fetcher"
)

func main() {
	os.Exit(run(os.Stdout, os.Stderr))
}

// run performs one fetch cycle and returns the process exit code.
// Documents go to stdout; on failure stderr gets one readable line.
func run(stdout, stderr io.Writer, opts ...app.Option) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := execute(ctx, stdout, stderr, opts...); err != nil {
		fmt.Fprintln(stderr, fetcher.Describe(err))
		return 1
	}
	return 0
}

func execute(ctx context.Context, stdout, stderr io.Writer, opts ...app.Option) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.InitTo(cfg, stderr)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.DebugObj("jsonfetch starting", "config", cfg)

	runner, err := app.NewRunner(ctx, cfg, log, opts...)
	if err != nil {
		return fmt.Errorf("init runner: %w", err)
	}

	return runner.Run(ctx, stdout)
}
