package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/k-negishi/calendar-event-loader/internal/config"
	"github.com/k-negishi/calendar-event-loader/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "設定読み込みエラー: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)
	root := newRootCommand(newRunner(cfg, os.Stdout, logger))

	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errLoadFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		stop()
		os.Exit(1)
	}
}
