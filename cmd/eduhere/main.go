package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Spok95/eduhere-client/internal/config"
	"github.com/Spok95/eduhere-client/internal/logging"
	"github.com/Spok95/eduhere-client/internal/observability"
	"github.com/Spok95/eduhere-client/internal/session"
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		return 1
	}
	lg, err := logging.Init(cfg.LogLevel, cfg.Env, "eduhere")
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		return 1
	}
	defer lg.Closer()

	flush, err := observability.InitSentry(cfg.SentryDSN, cfg.Env, cfg.Release)
	if err != nil {
		lg.Base.Warn("sentry init failed", zap.Error(err))
	}
	defer flush()

	store, closeStore, err := session.Open(ctx, cfg)
	if err != nil {
		lg.Base.Error("token store", zap.Error(err))
		return 1
	}
	defer func() { _ = closeStore() }()

	cli := newCommandLine(cfg, store, lg.Base, os.Stdin, os.Stdout)
	if err := cli.run(ctx, os.Args); err != nil {
		if !errors.Is(err, errHelp) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		return 1
	}
	return 0
}
