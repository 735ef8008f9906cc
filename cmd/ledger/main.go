package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"ledger/internal/cli"
	"ledger/internal/config"
	"ledger/internal/ledger"
	applog "ledger/internal/log"
	"ledger/internal/menu"
)

func main() {
	cli.LoadEnvFile()
	cfg := config.Load()
	logger := cli.SetupLogger(cfg.LogLevel)
	cli.ValidateConfig(logger, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	result := cli.InitBackend(ctx, logger, cfg)

	opts := []ledger.Option{ledger.WithLogger(logger)}
	if result.Notifier != nil {
		opts = append(opts, ledger.WithNotifier(result.Notifier))
	}
	l := ledger.New(result.Store, opts...)

	loaded := l.Load(ctx)
	logger.Info("Account loaded",
		applog.FieldOperation, applog.OpStartup,
		applog.FieldStatus, loaded.Status.String(),
		applog.FieldBackend, cfg.DataBackend)

	session := menu.NewSession(l, os.Stdin, os.Stdout,
		menu.WithLogger(logger),
		menu.WithReportSaveFailures(cfg.ReportSaveFailures))

	// The session and the signal watcher share one group: a signal cancels
	// the session, and leaving the menu stops the watcher.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return session.Run(gctx)
	})
	g.Go(func() error {
		return cli.WaitForSignal(gctx, logger)
	})

	err := g.Wait()

	if cleanupErr := result.Cleanup(); cleanupErr != nil {
		logger.Error("Backend cleanup failed", applog.FieldError, cleanupErr)
	}
	if err != nil && !errors.Is(err, cli.ErrShutdownSignal) {
		logger.Error("Menu session failed", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Stopped", applog.FieldOperation, applog.OpShutdown)
}
