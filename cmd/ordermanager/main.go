package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/desainin/order-manager/internal/app"
	"github.com/desainin/order-manager/internal/console"
	"github.com/desainin/order-manager/internal/pkg/config"
	"github.com/desainin/order-manager/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
		Fields: map[string]string{"env": cfg.Env},
	})

	store, err := app.OpenStore(ctx, cfg.Store, log)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Store.Backend).Msg("failed to open store")
	}

	session := app.NewSession(store, log, app.WithMetricsTextfile(cfg.MetricsTextfile))
	session.Start(ctx)

	shell := console.NewShell(session.Auth, session.Customers, session.Editors,
		os.Stdin, os.Stdout, logger.Component("console"))

	shell.Run(ctx)
	if ctx.Err() != nil {
		fmt.Fprintln(os.Stdout)
		log.Info().Msg("interrupted")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := session.Shutdown(shutdownCtx); err != nil {
		cancel()
		os.Exit(1)
	}
}
