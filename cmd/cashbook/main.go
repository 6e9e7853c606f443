package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"cashbook/internal/cli"
	"cashbook/internal/docsync"
	apphttp "cashbook/internal/http"
	"cashbook/internal/identity"
	"cashbook/internal/ledger"
	applog "cashbook/internal/log"
	"cashbook/internal/services"
)

func main() {
	cli.LoadEnvFile()

	cfg := cli.LoadAndValidateConfig(applog.New(0, applog.ComponentApp))
	logger := cli.SetupLogger(cfg.LogLevel, applog.ComponentApp)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result := cli.InitBackend(ctx, logger, cfg)
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("backend cleanup failed", "error", err)
		}
	}()

	ids := identity.NewStatic(cfg.UserID)
	syncer := docsync.New(result.Docs, ids, logger.WithComponent(applog.ComponentSync).Logger)
	store := ledger.New()

	var events services.Publisher
	if result.Events != nil {
		events = result.Events
	}
	svc := services.NewLedgerService(store, syncer, result.Prefs, events,
		logger.WithComponent(applog.ComponentLedger).Logger)

	bootCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err := svc.Bootstrap(bootCtx)
	cancel()
	if err != nil {
		logger.Error("bootstrap failed", "error", err, applog.FieldUser, cfg.UserID)
		os.Exit(1)
	}

	srv := apphttp.NewServer(":"+cfg.Port, svc, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting cashbook server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			applog.FieldUser, cfg.UserID)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown signal received")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped gracefully")
}
