package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DoyleJ11/card-arena-backend/internal/config"
	"github.com/DoyleJ11/card-arena-backend/internal/httpapi"
	"github.com/DoyleJ11/card-arena-backend/internal/hub"
	"github.com/DoyleJ11/card-arena-backend/internal/ws"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := cfg.Logger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The hub outlives the signal so shutdown can still end sessions cleanly.
	h, err := hub.NewHub(context.Background(), cfg.Engine(), logger)
	if err != nil {
		return err
	}
	if cfg.AdminPassword == "" {
		logger.Warn("ADMIN_PASSWORD unset, admin routes disabled")
	}
	gate, err := httpapi.NewAdminGate(cfg.AdminPassword, bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	// Build the router *with* the hub injected
	handler := httpapi.SetupRoutes(h, gate, ws.Options{
		HeartbeatInterval: cfg.WS.HeartbeatInterval,
		ClientTimeout:     cfg.WS.ClientTimeout,
		OutboxSize:        cfg.WS.OutboxSize,
	}, logger)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		// Ending sessions closes every outbox, which lets websocket handlers return.
		_, cleanErr := h.FullClean(sctx)
		h.Shutdown()
		return multierr.Combine(srv.Shutdown(sctx), cleanErr)
	})
	return g.Wait()
}
