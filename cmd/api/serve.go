package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/securescan-api/internal/application/otp"
	jwtinfra "github.com/securescan-api/internal/infrastructure/jwt"
	"github.com/securescan-api/internal/infrastructure/metrics"
	transporthttp "github.com/securescan-api/internal/transport/http"
	"github.com/securescan-api/internal/transport/http/handler"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b := newBackends(cfg, log)
	defer b.close()

	store, err := b.codeStore(ctx)
	if err != nil {
		return err
	}
	registry, err := b.identityRegistry(ctx)
	if err != nil {
		return err
	}
	deliverer, err := b.deliverer(ctx)
	if err != nil {
		return err
	}

	// Verification tickets are optional.
	var tickets handler.TicketSigner
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		tickets = p
	} else {
		log.Warn("verification tokens disabled", zap.Error(err))
	}

	prom := metrics.NewPrometheus()
	svc := otp.NewService(otp.ServiceDeps{
		Store:      store,
		Registry:   registry,
		Deliverer:  deliverer,
		Metrics:    prom,
		Logger:     log.Named("otp"),
		TTL:        cfg.OTP.TTL,
		LockShards: cfg.OTP.LockShards,
	})

	router, closeRouter := transporthttp.NewRouter(cfg, &transporthttp.Deps{
		OTP:     svc,
		Logger:  log.Named("http"),
		Tickets: tickets,
		Metrics: prom.Handler(),
	})
	defer closeRouter()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.AppEnv),
			zap.String("code_store", cfg.CodeStore),
			zap.String("identity_backend", cfg.IdentityBackend),
			zap.String("delivery_backend", cfg.DeliveryBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}
