// cmd/clubverse/serve.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"clubverse/internal/account"
	"clubverse/internal/chaos"
	"clubverse/internal/eventstore"
	"clubverse/internal/membership"
	"clubverse/internal/notify"
	"clubverse/internal/reservation"
	"clubverse/internal/server"
	"clubverse/internal/telemetry"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (a *app) serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().String("addr", ":3000", "listen address")
	a.v.BindPFlag("http.addr", cmd.Flags().Lookup("addr"))
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, logger := a.cfg, a.logger

	shutdownTracing, err := telemetry.SetupTracing(ctx, telemetry.TracingConfig{
		Enabled:        cfg.Tracing.Enabled,
		Endpoint:       cfg.Tracing.Endpoint,
		Insecure:       cfg.Tracing.Insecure,
		SampleRate:     cfg.Tracing.SampleRate,
		ServiceVersion: version,
	})
	if err != nil {
		return err
	}
	defer shutdownTracing(context.Background())

	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		metrics, err := telemetry.SetupMetrics(ctx, "clubverse", version)
		if err != nil {
			return err
		}
		defer metrics.Shutdown(context.Background())
		metricsHandler = metrics.Handler()
	}

	db, err := a.openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	var sender notify.Sender = notify.NewNoopSender(logger)
	if cfg.Email.ResendAPIKey != "" {
		sender = notify.NewResendSender(cfg.Email.ResendAPIKey, cfg.Email.From, logger)
	}
	mailer := notify.NewMailer(sender, cfg.HTTP.BaseURL, logger.Named("mail"))

	events := eventstore.NewEventStore(db)

	var membershipStore membership.Store = membership.NewPostgresStore(events, db)
	if cfg.Chaos.Enabled {
		logger.Warn("chaos injection enabled on the membership store",
			zap.Float64("failure_rate", cfg.Chaos.FailureRate),
			zap.Duration("latency", cfg.Chaos.Latency),
		)
		injector := chaos.NewInjector(cfg.Chaos.FailureRate, cfg.Chaos.Latency, cfg.Chaos.Seed)
		membershipStore = chaos.WrapMembershipStore(membershipStore, injector)
	}

	accounts := account.NewService(
		account.NewPostgresStore(events, db),
		account.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		logger.Named("account"),
		account.WithNotifier(mailer),
	)
	memberships := membership.NewService(membershipStore, logger.Named("membership"), membership.WithNotifier(mailer))
	reservations := reservation.NewService(
		reservation.NewPostgresStore(events, db),
		logger.Named("reservation"),
		reservation.WithNotifier(mailer),
	)

	router, err := server.NewRouter(server.Deps{
		Config:       cfg,
		Logger:       logger,
		DB:           db,
		Accounts:     accounts,
		Memberships:  memberships,
		Reservations: reservations,
		Metrics:      metricsHandler,
	})
	if err != nil {
		return err
	}
	srv := server.New(cfg.HTTP, router)

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr), zap.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
