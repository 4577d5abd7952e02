package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"myeconomy/internal/amqp"
	"myeconomy/internal/auth"
	"myeconomy/internal/backend"
	"myeconomy/internal/cli"
	apphttp "myeconomy/internal/http"
	applog "myeconomy/internal/log"
	"myeconomy/internal/services"

	"golang.org/x/sync/errgroup"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat, applog.ComponentApp)

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("Invalid timezone", "error", err, "timezone", cfg.AppTimezone)
		os.Exit(1)
	}

	// Status events are optional; without a broker they are only logged.
	var publisher services.StatusPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, limit status events disabled", "error", err)
		} else {
			publisher = client
			logger.Info("AMQP publisher connected", "exchange", cfg.AMQPExchange)
		}
	} else {
		logger.Info("AMQP_URL not set, limit status events disabled")
	}

	expenses := services.NewExpenseService(result.Store, publisher, services.WithLocation(loc))
	defer func() {
		if err := expenses.Close(); err != nil {
			logger.Error("Failed to close resources", "error", err)
		}
	}()
	accounts := services.NewAccountService(result.Store, auth.NewTokens(cfg.JWTSecret, cfg.JWTExpiresIn))

	srv := apphttp.NewServer(":"+cfg.Port, expenses, accounts, result.Store, apphttp.Options{
		Logger:             logger,
		AllowedOrigins:     cfg.CORSAllowedOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting myeconomy server", "port", cfg.Port, "backend", cfg.DataBackend, "timezone", loc.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
