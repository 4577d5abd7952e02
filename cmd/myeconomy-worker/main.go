package main

import (
	"context"
	"errors"
	"os"
	"time"

	"myeconomy/internal/amqp"
	"myeconomy/internal/cli"
	applog "myeconomy/internal/log"
	"myeconomy/internal/sheets"
	gsheet "myeconomy/internal/sheets/google"
	mem "myeconomy/internal/sheets/memory"
	"myeconomy/internal/worker"

	"golang.org/x/sync/errgroup"
)

const statsInterval = time.Minute

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateWorkerConfig()
	logger := cli.SetupLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat, applog.ComponentWorker)

	logger.Info("Starting myeconomy-worker")

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	var ledger sheets.AlertWriter
	if cfg.SheetsEnabled() {
		client, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		ledger = client
		logger.Info("Google Sheets ledger initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)
	} else {
		ledger = mem.New()
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, alerts kept in memory")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ledgerWorker := worker.NewLedgerWorker(ledger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.Run(gctx, ledgerWorker.HandleLimitStatusChanged)
	})
	g.Go(func() error {
		ticker := time.NewTicker(statsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				s := ledgerWorker.Stats()
				logger.Info("Worker stats",
					"processed", s.Processed,
					"crossings", s.Crossings,
					"failed", s.Failed)
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
