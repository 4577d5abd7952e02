package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"myeconomy/internal/amqp"
	"myeconomy/internal/sheets"
)

// LedgerWorker records limit status changes in an alert ledger.
type LedgerWorker struct {
	ledger    sheets.AlertWriter
	processed atomic.Int64
	crossings atomic.Int64
	failed    atomic.Int64
}

// Stats is a snapshot of the worker counters.
type Stats struct {
	Processed int64
	Crossings int64
	Failed    int64
}

func NewLedgerWorker(ledger sheets.AlertWriter) *LedgerWorker {
	return &LedgerWorker{ledger: ledger}
}

// HandleLimitStatusChanged appends one ledger row for the event. A returned
// error makes the consumer requeue the message.
func (w *LedgerWorker) HandleLimitStatusChanged(ctx context.Context, msg *amqp.LimitStatusChangedMessage) error {
	if msg == nil {
		return errors.New("nil message")
	}
	if msg.EventID == "" {
		return errors.New("message without event id")
	}

	alert := msg.Alert()
	ref, err := w.ledger.AppendAlert(ctx, alert)
	if err != nil {
		w.failed.Add(1)
		slog.ErrorContext(ctx, "Failed to record limit alert",
			"event_id", msg.EventID,
			"email", msg.Email,
			"period", alert.Period.String(),
			"error", err)
		return fmt.Errorf("append alert: %w", err)
	}

	w.processed.Add(1)
	if alert.Crossed() {
		w.crossings.Add(1)
		slog.WarnContext(ctx, "Monthly limit exceeded",
			"email", msg.Email,
			"period", alert.Period.String(),
			"total", alert.Total.String(),
			"limit", alert.Limit.String())
	}
	slog.InfoContext(ctx, "Limit alert recorded",
		"event_id", msg.EventID,
		"status", msg.Status,
		"previous_status", msg.PreviousStatus,
		"ref", ref)
	return nil
}

func (w *LedgerWorker) Stats() Stats {
	return Stats{
		Processed: w.processed.Load(),
		Crossings: w.crossings.Load(),
		Failed:    w.failed.Load(),
	}
}
