package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"myeconomy/internal/amqp"
	"myeconomy/internal/core"
	"myeconomy/internal/sheets/memory"
)

type failingLedger struct{}

func (failingLedger) AppendAlert(context.Context, core.LimitAlert) (string, error) {
	return "", errors.New("sheet unavailable")
}

func message(id string, prev, status core.LimitStatus) *amqp.LimitStatusChangedMessage {
	return &amqp.LimitStatusChangedMessage{
		EventID:        id,
		Email:          "ana@example.com",
		LimitID:        1,
		Month:          3,
		Year:           2025,
		PreviousStatus: prev,
		Status:         status,
		TotalCents:     12000,
		LimitCents:     10000,
		Timestamp:      time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC),
	}
}

func TestLedgerWorker_RecordsAlerts(t *testing.T) {
	ledger := memory.New()
	w := NewLedgerWorker(ledger)
	ctx := context.Background()

	if err := w.HandleLimitStatusChanged(ctx, message("e1", core.StatusNoLimit, core.StatusBelowLimit)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if err := w.HandleLimitStatusChanged(ctx, message("e2", core.StatusBelowLimit, core.StatusAboveLimit)); err != nil {
		t.Fatalf("handle: %v", err)
	}

	alerts, _ := ledger.ListAlerts(ctx, 2025)
	if len(alerts) != 2 {
		t.Fatalf("alerts = %d, want 2", len(alerts))
	}
	a := alerts[1]
	if a.EventID != "e2" || a.Total.Cents != 12000 || a.Limit.Cents != 10000 || a.Period != (core.Period{Month: 3, Year: 2025}) {
		t.Errorf("unexpected alert: %+v", a)
	}

	st := w.Stats()
	if st.Processed != 2 || st.Crossings != 1 || st.Failed != 0 {
		t.Errorf("stats = %+v", st)
	}
}

func TestLedgerWorker_FailureIsReturned(t *testing.T) {
	w := NewLedgerWorker(failingLedger{})
	err := w.HandleLimitStatusChanged(context.Background(), message("e1", core.StatusBelowLimit, core.StatusAboveLimit))
	if err == nil {
		t.Fatal("expected error")
	}
	if w.Stats().Failed != 1 {
		t.Errorf("failed = %d, want 1", w.Stats().Failed)
	}
}

func TestLedgerWorker_RejectsMessageWithoutEventID(t *testing.T) {
	w := NewLedgerWorker(memory.New())
	if err := w.HandleLimitStatusChanged(context.Background(), message("", core.StatusNoLimit, core.StatusBelowLimit)); err == nil {
		t.Fatal("expected error")
	}
	if err := w.HandleLimitStatusChanged(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil message")
	}
}
