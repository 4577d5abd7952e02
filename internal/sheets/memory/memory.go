package memory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"myeconomy/internal/core"
	ports "myeconomy/internal/sheets"
)

// Ledger keeps limit alerts in process. It is used by the worker when no
// spreadsheet is configured, and by tests.
type Ledger struct {
	mu     sync.Mutex
	alerts []core.LimitAlert
	byID   map[string]int
}

var (
	_ ports.AlertWriter = (*Ledger)(nil)
	_ ports.AlertLister = (*Ledger)(nil)
)

func New() *Ledger {
	return &Ledger{byID: map[string]int{}}
}

// AppendAlert stores the alert and returns a synthetic row reference.
func (l *Ledger) AppendAlert(ctx context.Context, a core.LimitAlert) (string, error) {
	if a.EventID == "" {
		return "", errors.New("alert without event id")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if i, ok := l.byID[a.EventID]; ok {
		return fmt.Sprintf("mem:%d", i+1), nil
	}
	l.alerts = append(l.alerts, a)
	l.byID[a.EventID] = len(l.alerts) - 1
	slog.InfoContext(ctx, "Limit alert recorded",
		"event_id", a.EventID,
		"email", a.Email,
		"period", a.Period.String(),
		"previous_status", a.PreviousStatus,
		"status", a.Status,
		"total", a.Total.String(),
		"limit", a.Limit.String())
	return fmt.Sprintf("mem:%d", len(l.alerts)), nil
}

// ListAlerts returns the alerts of the given year in insertion order.
func (l *Ledger) ListAlerts(_ context.Context, year int) ([]core.LimitAlert, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]core.LimitAlert, 0, len(l.alerts))
	for _, a := range l.alerts {
		if a.Period.Year == year {
			out = append(out, a)
		}
	}
	return out, nil
}
