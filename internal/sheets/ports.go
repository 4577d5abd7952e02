package sheets

import (
	"context"

	"myeconomy/internal/core"
)

// Ports for outbound adapters.
type (
	// AlertWriter appends limit alerts to a ledger. Writing an alert whose
	// EventID is already present is a no-op that returns the existing row.
	AlertWriter interface {
		AppendAlert(ctx context.Context, a core.LimitAlert) (rowRef string, err error)
	}

	// AlertLister returns the alerts recorded for a year, oldest first.
	AlertLister interface {
		ListAlerts(ctx context.Context, year int) ([]core.LimitAlert, error)
	}
)
