package core

import "time"

// LimitAlert is one row of the limit-status ledger: a month whose limit
// status changed after a reconciliation.
type LimitAlert struct {
	EventID        string
	Email          string
	Period         Period
	PreviousStatus LimitStatus
	Status         LimitStatus
	Total          Money
	Limit          Money
	OccurredAt     time.Time
}

// Crossed reports whether the alert is a move above the limit.
func (a LimitAlert) Crossed() bool {
	return a.Status == StatusAboveLimit && a.PreviousStatus != StatusAboveLimit
}
