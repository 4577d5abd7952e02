package services

import "sync/atomic"

type counters struct {
	expensesCreated atomic.Int64
	expensesUpdated atomic.Int64
	expensesDeleted atomic.Int64
	limitsSet       atomic.Int64
	limitsDeleted   atomic.Int64
	reconciliations atomic.Int64
	statusChanges   atomic.Int64
	eventsPublished atomic.Int64
	eventsFailed    atomic.Int64
}

// Stats is a point-in-time copy of the service counters.
type Stats struct {
	ExpensesCreated int64
	ExpensesUpdated int64
	ExpensesDeleted int64
	LimitsSet       int64
	LimitsDeleted   int64
	Reconciliations int64
	StatusChanges   int64
	EventsPublished int64
	EventsFailed    int64
}

func (s *ExpenseService) Stats() Stats {
	c := &s.counters
	return Stats{
		ExpensesCreated: c.expensesCreated.Load(),
		ExpensesUpdated: c.expensesUpdated.Load(),
		ExpensesDeleted: c.expensesDeleted.Load(),
		LimitsSet:       c.limitsSet.Load(),
		LimitsDeleted:   c.limitsDeleted.Load(),
		Reconciliations: c.reconciliations.Load(),
		StatusChanges:   c.statusChanges.Load(),
		EventsPublished: c.eventsPublished.Load(),
		EventsFailed:    c.eventsFailed.Load(),
	}
}
