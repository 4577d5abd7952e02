package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"myeconomy/internal/amqp"
	"myeconomy/internal/core"
	"myeconomy/internal/storage"
)

type statusChange struct {
	previous core.LimitStatus
	limit    core.MonthlyLimit
	total    core.Money
}

// unitOfWork is one store transaction plus the status changes it produced.
type unitOfWork struct {
	svc     *ExpenseService
	q       storage.Querier
	changes []statusChange
}

func (s *ExpenseService) run(ctx context.Context, fn func(uow *unitOfWork) error) error {
	var uow *unitOfWork
	err := s.store.InTx(ctx, func(q storage.Querier) error {
		uow = &unitOfWork{svc: s, q: q}
		return fn(uow)
	})
	if err != nil {
		return err
	}
	s.publishStatusChanges(ctx, uow.changes)
	return nil
}

// reconcile recomputes the status of the limit for p from the month's
// expense total and persists it. A month without a limit is left alone and
// reported as nil.
func (u *unitOfWork) reconcile(ctx context.Context, email string, p core.Period) (*core.MonthlyLimit, error) {
	limit, err := u.q.FindLimit(ctx, email, p)
	if errors.Is(err, core.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reconcile %s: %w", p, err)
	}

	total, err := u.q.SumExpenses(ctx, email, p.FirstDay(), p.LastDay())
	if err != nil {
		return nil, fmt.Errorf("reconcile %s: %w", p, err)
	}

	status := core.DeriveStatus(total, limit.Amount)
	updated, err := u.q.UpdateLimitStatus(ctx, email, limit.ID, status)
	if err != nil {
		return nil, fmt.Errorf("reconcile %s: %w", p, err)
	}
	u.svc.counters.reconciliations.Add(1)

	slog.DebugContext(ctx, "Month reconciled",
		"limit_id", updated.ID,
		"period", p.String(),
		"total_cents", total.Cents,
		"limit_cents", updated.Amount.Cents,
		"status", status)

	if status != limit.Status {
		u.changes = append(u.changes, statusChange{previous: limit.Status, limit: updated, total: total})
	}
	return &updated, nil
}

func (s *ExpenseService) publishStatusChanges(ctx context.Context, changes []statusChange) {
	for _, c := range changes {
		s.counters.statusChanges.Add(1)
		slog.InfoContext(ctx, "Limit status changed",
			"limit_id", c.limit.ID,
			"period", c.limit.Period().String(),
			"from", c.previous,
			"to", c.limit.Status)

		if s.publisher == nil {
			slog.DebugContext(ctx, "AMQP publisher not available, skipping status event")
			continue
		}

		msg := amqp.NewLimitStatusChangedMessage(c.limit, c.previous, c.total)
		if err := s.publisher.PublishLimitStatusChanged(ctx, msg); err != nil {
			s.counters.eventsFailed.Add(1)
			slog.ErrorContext(ctx, "Failed to publish limit status event",
				"limit_id", c.limit.ID, "error", err)
			// Don't fail the request - the change is committed
			continue
		}
		s.counters.eventsPublished.Add(1)
	}
}
