package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"myeconomy/internal/amqp"
	"myeconomy/internal/core"
	"myeconomy/internal/storage"
)

// StatusPublisher delivers limit status transitions to the event bus.
type StatusPublisher interface {
	PublishLimitStatusChanged(ctx context.Context, msg *amqp.LimitStatusChangedMessage) error
	Close() error
}

// ExpenseService owns expenses and monthly limits. Every mutation runs its
// temporal check, the write and the reconciliation of each touched month in
// a single store transaction; status events go out after the commit.
type ExpenseService struct {
	store     storage.Store
	publisher StatusPublisher
	now       func() time.Time
	loc       *time.Location
	counters  counters
}

type Option func(*ExpenseService)

// WithClock sets the source of "now" for the temporal checks.
func WithClock(now func() time.Time) Option {
	return func(s *ExpenseService) { s.now = now }
}

// WithLocation sets the zone in which "now" is turned into a calendar month.
func WithLocation(loc *time.Location) Option {
	return func(s *ExpenseService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// NewExpenseService builds the service. publisher may be nil, in which case
// status changes are only logged.
func NewExpenseService(store storage.Store, publisher StatusPublisher, opts ...Option) *ExpenseService {
	s := &ExpenseService{
		store:     store,
		publisher: publisher,
		now:       time.Now,
		loc:       time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ExpenseService) clock() time.Time {
	return s.now().In(s.loc)
}

// AddExpense stores a new expense and reconciles its month.
func (s *ExpenseService) AddExpense(ctx context.Context, email string, e core.Expense) (core.Expense, error) {
	e.Email = email
	e.Description = strings.TrimSpace(e.Description)
	e.Category = strings.TrimSpace(e.Category)
	if e.Category == "" {
		e.Category = core.DefaultCategory
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	var created core.Expense
	err := s.run(ctx, func(uow *unitOfWork) error {
		var err error
		created, err = uow.q.CreateExpense(ctx, e)
		if err != nil {
			return fmt.Errorf("save expense: %w", err)
		}
		_, err = uow.reconcile(ctx, email, created.Period())
		return err
	})
	if err != nil {
		return core.Expense{}, err
	}

	s.counters.expensesCreated.Add(1)
	slog.InfoContext(ctx, "Expense created",
		"id", created.ID,
		"amount_cents", created.Amount.Cents,
		"date", created.Date.String())

	return created, nil
}

// EditExpense applies a partial update. The stored date decides whether the
// expense may still be changed; when the month changes both months are reconciled.
func (s *ExpenseService) EditExpense(ctx context.Context, email string, id int64, upd core.ExpenseUpdate) (core.Expense, error) {
	if upd.IsEmpty() {
		return core.Expense{}, core.ErrEmptyUpdate
	}

	var updated core.Expense
	err := s.run(ctx, func(uow *unitOfWork) error {
		current, err := uow.q.GetExpense(ctx, email, id)
		if err != nil {
			return err
		}
		if current.Period().IsPast(s.clock()) {
			return core.ErrPastExpenseUpdate
		}

		next := upd.Apply(current)
		if err := next.Validate(); err != nil {
			return err
		}
		if updated, err = uow.q.UpdateExpense(ctx, next); err != nil {
			return fmt.Errorf("update expense: %w", err)
		}

		if _, err := uow.reconcile(ctx, email, current.Period()); err != nil {
			return err
		}
		if updated.Period() != current.Period() {
			if _, err := uow.reconcile(ctx, email, updated.Period()); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return core.Expense{}, err
	}

	s.counters.expensesUpdated.Add(1)
	slog.InfoContext(ctx, "Expense updated", "id", updated.ID, "date", updated.Date.String())
	return updated, nil
}

// DeleteExpense removes an expense that is not from a past month and
// reconciles that month.
func (s *ExpenseService) DeleteExpense(ctx context.Context, email string, id int64) error {
	err := s.run(ctx, func(uow *unitOfWork) error {
		current, err := uow.q.GetExpense(ctx, email, id)
		if err != nil {
			return err
		}
		if current.Period().IsPast(s.clock()) {
			return core.ErrPastExpenseDelete
		}
		if err := uow.q.DeleteExpense(ctx, email, id); err != nil {
			return err
		}
		_, err = uow.reconcile(ctx, email, current.Period())
		return err
	})
	if err != nil {
		return err
	}

	s.counters.expensesDeleted.Add(1)
	slog.InfoContext(ctx, "Expense deleted", "id", id)
	return nil
}

// SetMonthlyLimit creates the limit for p (current or future months only) or
// overwrites the amount of an existing one (not for past months), then
// reconciles p. created reports whether a new row was inserted.
func (s *ExpenseService) SetMonthlyLimit(ctx context.Context, email string, p core.Period, amount core.Money) (limit core.MonthlyLimit, created bool, err error) {
	if err := p.Validate(); err != nil {
		return core.MonthlyLimit{}, false, err
	}
	if err := amount.Validate(); err != nil {
		return core.MonthlyLimit{}, false, err
	}

	err = s.run(ctx, func(uow *unitOfWork) error {
		existing, err := uow.q.FindLimit(ctx, email, p)
		switch {
		case errors.Is(err, core.ErrNotFound):
			if !p.IsCurrentOrFuture(s.clock()) {
				return core.ErrLimitNotCurrentOrFuture
			}
			_, err = uow.q.CreateLimit(ctx, core.MonthlyLimit{
				Email:  email,
				Month:  p.Month,
				Year:   p.Year,
				Amount: amount,
				Status: core.StatusNoLimit,
			})
			if err != nil {
				return err
			}
			created = true
		case err != nil:
			return fmt.Errorf("find limit: %w", err)
		default:
			if p.IsPast(s.clock()) {
				return core.ErrPastLimitUpdate
			}
			if _, err := uow.q.UpdateLimitAmount(ctx, email, existing.ID, amount); err != nil {
				return err
			}
		}

		reconciled, err := uow.reconcile(ctx, email, p)
		if err != nil {
			return err
		}
		limit = *reconciled
		return nil
	})
	if err != nil {
		return core.MonthlyLimit{}, false, err
	}

	s.counters.limitsSet.Add(1)
	slog.InfoContext(ctx, "Monthly limit set",
		"id", limit.ID,
		"period", p.String(),
		"amount_cents", limit.Amount.Cents,
		"status", limit.Status,
		"created", created)

	return limit, created, nil
}

// DeleteMonthlyLimit removes a limit that is not from a past month. Nothing
// is reconciled afterwards.
func (s *ExpenseService) DeleteMonthlyLimit(ctx context.Context, email string, id int64) error {
	err := s.store.InTx(ctx, func(q storage.Querier) error {
		l, err := q.GetLimit(ctx, email, id)
		if err != nil {
			return err
		}
		if l.Period().IsPast(s.clock()) {
			return core.ErrPastLimitDelete
		}
		return q.DeleteLimit(ctx, email, id)
	})
	if err != nil {
		return err
	}

	s.counters.limitsDeleted.Add(1)
	slog.InfoContext(ctx, "Monthly limit deleted", "id", id)
	return nil
}

// MonthlySummary is read-only and allowed for any month.
func (s *ExpenseService) MonthlySummary(ctx context.Context, email string, p core.Period) (core.MonthlySummary, error) {
	if err := p.Validate(); err != nil {
		return core.MonthlySummary{}, err
	}

	var limit *core.MonthlyLimit
	l, err := s.store.FindLimit(ctx, email, p)
	switch {
	case errors.Is(err, core.ErrNotFound):
	case err != nil:
		return core.MonthlySummary{}, fmt.Errorf("find limit: %w", err)
	default:
		limit = &l
	}

	expenses, err := s.store.ListExpenses(ctx, email, p.FirstDay(), p.LastDay())
	if err != nil {
		return core.MonthlySummary{}, fmt.Errorf("list expenses: %w", err)
	}

	return core.NewMonthlySummary(p, limit, expenses), nil
}

// ReconcileMonth recomputes the status of the limit for p in its own
// transaction. It returns nil when the month has no limit.
func (s *ExpenseService) ReconcileMonth(ctx context.Context, email string, p core.Period) (*core.MonthlyLimit, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	var limit *core.MonthlyLimit
	err := s.run(ctx, func(uow *unitOfWork) error {
		var err error
		limit, err = uow.reconcile(ctx, email, p)
		return err
	})
	return limit, err
}

// Close closes both storage and AMQP connections
func (s *ExpenseService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close expense service: %w", errors.Join(errs...))
	}

	return nil
}
