package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"myeconomy/internal/amqp"
	"myeconomy/internal/core"
	"myeconomy/internal/storage"
	"myeconomy/internal/storage/memory"
)

const testEmail = "ana@example.com"

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []*amqp.LimitStatusChangedMessage
	err  error
}

func (p *fakePublisher) PublishLimitStatusChanged(_ context.Context, msg *amqp.LimitStatusChangedMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) transitions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.msgs))
	for _, m := range p.msgs {
		out = append(out, string(m.PreviousStatus)+">"+string(m.Status))
	}
	return out
}

func (p *fakePublisher) periods() []core.Period {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]core.Period, 0, len(p.msgs))
	for _, m := range p.msgs {
		out = append(out, m.Period())
	}
	return out
}

type testEnv struct {
	svc   *ExpenseService
	store storage.Store
	clock *fakeClock
	pub   *fakePublisher
}

var storeFactories = map[string]func(t *testing.T) storage.Store{
	"memory": func(t *testing.T) storage.Store {
		return memory.New()
	},
	"sqlite": func(t *testing.T) storage.Store {
		repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "services.db"))
		if err != nil {
			t.Fatalf("open sqlite: %v", err)
		}
		t.Cleanup(func() { repo.Close() })
		return repo
	},
}

// march15 is "now" for most tests.
var march15 = time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC)

func forEachStore(t *testing.T, fn func(t *testing.T, env *testEnv)) {
	t.Helper()
	for name, newStore := range storeFactories {
		t.Run(name, func(t *testing.T) {
			store := newStore(t)
			_, err := store.CreateUser(context.Background(), core.User{
				Email:        testEmail,
				Name:         "Ana",
				PasswordHash: "hash",
				BirthDate:    core.NewDate(1990, 1, 1),
			})
			if err != nil {
				t.Fatalf("seed user: %v", err)
			}
			clock := &fakeClock{now: march15}
			pub := &fakePublisher{}
			env := &testEnv{
				svc:   NewExpenseService(store, pub, WithClock(clock.Now)),
				store: store,
				clock: clock,
				pub:   pub,
			}
			fn(t, env)
		})
	}
}

func (env *testEnv) addExpense(t *testing.T, cents int64, d core.Date) core.Expense {
	t.Helper()
	e, err := env.svc.AddExpense(context.Background(), testEmail, core.Expense{
		Description: "item",
		Amount:      core.Money{Cents: cents},
		Date:        d,
	})
	if err != nil {
		t.Fatalf("add expense: %v", err)
	}
	return e
}

func (env *testEnv) setLimit(t *testing.T, p core.Period, cents int64) core.MonthlyLimit {
	t.Helper()
	l, _, err := env.svc.SetMonthlyLimit(context.Background(), testEmail, p, core.Money{Cents: cents})
	if err != nil {
		t.Fatalf("set limit: %v", err)
	}
	return l
}

func (env *testEnv) summary(t *testing.T, p core.Period) core.MonthlySummary {
	t.Helper()
	s, err := env.svc.MonthlySummary(context.Background(), testEmail, p)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	return s
}

func expectKind(t *testing.T, err, kind error) {
	t.Helper()
	if !errors.Is(err, kind) {
		t.Fatalf("expected %v, got %v", kind, err)
	}
}

// failingSumStore fails every SumExpenses with err, inside transactions too.
type failingSumStore struct {
	storage.Store
	err error
}

func (s *failingSumStore) SumExpenses(context.Context, string, core.Date, core.Date) (core.Money, error) {
	return core.Money{}, s.err
}

func (s *failingSumStore) InTx(ctx context.Context, fn func(q storage.Querier) error) error {
	return s.Store.InTx(ctx, func(q storage.Querier) error {
		return fn(&failingSumQuerier{Querier: q, err: s.err})
	})
}

type failingSumQuerier struct {
	storage.Querier
	err error
}

func (q *failingSumQuerier) SumExpenses(context.Context, string, core.Date, core.Date) (core.Money, error) {
	return core.Money{}, q.err
}
