// Package memory is an in-process Store used by tests and by DATA_BACKEND=memory.
package memory

import (
	"context"
	"sync"

	"myeconomy/internal/core"
	"myeconomy/internal/storage"
)

// Store guards a state with one mutex. InTx holds the mutex for the whole
// unit of work and works on a copy, so a failed fn leaves nothing behind.
type Store struct {
	mu sync.Mutex
	st *state
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{st: newState()}
}

func (s *Store) InTx(ctx context.Context, fn func(q storage.Querier) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.st.clone()
	if err := fn(work); err != nil {
		return err
	}
	s.st = work
	return nil
}

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

func (s *Store) Close() error { return nil }

func (s *Store) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.CreateUser(ctx, u)
}

func (s *Store) GetUser(ctx context.Context, email string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.GetUser(ctx, email)
}

func (s *Store) UpdateUser(ctx context.Context, u core.User) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.UpdateUser(ctx, u)
}

func (s *Store) DeleteUser(ctx context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.DeleteUser(ctx, email)
}

func (s *Store) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.CreateExpense(ctx, e)
}

func (s *Store) GetExpense(ctx context.Context, email string, id int64) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.GetExpense(ctx, email, id)
}

func (s *Store) UpdateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.UpdateExpense(ctx, e)
}

func (s *Store) DeleteExpense(ctx context.Context, email string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.DeleteExpense(ctx, email, id)
}

func (s *Store) ListExpenses(ctx context.Context, email string, from, to core.Date) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.ListExpenses(ctx, email, from, to)
}

func (s *Store) SumExpenses(ctx context.Context, email string, from, to core.Date) (core.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.SumExpenses(ctx, email, from, to)
}

func (s *Store) CreateLimit(ctx context.Context, l core.MonthlyLimit) (core.MonthlyLimit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.CreateLimit(ctx, l)
}

func (s *Store) GetLimit(ctx context.Context, email string, id int64) (core.MonthlyLimit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.GetLimit(ctx, email, id)
}

func (s *Store) FindLimit(ctx context.Context, email string, p core.Period) (core.MonthlyLimit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.FindLimit(ctx, email, p)
}

func (s *Store) UpdateLimitAmount(ctx context.Context, email string, id int64, amount core.Money) (core.MonthlyLimit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.UpdateLimitAmount(ctx, email, id, amount)
}

func (s *Store) UpdateLimitStatus(ctx context.Context, email string, id int64, status core.LimitStatus) (core.MonthlyLimit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.UpdateLimitStatus(ctx, email, id, status)
}

func (s *Store) DeleteLimit(ctx context.Context, email string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.DeleteLimit(ctx, email, id)
}
