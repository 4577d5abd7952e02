package memory

import (
	"context"
	"maps"
	"slices"
	"strings"
	"time"

	"myeconomy/internal/core"
)

// state holds the tables. It is not safe for concurrent use; Store guards it.
type state struct {
	users         map[string]core.User
	expenses      map[int64]core.Expense
	limits        map[int64]core.MonthlyLimit
	nextExpenseID int64
	nextLimitID   int64
}

func newState() *state {
	return &state{
		users:    map[string]core.User{},
		expenses: map[int64]core.Expense{},
		limits:   map[int64]core.MonthlyLimit{},
	}
}

func (s *state) clone() *state {
	return &state{
		users:         maps.Clone(s.users),
		expenses:      maps.Clone(s.expenses),
		limits:        maps.Clone(s.limits),
		nextExpenseID: s.nextExpenseID,
		nextLimitID:   s.nextLimitID,
	}
}

func key(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *state) CreateUser(_ context.Context, u core.User) (core.User, error) {
	if _, ok := s.users[key(u.Email)]; ok {
		return core.User{}, core.ErrEmailTaken
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	s.users[key(u.Email)] = u
	return u, nil
}

func (s *state) GetUser(_ context.Context, email string) (core.User, error) {
	u, ok := s.users[key(email)]
	if !ok {
		return core.User{}, core.ErrUserNotFound
	}
	return u, nil
}

func (s *state) UpdateUser(_ context.Context, u core.User) (core.User, error) {
	cur, ok := s.users[key(u.Email)]
	if !ok {
		return core.User{}, core.ErrUserNotFound
	}
	cur.Name = u.Name
	cur.PasswordHash = u.PasswordHash
	cur.BirthDate = u.BirthDate
	cur.UpdatedAt = time.Now().UTC()
	s.users[key(u.Email)] = cur
	return cur, nil
}

func (s *state) DeleteUser(_ context.Context, email string) error {
	k := key(email)
	if _, ok := s.users[k]; !ok {
		return core.ErrUserNotFound
	}
	delete(s.users, k)
	maps.DeleteFunc(s.expenses, func(_ int64, e core.Expense) bool { return key(e.Email) == k })
	maps.DeleteFunc(s.limits, func(_ int64, l core.MonthlyLimit) bool { return key(l.Email) == k })
	return nil
}

func (s *state) CreateExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	s.nextExpenseID++
	now := time.Now().UTC()
	e.ID = s.nextExpenseID
	e.CreatedAt, e.UpdatedAt = now, now
	s.expenses[e.ID] = e
	return e, nil
}

func (s *state) GetExpense(_ context.Context, email string, id int64) (core.Expense, error) {
	e, ok := s.expenses[id]
	if !ok || key(e.Email) != key(email) {
		return core.Expense{}, core.ErrExpenseNotFound
	}
	return e, nil
}

func (s *state) UpdateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	cur, err := s.GetExpense(ctx, e.Email, e.ID)
	if err != nil {
		return core.Expense{}, err
	}
	cur.Description = e.Description
	cur.Amount = e.Amount
	cur.Date = e.Date
	cur.Category = e.Category
	cur.UpdatedAt = time.Now().UTC()
	s.expenses[cur.ID] = cur
	return cur, nil
}

func (s *state) DeleteExpense(ctx context.Context, email string, id int64) error {
	if _, err := s.GetExpense(ctx, email, id); err != nil {
		return err
	}
	delete(s.expenses, id)
	return nil
}

func (s *state) ListExpenses(_ context.Context, email string, from, to core.Date) ([]core.Expense, error) {
	var out []core.Expense
	for _, e := range s.expenses {
		if key(e.Email) != key(email) || e.Date.Before(from.Time) || e.Date.After(to.Time) {
			continue
		}
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b core.Expense) int {
		if c := a.Date.Compare(b.Date.Time); c != 0 {
			return c
		}
		return int(a.ID - b.ID)
	})
	return out, nil
}

func (s *state) SumExpenses(ctx context.Context, email string, from, to core.Date) (core.Money, error) {
	list, err := s.ListExpenses(ctx, email, from, to)
	if err != nil {
		return core.Money{}, err
	}
	var total core.Money
	for _, e := range list {
		total = total.Add(e.Amount)
	}
	return total, nil
}

func (s *state) CreateLimit(ctx context.Context, l core.MonthlyLimit) (core.MonthlyLimit, error) {
	if _, err := s.FindLimit(ctx, l.Email, l.Period()); err == nil {
		return core.MonthlyLimit{}, core.ErrDuplicateLimit
	}
	s.nextLimitID++
	now := time.Now().UTC()
	l.ID = s.nextLimitID
	l.CreatedAt, l.UpdatedAt = now, now
	s.limits[l.ID] = l
	return l, nil
}

func (s *state) GetLimit(_ context.Context, email string, id int64) (core.MonthlyLimit, error) {
	l, ok := s.limits[id]
	if !ok || key(l.Email) != key(email) {
		return core.MonthlyLimit{}, core.ErrLimitNotFound
	}
	return l, nil
}

func (s *state) FindLimit(_ context.Context, email string, p core.Period) (core.MonthlyLimit, error) {
	for _, l := range s.limits {
		if key(l.Email) == key(email) && l.Period() == p {
			return l, nil
		}
	}
	return core.MonthlyLimit{}, core.ErrLimitNotFound
}

func (s *state) UpdateLimitAmount(ctx context.Context, email string, id int64, amount core.Money) (core.MonthlyLimit, error) {
	l, err := s.GetLimit(ctx, email, id)
	if err != nil {
		return core.MonthlyLimit{}, err
	}
	l.Amount = amount
	l.UpdatedAt = time.Now().UTC()
	s.limits[id] = l
	return l, nil
}

func (s *state) UpdateLimitStatus(ctx context.Context, email string, id int64, status core.LimitStatus) (core.MonthlyLimit, error) {
	l, err := s.GetLimit(ctx, email, id)
	if err != nil {
		return core.MonthlyLimit{}, err
	}
	l.Status = status
	l.UpdatedAt = time.Now().UTC()
	s.limits[id] = l
	return l, nil
}

func (s *state) DeleteLimit(ctx context.Context, email string, id int64) error {
	if _, err := s.GetLimit(ctx, email, id); err != nil {
		return err
	}
	delete(s.limits, id)
	return nil
}
