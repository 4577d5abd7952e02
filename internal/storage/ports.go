package storage

import (
	"context"

	"myeconomy/internal/core"
)

// Querier is the data access contract shared by every store and by the
// transaction handle passed to InTx. Missing rows are reported with the
// core not-found errors; unique violations with the core conflict errors.
type Querier interface {
	CreateUser(ctx context.Context, u core.User) (core.User, error)
	GetUser(ctx context.Context, email string) (core.User, error)
	UpdateUser(ctx context.Context, u core.User) (core.User, error)
	DeleteUser(ctx context.Context, email string) error

	CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	GetExpense(ctx context.Context, email string, id int64) (core.Expense, error)
	UpdateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	DeleteExpense(ctx context.Context, email string, id int64) error
	// ListExpenses returns expenses dated within [from, to], ordered by date then id.
	ListExpenses(ctx context.Context, email string, from, to core.Date) ([]core.Expense, error)
	SumExpenses(ctx context.Context, email string, from, to core.Date) (core.Money, error)

	CreateLimit(ctx context.Context, l core.MonthlyLimit) (core.MonthlyLimit, error)
	GetLimit(ctx context.Context, email string, id int64) (core.MonthlyLimit, error)
	// FindLimit looks a limit up by its month. Inside a transaction the row
	// stays locked until commit where the store supports row locks.
	FindLimit(ctx context.Context, email string, p core.Period) (core.MonthlyLimit, error)
	UpdateLimitAmount(ctx context.Context, email string, id int64, amount core.Money) (core.MonthlyLimit, error)
	UpdateLimitStatus(ctx context.Context, email string, id int64, status core.LimitStatus) (core.MonthlyLimit, error)
	DeleteLimit(ctx context.Context, email string, id int64) error
}

// Store is a Querier that can also run a unit of work atomically.
type Store interface {
	Querier
	// InTx runs fn in one transaction. It commits when fn returns nil and
	// rolls back otherwise.
	InTx(ctx context.Context, fn func(q Querier) error) error
	Ping(ctx context.Context) error
	Close() error
}
