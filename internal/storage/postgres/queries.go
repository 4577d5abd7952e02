package postgres

import (
	"context"
	"errors"
	"fmt"

	"myeconomy/internal/core"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Queries struct {
	db   DBTX
	inTx bool
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns queries bound to tx. Lookups made through them lock the rows they read.
func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx, inTx: true}
}

const userColumns = `email, name, password_hash, birth_date, created_at, updated_at`

func (q *Queries) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO users (email, name, password_hash, birth_date)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns,
		u.Email, u.Name, u.PasswordHash, u.BirthDate.Time)
	created, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return core.User{}, core.ErrEmailTaken
		}
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}
	return created, nil
}

func (q *Queries) GetUser(ctx context.Context, email string) (core.User, error) {
	u, err := scanUser(q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.User{}, core.ErrUserNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (q *Queries) UpdateUser(ctx context.Context, u core.User) (core.User, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE users SET name = $1, password_hash = $2, birth_date = $3, updated_at = now()
		WHERE email = $4
		RETURNING `+userColumns,
		u.Name, u.PasswordHash, u.BirthDate.Time, u.Email)
	updated, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.User{}, core.ErrUserNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("update user: %w", err)
	}
	return updated, nil
}

func (q *Queries) DeleteUser(ctx context.Context, email string) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM users WHERE email = $1`, email)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrUserNotFound
	}
	return nil
}

const expenseColumns = `id, email, description, amount_cents, spent_on, category, created_at, updated_at`

func (q *Queries) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO expenses (email, description, amount_cents, spent_on, category)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+expenseColumns,
		e.Email, e.Description, e.Amount.Cents, e.Date.Time, e.Category)
	created, err := scanExpense(row)
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}
	return created, nil
}

func (q *Queries) GetExpense(ctx context.Context, email string, id int64) (core.Expense, error) {
	e, err := scanExpense(q.db.QueryRow(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE email = $1 AND id = $2`, email, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Expense{}, core.ErrExpenseNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

func (q *Queries) UpdateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE expenses
		SET description = $1, amount_cents = $2, spent_on = $3, category = $4, updated_at = now()
		WHERE email = $5 AND id = $6
		RETURNING `+expenseColumns,
		e.Description, e.Amount.Cents, e.Date.Time, e.Category, e.Email, e.ID)
	updated, err := scanExpense(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Expense{}, core.ErrExpenseNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	return updated, nil
}

func (q *Queries) DeleteExpense(ctx context.Context, email string, id int64) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM expenses WHERE email = $1 AND id = $2`, email, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrExpenseNotFound
	}
	return nil
}

func (q *Queries) ListExpenses(ctx context.Context, email string, from, to core.Date) ([]core.Expense, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+expenseColumns+` FROM expenses
		WHERE email = $1 AND spent_on BETWEEN $2 AND $3
		ORDER BY spent_on, id`,
		email, from.Time, to.Time)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.Expense, error) {
		return scanExpense(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan expenses: %w", err)
	}
	return out, nil
}

func (q *Queries) SumExpenses(ctx context.Context, email string, from, to core.Date) (core.Money, error) {
	var total int64
	err := q.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount_cents), 0)::BIGINT FROM expenses
		WHERE email = $1 AND spent_on BETWEEN $2 AND $3`,
		email, from.Time, to.Time).Scan(&total)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum expenses: %w", err)
	}
	return core.Money{Cents: total}, nil
}

const limitColumns = `id, email, month, year, amount_cents, status, created_at, updated_at`

func (q *Queries) CreateLimit(ctx context.Context, l core.MonthlyLimit) (core.MonthlyLimit, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO monthly_limits (email, month, year, amount_cents, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+limitColumns,
		l.Email, l.Month, l.Year, l.Amount.Cents, string(l.Status))
	created, err := scanLimit(row)
	if err != nil {
		if isUniqueViolation(err) {
			return core.MonthlyLimit{}, core.ErrDuplicateLimit
		}
		return core.MonthlyLimit{}, fmt.Errorf("insert limit: %w", err)
	}
	return created, nil
}

func (q *Queries) GetLimit(ctx context.Context, email string, id int64) (core.MonthlyLimit, error) {
	row := q.db.QueryRow(ctx, `SELECT `+limitColumns+` FROM monthly_limits WHERE email = $1 AND id = $2`, email, id)
	return oneLimit(row, "get limit")
}

// FindLimit locks the row inside a transaction so a concurrent reconciliation
// of the same month waits until this one commits.
func (q *Queries) FindLimit(ctx context.Context, email string, p core.Period) (core.MonthlyLimit, error) {
	query := `SELECT ` + limitColumns + ` FROM monthly_limits WHERE email = $1 AND month = $2 AND year = $3`
	if q.inTx {
		query += ` FOR UPDATE`
	}
	row := q.db.QueryRow(ctx, query, email, p.Month, p.Year)
	return oneLimit(row, "find limit")
}

func (q *Queries) UpdateLimitAmount(ctx context.Context, email string, id int64, amount core.Money) (core.MonthlyLimit, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE monthly_limits SET amount_cents = $1, updated_at = now()
		WHERE email = $2 AND id = $3
		RETURNING `+limitColumns,
		amount.Cents, email, id)
	return oneLimit(row, "update limit amount")
}

func (q *Queries) UpdateLimitStatus(ctx context.Context, email string, id int64, status core.LimitStatus) (core.MonthlyLimit, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE monthly_limits SET status = $1, updated_at = now()
		WHERE email = $2 AND id = $3
		RETURNING `+limitColumns,
		string(status), email, id)
	return oneLimit(row, "update limit status")
}

func (q *Queries) DeleteLimit(ctx context.Context, email string, id int64) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM monthly_limits WHERE email = $1 AND id = $2`, email, id)
	if err != nil {
		return fmt.Errorf("delete limit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrLimitNotFound
	}
	return nil
}

func oneLimit(row pgx.Row, op string) (core.MonthlyLimit, error) {
	l, err := scanLimit(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.MonthlyLimit{}, core.ErrLimitNotFound
	}
	if err != nil {
		return core.MonthlyLimit{}, fmt.Errorf("%s: %w", op, err)
	}
	return l, nil
}

func scanUser(row pgx.Row) (core.User, error) {
	var u core.User
	err := row.Scan(&u.Email, &u.Name, &u.PasswordHash, &u.BirthDate.Time, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func scanExpense(row pgx.Row) (core.Expense, error) {
	var e core.Expense
	err := row.Scan(&e.ID, &e.Email, &e.Description, &e.Amount.Cents, &e.Date.Time, &e.Category, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

func scanLimit(row pgx.Row) (core.MonthlyLimit, error) {
	var (
		l      core.MonthlyLimit
		status string
	)
	if err := row.Scan(&l.ID, &l.Email, &l.Month, &l.Year, &l.Amount.Cents, &status, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return core.MonthlyLimit{}, err
	}
	l.Status = core.LimitStatus(status)
	return l, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
