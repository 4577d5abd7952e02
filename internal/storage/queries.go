package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"myeconomy/internal/core"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const timestampLayout = time.RFC3339Nano

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries implements Querier on top of a SQLite connection or transaction.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type scanner interface {
	Scan(dest ...any) error
}

const userColumns = `email, name, password_hash, birth_date, created_at, updated_at`

func (q *Queries) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	now := timestamp()
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO users (email, name, password_hash, birth_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING `+userColumns,
		u.Email, u.Name, u.PasswordHash, u.BirthDate.String(), now, now)
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
	row := q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrUserNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (q *Queries) UpdateUser(ctx context.Context, u core.User) (core.User, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE users SET name = ?, password_hash = ?, birth_date = ?, updated_at = ?
		WHERE email = ?
		RETURNING `+userColumns,
		u.Name, u.PasswordHash, u.BirthDate.String(), timestamp(), u.Email)
	updated, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrUserNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("update user: %w", err)
	}
	return updated, nil
}

func (q *Queries) DeleteUser(ctx context.Context, email string) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM users WHERE email = ?`, email)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return expectAffected(res, core.ErrUserNotFound)
}

const expenseColumns = `id, email, description, amount_cents, spent_on, category, created_at, updated_at`

func (q *Queries) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	now := timestamp()
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO expenses (email, description, amount_cents, spent_on, category, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING `+expenseColumns,
		e.Email, e.Description, e.Amount.Cents, e.Date.String(), e.Category, now, now)
	created, err := scanExpense(row)
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}

	slog.DebugContext(ctx, "Expense saved to SQLite",
		"id", created.ID,
		"amount_cents", created.Amount.Cents,
		"date", created.Date.String())

	return created, nil
}

func (q *Queries) GetExpense(ctx context.Context, email string, id int64) (core.Expense, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE email = ? AND id = ?`, email, id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, core.ErrExpenseNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

func (q *Queries) UpdateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE expenses
		SET description = ?, amount_cents = ?, spent_on = ?, category = ?, updated_at = ?
		WHERE email = ? AND id = ?
		RETURNING `+expenseColumns,
		e.Description, e.Amount.Cents, e.Date.String(), e.Category, timestamp(), e.Email, e.ID)
	updated, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, core.ErrExpenseNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	return updated, nil
}

func (q *Queries) DeleteExpense(ctx context.Context, email string, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM expenses WHERE email = ? AND id = ?`, email, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return expectAffected(res, core.ErrExpenseNotFound)
}

func (q *Queries) ListExpenses(ctx context.Context, email string, from, to core.Date) ([]core.Expense, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+expenseColumns+` FROM expenses
		WHERE email = ? AND spent_on BETWEEN ? AND ?
		ORDER BY spent_on, id`,
		email, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}

func (q *Queries) SumExpenses(ctx context.Context, email string, from, to core.Date) (core.Money, error) {
	var total int64
	err := q.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount_cents), 0) FROM expenses
		WHERE email = ? AND spent_on BETWEEN ? AND ?`,
		email, from.String(), to.String()).Scan(&total)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum expenses: %w", err)
	}
	return core.Money{Cents: total}, nil
}

const limitColumns = `id, email, month, year, amount_cents, status, created_at, updated_at`

func (q *Queries) CreateLimit(ctx context.Context, l core.MonthlyLimit) (core.MonthlyLimit, error) {
	now := timestamp()
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO monthly_limits (email, month, year, amount_cents, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING `+limitColumns,
		l.Email, l.Month, l.Year, l.Amount.Cents, string(l.Status), now, now)
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
	row := q.db.QueryRowContext(ctx, `SELECT `+limitColumns+` FROM monthly_limits WHERE email = ? AND id = ?`, email, id)
	return oneLimit(row, "get limit")
}

// FindLimit needs no explicit lock: transactions start with BEGIN IMMEDIATE,
// so a writer already holds the database write lock.
func (q *Queries) FindLimit(ctx context.Context, email string, p core.Period) (core.MonthlyLimit, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+limitColumns+` FROM monthly_limits
		WHERE email = ? AND month = ? AND year = ?`,
		email, p.Month, p.Year)
	return oneLimit(row, "find limit")
}

func (q *Queries) UpdateLimitAmount(ctx context.Context, email string, id int64, amount core.Money) (core.MonthlyLimit, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE monthly_limits SET amount_cents = ?, updated_at = ?
		WHERE email = ? AND id = ?
		RETURNING `+limitColumns,
		amount.Cents, timestamp(), email, id)
	return oneLimit(row, "update limit amount")
}

func (q *Queries) UpdateLimitStatus(ctx context.Context, email string, id int64, status core.LimitStatus) (core.MonthlyLimit, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE monthly_limits SET status = ?, updated_at = ?
		WHERE email = ? AND id = ?
		RETURNING `+limitColumns,
		string(status), timestamp(), email, id)
	return oneLimit(row, "update limit status")
}

func (q *Queries) DeleteLimit(ctx context.Context, email string, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM monthly_limits WHERE email = ? AND id = ?`, email, id)
	if err != nil {
		return fmt.Errorf("delete limit: %w", err)
	}
	return expectAffected(res, core.ErrLimitNotFound)
}

func oneLimit(row scanner, op string) (core.MonthlyLimit, error) {
	l, err := scanLimit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.MonthlyLimit{}, core.ErrLimitNotFound
	}
	if err != nil {
		return core.MonthlyLimit{}, fmt.Errorf("%s: %w", op, err)
	}
	return l, nil
}

func scanUser(row scanner) (core.User, error) {
	var (
		u                               core.User
		birthDate, createdAt, updatedAt string
	)
	if err := row.Scan(&u.Email, &u.Name, &u.PasswordHash, &birthDate, &createdAt, &updatedAt); err != nil {
		return core.User{}, err
	}
	var err error
	if u.BirthDate, err = core.ParseDate(birthDate); err != nil {
		return core.User{}, fmt.Errorf("parse birth_date %q: %w", birthDate, err)
	}
	if u.CreatedAt, u.UpdatedAt, err = parseTimestamps(createdAt, updatedAt); err != nil {
		return core.User{}, err
	}
	return u, nil
}

func scanExpense(row scanner) (core.Expense, error) {
	var (
		e                             core.Expense
		spentOn, createdAt, updatedAt string
	)
	if err := row.Scan(&e.ID, &e.Email, &e.Description, &e.Amount.Cents, &spentOn, &e.Category, &createdAt, &updatedAt); err != nil {
		return core.Expense{}, err
	}
	var err error
	if e.Date, err = core.ParseDate(spentOn); err != nil {
		return core.Expense{}, fmt.Errorf("parse spent_on %q: %w", spentOn, err)
	}
	if e.CreatedAt, e.UpdatedAt, err = parseTimestamps(createdAt, updatedAt); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

func scanLimit(row scanner) (core.MonthlyLimit, error) {
	var (
		l                    core.MonthlyLimit
		status               string
		createdAt, updatedAt string
	)
	if err := row.Scan(&l.ID, &l.Email, &l.Month, &l.Year, &l.Amount.Cents, &status, &createdAt, &updatedAt); err != nil {
		return core.MonthlyLimit{}, err
	}
	l.Status = core.LimitStatus(status)
	var err error
	if l.CreatedAt, l.UpdatedAt, err = parseTimestamps(createdAt, updatedAt); err != nil {
		return core.MonthlyLimit{}, err
	}
	return l, nil
}

func timestamp() string {
	return time.Now().UTC().Format(timestampLayout)
}

func parseTimestamps(createdAt, updatedAt string) (time.Time, time.Time, error) {
	c, err := time.Parse(timestampLayout, createdAt)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	u, err := time.Parse(timestampLayout, updatedAt)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse updated_at %q: %w", updatedAt, err)
	}
	return c, u, nil
}

func expectAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(se.Error(), "UNIQUE")
}
