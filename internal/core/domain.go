package core

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// DefaultCategory is stored when the client does not send one.
const DefaultCategory = "Geral"

const dateLayout = "2006-01-02"

type (
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	User struct {
		Email        string    `json:"email"`
		Name         string    `json:"name"`
		PasswordHash string    `json:"-"`
		BirthDate    Date      `json:"birth_date"`
		CreatedAt    time.Time `json:"created_at"`
		UpdatedAt    time.Time `json:"updated_at"`
	}

	Expense struct {
		ID          int64     `json:"id"`
		Email       string    `json:"email"`
		Description string    `json:"description"`
		Amount      Money     `json:"amount"`
		Date        Date      `json:"date"`
		Category    string    `json:"category"`
		CreatedAt   time.Time `json:"created_at"`
		UpdatedAt   time.Time `json:"updated_at"`
	}

	// ExpenseUpdate is a partial edit; nil fields keep the stored value.
	ExpenseUpdate struct {
		Description *string
		Amount      *Money
		Date        *Date
		Category    *string
	}

	MonthlyLimit struct {
		ID        int64       `json:"id"`
		Email     string      `json:"email"`
		Month     int         `json:"month"`
		Year      int         `json:"year"`
		Amount    Money       `json:"amount"`
		Status    LimitStatus `json:"status"`
		CreatedAt time.Time   `json:"created_at"`
		UpdatedAt time.Time   `json:"updated_at"`
	}
)

var (
	ErrInvalidDay       = fmt.Errorf("%w: invalid day", ErrValidation)
	ErrInvalidMonth     = fmt.Errorf("%w: invalid month", ErrValidation)
	ErrInvalidYear      = fmt.Errorf("%w: invalid year", ErrValidation)
	ErrInvalidDate      = fmt.Errorf("%w: invalid date, expected YYYY-MM-DD", ErrValidation)
	ErrInvalidAmount    = fmt.Errorf("%w: invalid amount", ErrValidation)
	ErrEmptyDescription = fmt.Errorf("%w: empty description", ErrValidation)
	ErrLongDescription  = fmt.Errorf("%w: description too long (max 200 characters)", ErrValidation)
	ErrEmptyCategory    = fmt.Errorf("%w: empty category", ErrValidation)
	ErrEmptyName        = fmt.Errorf("%w: empty name", ErrValidation)
	ErrInvalidEmail     = fmt.Errorf("%w: invalid email", ErrValidation)
	ErrEmptyUpdate      = fmt.Errorf("%w: no fields to update", ErrValidation)
)

var validate = validator.New()

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: date cannot be zero", ErrValidation)
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// Period returns the calendar month the date falls in.
func (d Date) Period() Period {
	return Period{Month: d.Month(), Year: d.Year()}
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	parsed, err := ParseDate(strings.Trim(string(b), `"`))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Validate reports whether the amount can be stored. Zero is allowed.
func (m Money) Validate() error {
	if m.Cents < 0 || m.Cents > MaxCents {
		return ErrInvalidAmount
	}
	return nil
}

func (u User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return ErrEmptyName
	}
	if err := validate.Var(u.Email, "required,email"); err != nil {
		return ErrInvalidEmail
	}
	if err := u.BirthDate.Validate(); err != nil {
		return err
	}
	return nil
}

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > 200 {
		return ErrLongDescription
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

// Period returns the calendar month the expense is booked in.
func (e Expense) Period() Period {
	return e.Date.Period()
}

// IsEmpty reports whether the update carries no field at all.
func (u ExpenseUpdate) IsEmpty() bool {
	return u.Description == nil && u.Amount == nil && u.Date == nil && u.Category == nil
}

// Apply returns e with the non-nil fields of u written over it.
func (u ExpenseUpdate) Apply(e Expense) Expense {
	if u.Description != nil {
		e.Description = strings.TrimSpace(*u.Description)
	}
	if u.Amount != nil {
		e.Amount = *u.Amount
	}
	if u.Date != nil {
		e.Date = *u.Date
	}
	if u.Category != nil {
		e.Category = strings.TrimSpace(*u.Category)
	}
	return e
}

func (l MonthlyLimit) Period() Period {
	return Period{Month: l.Month, Year: l.Year}
}

func (l MonthlyLimit) Validate() error {
	if err := l.Period().Validate(); err != nil {
		return err
	}
	if err := l.Amount.Validate(); err != nil {
		return err
	}
	if !l.Status.IsValid() {
		return fmt.Errorf("%w: invalid limit status %q", ErrValidation, l.Status)
	}
	return nil
}
