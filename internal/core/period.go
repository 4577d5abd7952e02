package core

import (
	"fmt"
	"time"
)

// Period is a calendar month.
type Period struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

// NewPeriod validates month and year and returns the period.
func NewPeriod(month, year int) (Period, error) {
	p := Period{Month: month, Year: year}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}

// PeriodOf returns the month t falls in, read in t's own location.
func PeriodOf(t time.Time) Period {
	return Period{Month: int(t.Month()), Year: t.Year()}
}

func (p Period) Validate() error {
	if p.Month < 1 || p.Month > 12 {
		return ErrInvalidMonth
	}
	if p.Year < 1 || p.Year > 9999 {
		return ErrInvalidYear
	}
	return nil
}

// FirstDay is day 1 of the month.
func (p Period) FirstDay() Date {
	return NewDate(p.Year, p.Month, 1)
}

// LastDay is day 0 of the following month, so leap years come for free.
func (p Period) LastDay() Date {
	return NewDate(p.Year, p.Month+1, 0)
}

func (p Period) Contains(d Date) bool {
	return d.Year() == p.Year && d.Month() == p.Month
}

func (p Period) Before(other Period) bool {
	if p.Year != other.Year {
		return p.Year < other.Year
	}
	return p.Month < other.Month
}

// IsPast reports whether the month ended before the month containing now.
func (p Period) IsPast(now time.Time) bool {
	return p.Before(PeriodOf(now))
}

// IsCurrentOrFuture is the strict complement of IsPast.
func (p Period) IsCurrentOrFuture(now time.Time) bool {
	return !p.IsPast(now)
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}
