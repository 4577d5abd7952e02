package core

// MonthlySummary is the read-only view of one month for one user.
// Limit is zero, LimitID nil and Status no_limit when no limit row exists.
type MonthlySummary struct {
	Month    int         `json:"month"`
	Year     int         `json:"year"`
	Limit    Money       `json:"limit"`
	LimitID  *int64      `json:"limit_id"`
	Total    Money       `json:"total"`
	Status   LimitStatus `json:"status"`
	Expenses []Expense   `json:"expenses"`
}

// NewMonthlySummary builds the summary from the stored limit (nil if none)
// and the month's expenses.
func NewMonthlySummary(p Period, limit *MonthlyLimit, expenses []Expense) MonthlySummary {
	s := MonthlySummary{
		Month:    p.Month,
		Year:     p.Year,
		Status:   StatusNoLimit,
		Expenses: expenses,
	}
	if s.Expenses == nil {
		s.Expenses = []Expense{}
	}
	for _, e := range expenses {
		s.Total = s.Total.Add(e.Amount)
	}
	if limit != nil {
		id := limit.ID
		s.Limit = limit.Amount
		s.LimitID = &id
		s.Status = limit.Status
	}
	return s
}
