package http

import (
	"net/http"

	"myeconomy/internal/core"
)

type expenseRequest struct {
	Description string      `json:"description" validate:"required,max=200"`
	Amount      *core.Money `json:"amount" validate:"required"`
	Date        *core.Date  `json:"date" validate:"required"`
	Category    string      `json:"category" validate:"max=100"`
}

// expenseUpdateRequest carries only the fields the client sent.
type expenseUpdateRequest struct {
	Description *string     `json:"description" validate:"omitempty,max=200"`
	Amount      *core.Money `json:"amount"`
	Date        *core.Date  `json:"date"`
	Category    *string     `json:"category" validate:"omitempty,max=100"`
}

type limitRequest struct {
	Month  int         `json:"month"`
	Year   int         `json:"year"`
	Amount *core.Money `json:"amount" validate:"required"`
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		ErrorFor(r, err).Write(w)
		return
	}

	created, err := s.expenses.AddExpense(r.Context(), currentEmail(r), core.Expense{
		Description: sanitizeInput(req.Description),
		Amount:      *req.Amount,
		Date:        *req.Date,
		Category:    sanitizeInput(req.Category),
	})
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(created).Write(w)
}

func (s *Server) handleEditExpense(w http.ResponseWriter, r *http.Request) {
	id, err := IDParam(r, "id")
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	var req expenseUpdateRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		ErrorFor(r, err).Write(w)
		return
	}

	upd := core.ExpenseUpdate{
		Description: sanitized(req.Description),
		Amount:      req.Amount,
		Date:        req.Date,
		Category:    sanitized(req.Category),
	}
	updated, err := s.expenses.EditExpense(r.Context(), currentEmail(r), id, upd)
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewJSONResponse().Body(updated).Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := IDParam(r, "id")
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	if err := s.expenses.DeleteExpense(r.Context(), currentEmail(r), id); err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

// handleSetLimit answers 201 when the month had no limit yet and 200 when an
// existing one was overwritten.
func (s *Server) handleSetLimit(w http.ResponseWriter, r *http.Request) {
	var req limitRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	p, err := core.NewPeriod(req.Month, req.Year)
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}

	limit, created, err := s.expenses.SetMonthlyLimit(r.Context(), currentEmail(r), p, *req.Amount)
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	NewJSONResponse().Status(status).Body(limit).Write(w)
}

func (s *Server) handleDeleteLimit(w http.ResponseWriter, r *http.Request) {
	id, err := IDParam(r, "id")
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	if err := s.expenses.DeleteMonthlyLimit(r.Context(), currentEmail(r), id); err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	p, err := PeriodParams(r)
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	summary, err := s.expenses.MonthlySummary(r.Context(), currentEmail(r), p)
	if err != nil {
		ErrorFor(r, err).Write(w)
		return
	}
	NewJSONResponse().Body(summary).Write(w)
}

func sanitized(s *string) *string {
	if s == nil {
		return nil
	}
	v := sanitizeInput(*s)
	return &v
}
