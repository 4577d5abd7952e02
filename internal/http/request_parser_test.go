package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"myeconomy/internal/core"

	"github.com/go-chi/chi/v5"
)

func withURLParams(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"valid", `{"description":"Lunch","amount":"12.50","date":"2025-03-10"}`, ""},
		{"numeric amount", `{"description":"Lunch","amount":12.5,"date":"2025-03-10"}`, ""},
		{"empty body", ``, "request body is empty"},
		{"malformed", `{"description":`, "malformed JSON"},
		{"trailing object", `{"description":"a","amount":1,"date":"2025-03-10"}{"x":1}`, "single JSON object"},
		{"missing amount", `{"description":"Lunch","date":"2025-03-10"}`, "amount is required"},
		{"missing description", `{"amount":1,"date":"2025-03-10"}`, "description is required"},
		{"negative amount", `{"description":"Lunch","amount":"-1","date":"2025-03-10"}`, "invalid amount"},
		{"bad date", `{"description":"Lunch","amount":1,"date":"10/03/2025"}`, "invalid date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/api/expenses", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			var req expenseRequest
			err := DecodeJSON(w, r, &req)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if req.Amount == nil || req.Amount.Cents != 1250 {
					t.Errorf("amount = %+v", req.Amount)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !errors.Is(err, core.ErrValidation) {
				t.Errorf("error %v is not a validation error", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestDecodeJSON_TooLarge(t *testing.T) {
	body := `{"description":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	r := httptest.NewRequest(http.MethodPost, "/api/expenses", strings.NewReader(body))
	w := httptest.NewRecorder()
	var req expenseRequest
	err := DecodeJSON(w, r, &req)
	if err == nil || !strings.Contains(err.Error(), "too large") {
		t.Fatalf("err = %v, want body too large", err)
	}
}

func TestIDParam(t *testing.T) {
	tests := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{"42", 42, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		r := withURLParams(httptest.NewRequest(http.MethodDelete, "/", nil), "id", tt.raw)
		got, err := IDParam(r, "id")
		if (err != nil) != tt.wantErr {
			t.Errorf("IDParam(%q) err = %v, wantErr %v", tt.raw, err, tt.wantErr)
			continue
		}
		if err != nil && !errors.Is(err, core.ErrValidation) {
			t.Errorf("IDParam(%q) err = %v, want validation error", tt.raw, err)
		}
		if got != tt.want {
			t.Errorf("IDParam(%q) = %d, want %d", tt.raw, got, tt.want)
		}
	}
}

func TestPeriodParams(t *testing.T) {
	tests := []struct {
		month, year string
		want        core.Period
		wantErr     error
	}{
		{"3", "2025", core.Period{Month: 3, Year: 2025}, nil},
		{"12", "1999", core.Period{Month: 12, Year: 1999}, nil},
		{"13", "2025", core.Period{}, core.ErrInvalidMonth},
		{"0", "2025", core.Period{}, core.ErrInvalidMonth},
		{"x", "2025", core.Period{}, core.ErrInvalidMonth},
		{"3", "abcd", core.Period{}, core.ErrInvalidYear},
	}
	for _, tt := range tests {
		r := withURLParams(httptest.NewRequest(http.MethodGet, "/", nil), "month", tt.month, "year", tt.year)
		got, err := PeriodParams(r)
		if tt.wantErr != nil {
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("PeriodParams(%s/%s) err = %v, want %v", tt.month, tt.year, err, tt.wantErr)
			}
			continue
		}
		if err != nil {
			t.Errorf("PeriodParams(%s/%s) unexpected error: %v", tt.month, tt.year, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PeriodParams(%s/%s) = %v, want %v", tt.month, tt.year, got, tt.want)
		}
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  Lunch  ", "Lunch"},
		{"Lu\x00nch", "Lunch"},
		{"line\nbreak", "line\nbreak"},
		{"\x07bell", "bell"},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.in); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
