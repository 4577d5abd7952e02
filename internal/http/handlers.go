package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).String(),
	}).Write(w)
}

// handleReady checks that the store answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	code := http.StatusOK
	checks := map[string]string{"store": "ok"}
	if s.store == nil {
		checks["store"] = "failed: not configured"
		status, code = "not_ready", http.StatusServiceUnavailable
	} else if err := s.store.Ping(ctx); err != nil {
		slog.WarnContext(ctx, "Readiness check failed", "error", err)
		checks["store"] = "failed: " + err.Error()
		status, code = "not_ready", http.StatusServiceUnavailable
	}

	NewJSONResponse().Status(code).Body(map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	securityMetrics := s.securityDetector.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	traceMetrics := s.traceMiddleware.GetMetrics()
	stats := s.expenses.Stats()

	w.WriteHeader(http.StatusOK)

	counter := func(name, help string, v int64) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s counter\n", name)
		fmt.Fprintf(w, "%s %d\n\n", name, v)
	}

	counter("http_requests_total", "Total number of HTTP requests", traceMetrics.TotalRequests)
	counter("http_client_errors_total", "Responses with a 4xx status", traceMetrics.ClientErrors)
	counter("http_server_errors_total", "Responses with a 5xx status", traceMetrics.ServerErrors)

	fmt.Fprintf(w, "# HELP http_response_time_avg_us Average response time in microseconds\n")
	fmt.Fprintf(w, "# TYPE http_response_time_avg_us gauge\n")
	fmt.Fprintf(w, "http_response_time_avg_us %d\n\n", traceMetrics.AverageResponseTime)

	fmt.Fprintf(w, "# HELP expense_operations_total Expense mutations by operation\n")
	fmt.Fprintf(w, "# TYPE expense_operations_total counter\n")
	fmt.Fprintf(w, "expense_operations_total{op=\"create\"} %d\n", stats.ExpensesCreated)
	fmt.Fprintf(w, "expense_operations_total{op=\"update\"} %d\n", stats.ExpensesUpdated)
	fmt.Fprintf(w, "expense_operations_total{op=\"delete\"} %d\n\n", stats.ExpensesDeleted)

	fmt.Fprintf(w, "# HELP limit_operations_total Monthly limit mutations by operation\n")
	fmt.Fprintf(w, "# TYPE limit_operations_total counter\n")
	fmt.Fprintf(w, "limit_operations_total{op=\"set\"} %d\n", stats.LimitsSet)
	fmt.Fprintf(w, "limit_operations_total{op=\"delete\"} %d\n\n", stats.LimitsDeleted)

	counter("reconciliations_total", "Months reconciled", stats.Reconciliations)
	counter("limit_status_changes_total", "Limit status transitions", stats.StatusChanges)

	fmt.Fprintf(w, "# HELP limit_events_total Status change events handed to the broker\n")
	fmt.Fprintf(w, "# TYPE limit_events_total counter\n")
	fmt.Fprintf(w, "limit_events_total{result=\"published\"} %d\n", stats.EventsPublished)
	fmt.Fprintf(w, "limit_events_total{result=\"failed\"} %d\n\n", stats.EventsFailed)

	counter("rate_limit_hits_total", "Total rate limit hits", rateLimitMetrics.TotalHits)

	fmt.Fprintf(w, "# HELP rate_limit_active_clients Current number of rate limited clients\n")
	fmt.Fprintf(w, "# TYPE rate_limit_active_clients gauge\n")
	fmt.Fprintf(w, "rate_limit_active_clients %d\n\n", rateLimitMetrics.ClientCount)

	counter("suspicious_requests_total", "Total suspicious requests detected", securityMetrics.SuspiciousRequests)

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n", time.Since(s.started).Seconds())
}
