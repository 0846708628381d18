package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cleared-dev/glengine/internal/ledger"
	"github.com/cleared-dev/glengine/internal/logging"
	"github.com/cleared-dev/glengine/internal/period"
	"github.com/cleared-dev/glengine/internal/report"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.LogError(s.log, "api", "writeJSON", r.URL.Path, nil, err)
	}
}

// statusFor maps ledger errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, report.ErrUnknownReport):
		return http.StatusNotFound
	case errors.Is(err, period.ErrBadMonth):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrSourceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logging.LogError(s.log, "api", r.URL.Path, "handling request", nil, err)
	}
	s.writeJSON(w, r, status, ErrorResponse{Error: err.Error()})
}

// monthParam reads the optional ?month=YYYY-MM.
func monthParam(r *http.Request) (*period.Month, error) {
	raw := r.URL.Query().Get("month")
	if raw == "" {
		return nil, nil
	}
	m, err := period.ParseMonth(raw)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	res, err := s.ledger.Balances(r.Context(), chi.URLParam(r, "tenant"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, res)
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	feed, err := s.ledger.Transactions(r.Context(), chi.URLParam(r, "tenant"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, feed)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	m, err := monthParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	sum, err := s.ledger.Summary(r.Context(), chi.URLParam(r, "tenant"), m)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, sum)
}

func (s *Server) batch(w http.ResponseWriter, r *http.Request) (*report.Batch, bool) {
	m, err := monthParam(r)
	if err != nil {
		s.fail(w, r, err)
		return nil, false
	}
	b, err := s.reports.Reports(r.Context(), chi.URLParam(r, "tenant"), m)
	if err != nil {
		s.fail(w, r, err)
		return nil, false
	}
	return b, true
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	if b, ok := s.batch(w, r); ok {
		s.writeJSON(w, r, http.StatusOK, b)
	}
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !knownReport(name) {
		s.fail(w, r, fmt.Errorf("%w: %q", report.ErrUnknownReport, name))
		return
	}
	b, ok := s.batch(w, r)
	if !ok {
		return
	}
	v, err := b.Get(name)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, v)
}

func knownReport(name string) bool {
	for _, n := range report.Names {
		if n == name {
			return true
		}
	}
	return false
}

func (s *Server) export(w http.ResponseWriter, r *http.Request, contentType, ext string, write func(*bytes.Buffer, []report.Section) error) {
	m, err := monthParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	tenant := chi.URLParam(r, "tenant")
	sections, err := s.ledger.Export(r.Context(), tenant, m)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := write(&buf, sections); err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s-ledger.%s", tenant, ext))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		logging.LogError(s.log, "api", "export", r.URL.Path, nil, err)
	}
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	s.export(w, r, "text/csv; charset=utf-8", "csv", func(b *bytes.Buffer, sections []report.Section) error {
		return report.WriteCSV(b, sections)
	})
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	s.export(w, r, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "xlsx", func(b *bytes.Buffer, sections []report.Section) error {
		return report.WriteXLSX(b, sections)
	})
}
