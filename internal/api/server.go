// Package api exposes the ledger over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/cleared-dev/glengine/internal/ledger"
	"github.com/cleared-dev/glengine/internal/period"
	"github.com/cleared-dev/glengine/internal/report"
	"github.com/cleared-dev/glengine/internal/txfeed"
)

// Ledger is the read side the handlers need.
type Ledger interface {
	Balances(ctx context.Context, tenant string) (*ledger.BalanceReport, error)
	Transactions(ctx context.Context, tenant string) (txfeed.Feed, error)
	Summary(ctx context.Context, tenant string, m *period.Month) (period.Summary, error)
	Export(ctx context.Context, tenant string, m *period.Month) ([]report.Section, error)
}

// Reports produces report batches, possibly through a cache.
type Reports interface {
	Reports(ctx context.Context, tenant string, m *period.Month) (*report.Batch, error)
}

// Server holds the HTTP handlers.
type Server struct {
	ledger  Ledger
	reports Reports
	log     logrus.FieldLogger
}

// NewServer builds a Server. reports may be the ledger itself.
func NewServer(l Ledger, reports Reports, log logrus.FieldLogger) *Server {
	return &Server{ledger: l, reports: reports, log: log}
}

// Routes returns the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/tenants/{tenant}", func(r chi.Router) {
		r.Get("/balances", s.handleBalances)
		r.Get("/transactions", s.handleTransactions)
		r.Get("/summary", s.handleSummary)
		r.Get("/reports", s.handleReports)
		r.Get("/reports/{name}", s.handleReport)
		r.Get("/export.csv", s.handleExportCSV)
		r.Get("/export.xlsx", s.handleExportXLSX)
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"bytes":      ww.BytesWritten(),
			"duration":   time.Since(start).String(),
			"request_id": middleware.GetReqID(r.Context()),
		}).Info("request")
	})
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("server starting")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
