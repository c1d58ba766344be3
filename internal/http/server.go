// Package http exposes the ledger over a JSON API.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"invoicer/internal/core"
	"invoicer/internal/importer"
	"invoicer/internal/ledger"
)

// Options tunes server behavior beyond the listen address.
type Options struct {
	// DateMode is forwarded to the import pipeline.
	DateMode core.DateMode
	// MaxImportBytes caps the accepted upload size. Zero means 10 MiB.
	MaxImportBytes int
}

type Server struct {
	http.Server

	ledger      *ledger.Service
	dateMode    core.DateMode
	maxImport   int64
	rateLimiter *rateLimiter

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server.
func NewServer(addr string, svc *ledger.Service, opts Options) *Server {
	maxImport := int64(opts.MaxImportBytes)
	if maxImport <= 0 {
		maxImport = 10 << 20
	}

	s := &Server{
		ledger:      svc,
		dateMode:    opts.DateMode,
		maxImport:   maxImport,
		rateLimiter: newRateLimiter(),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(s.rateLimiter.limit)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/invoices", s.handleListInvoices)
		r.Post("/invoices", s.handleCreateInvoice)
		r.Get("/invoices/grouped", s.handleGroupedInvoices)
		r.Get("/invoices/{id}", s.handleGetInvoice)
		r.Delete("/invoices/{id}", s.handleDeleteInvoice)
		r.Get("/invoices/{id}/payments", s.handleInvoicePayments)

		r.Get("/payments", s.handleListPayments)
		r.Post("/payments", s.handleRecordPayment)
		r.Delete("/payments/{id}", s.handleDeletePayment)

		r.Get("/dashboard/summary", s.handleDashboard)
		r.Get("/dashboard/recent-transactions", s.handleRecentActivity)

		r.Post("/import", s.handleImport)
		r.Get("/export", s.handleExport)
	})

	s.Server = http.Server{
		Addr:    addr,
		Handler: r,
	}

	return s
}

// Shutdown stops the server and its background cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// newImporter builds an import pipeline bound to the ledger, reporting
// progress to the request log.
func (s *Server) newImporter(ctx context.Context) *importer.Importer {
	return importer.New(s.ledger, importer.Config{
		DateMode: s.dateMode,
		OnProgress: func(processed, total int) {
			if processed == total {
				slog.DebugContext(ctx, "Import batch submitted", "rows", total)
			}
		},
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		slog.InfoContext(r.Context(), "Request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
