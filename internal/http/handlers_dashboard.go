package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"invoicer/internal/core"
	"invoicer/internal/report"
)

// Dashboard is the aggregate payload behind the overview screen.
type Dashboard struct {
	Summary            core.Summary           `json:"summary"`
	CollectionRate     float64                `json:"collectionRate"`
	AverageInvoice     decimal.Decimal        `json:"averageInvoice"`
	ActiveInvestors    int                    `json:"activeInvestors"`
	StatusDistribution report.Distribution    `json:"statusDistribution"`
	OverdueInvoices    int                    `json:"overdueInvoices"`
	TopInvestors       []report.InvestorTotal `json:"topInvestors"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := s.ledger.Summary(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	invoices, err := s.ledger.ListInvoices(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	top := report.TopInvestors(invoices, 5)
	if top == nil {
		top = []report.InvestorTotal{}
	}

	writeJSON(w, http.StatusOK, Dashboard{
		Summary:            summary,
		CollectionRate:     report.CollectionRate(summary),
		AverageInvoice:     report.AverageInvoice(summary),
		ActiveInvestors:    report.ActiveInvestors(invoices),
		StatusDistribution: report.StatusDistribution(invoices),
		OverdueInvoices:    report.OverdueCount(invoices, core.Today()),
		TopInvestors:       top,
	})
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxImport))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeErrorStatus(w, http.StatusRequestEntityTooLarge,
				"upload exceeds "+strconv.FormatInt(s.maxImport, 10)+" bytes")
			return
		}
		writeError(w, &core.ParseError{Reason: "read upload: " + err.Error()})
		return
	}
	if len(body) == 0 {
		writeError(w, &core.ParseError{Reason: "empty upload"})
		return
	}

	result, err := s.newImporter(r.Context()).Import(r.Context(), body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	invoices, err := s.filteredInvoices(r)
	if err != nil {
		writeError(w, err)
		return
	}

	body := report.ExportCSV(invoices)

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.ExportFilename(core.Today())+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
