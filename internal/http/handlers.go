package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"invoicer/internal/core"
	"invoicer/internal/report"
)

// defaultRecentLimit bounds the activity feed when no limit is given.
const defaultRecentLimit = 10

func (s *Server) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := s.filteredInvoices(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if invoices == nil {
		invoices = []core.InvoiceView{}
	}
	writeJSON(w, http.StatusOK, invoices)
}

func (s *Server) handleGroupedInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := s.filteredInvoices(r)
	if err != nil {
		writeError(w, err)
		return
	}
	groups := report.GroupByProject(invoices)
	if groups == nil {
		groups = []report.Group{}
	}
	writeJSON(w, http.StatusOK, groups)
}

func (s *Server) handleCreateInvoice(w http.ResponseWriter, r *http.Request) {
	var draft core.InvoiceDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeError(w, &core.ParseError{Reason: "malformed request body: " + err.Error()})
		return
	}

	invoice, err := s.ledger.CreateInvoice(r.Context(), draft)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, invoice)
}

func (s *Server) handleGetInvoice(w http.ResponseWriter, r *http.Request) {
	view, err := s.ledger.GetInvoice(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleDeleteInvoice(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteInvoice(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleInvoicePayments(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	// A payment list for an unknown invoice is a 404, not an empty list.
	if _, err := s.ledger.GetInvoice(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	payments, err := s.ledger.ListPaymentsByInvoice(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if payments == nil {
		payments = []core.Payment{}
	}
	writeJSON(w, http.StatusOK, payments)
}

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := s.ledger.ListPayments(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if payments == nil {
		payments = []core.Payment{}
	}
	writeJSON(w, http.StatusOK, payments)
}

func (s *Server) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	var draft core.PaymentDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeError(w, &core.ParseError{Reason: "malformed request body: " + err.Error()})
		return
	}

	payment, err := s.ledger.RecordPayment(r.Context(), draft)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, payment)
}

func (s *Server) handleDeletePayment(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeletePayment(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleRecentActivity(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecentLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			writeError(w, &core.ValidationError{Field: "limit", Reason: "must be a positive number"})
			return
		}
		limit = parsed
	}

	activity, err := s.ledger.RecentActivity(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if activity == nil {
		activity = []core.Activity{}
	}
	writeJSON(w, http.StatusOK, activity)
}

// filteredInvoices lists invoices with the search and status query filters
// applied.
func (s *Server) filteredInvoices(r *http.Request) ([]core.InvoiceView, error) {
	invoices, err := s.ledger.ListInvoices(r.Context())
	if err != nil {
		return nil, err
	}

	q := r.URL.Query()
	invoices = report.FilterSearch(invoices, q.Get("search"))

	status := report.StatusFilter(q.Get("status"))
	switch status {
	case "", report.FilterAll, report.FilterPaid, report.FilterPartial, report.FilterPending:
		invoices = report.FilterStatus(invoices, status)
	default:
		return nil, &core.ValidationError{Field: "status", Reason: "must be one of all, paid, partial, pending"}
	}

	return invoices, nil
}
