// Package memory provides an in-process ledger store. It is the default
// backend and the one the test suite runs against.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"invoicer/internal/core"
)

// Store keeps all records in maps guarded by a single mutex. Holding the
// write lock across RecordPayment's balance check and insert is what makes
// the check-then-insert indivisible.
type Store struct {
	mu        sync.RWMutex
	seq       int64
	invoices  map[string]invoiceRecord
	payments  map[string]paymentRecord
	byNumber  map[string]string // invoiceNumber -> invoice id
	byInvoice map[string][]string

	now func() time.Time
}

type invoiceRecord struct {
	core.Invoice
	seq int64
}

type paymentRecord struct {
	core.Payment
	seq int64
}

func New() *Store {
	return &Store{
		invoices:  make(map[string]invoiceRecord),
		payments:  make(map[string]paymentRecord),
		byNumber:  make(map[string]string),
		byInvoice: make(map[string][]string),
		now:       time.Now,
	}
}

func (s *Store) CreateInvoice(_ context.Context, draft core.InvoiceDraft) (core.Invoice, error) {
	// Stored numbers are trimmed so " INV-1" and "INV-1" are one invoice.
	draft.InvoiceNumber = strings.TrimSpace(draft.InvoiceNumber)
	if err := draft.Validate(); err != nil {
		return core.Invoice{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Uniqueness check and insert happen under the same lock.
	if _, exists := s.byNumber[draft.InvoiceNumber]; exists {
		return core.Invoice{}, &core.ValidationError{
			Field:  "invoiceNumber",
			Reason: "invoice number " + draft.InvoiceNumber + " already exists",
		}
	}

	s.seq++
	inv := core.Invoice{
		ID:              uuid.NewString(),
		InvoiceNumber:   draft.InvoiceNumber,
		ProjectName:     draft.ProjectName,
		AgreementNumber: draft.AgreementNumber,
		InvestorName:    draft.InvestorName,
		Description:     draft.Description,
		Amount:          draft.Amount.Round(2),
		InvoiceDate:     draft.InvoiceDate,
		DueDate:         draft.DueDate,
		CreatedAt:       s.now().UTC(),
	}
	s.invoices[inv.ID] = invoiceRecord{Invoice: inv, seq: s.seq}
	s.byNumber[inv.InvoiceNumber] = inv.ID
	return inv, nil
}

func (s *Store) RecordPayment(_ context.Context, draft core.PaymentDraft) (core.Payment, error) {
	if err := draft.Validate(); err != nil {
		return core.Payment{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.invoices[draft.InvoiceID]
	if !ok {
		return core.Payment{}, &core.NotFoundError{Kind: "invoice", ID: draft.InvoiceID}
	}

	remaining := rec.Amount.Sub(s.totalPaidLocked(rec.ID))
	if draft.Amount.GreaterThan(remaining) {
		return core.Payment{}, &core.ValidationError{
			Field: "amount",
			Reason: "payment of " + draft.Amount.StringFixed(2) +
				" exceeds remaining balance of " + remaining.StringFixed(2),
		}
	}

	s.seq++
	p := core.Payment{
		ID:          uuid.NewString(),
		InvoiceID:   draft.InvoiceID,
		Amount:      draft.Amount.Round(2),
		PaymentDate: draft.PaymentDate,
		Method:      draft.Method,
		Notes:       draft.Notes,
		CreatedAt:   s.now().UTC(),
	}
	s.payments[p.ID] = paymentRecord{Payment: p, seq: s.seq}
	s.byInvoice[p.InvoiceID] = append(s.byInvoice[p.InvoiceID], p.ID)
	return p, nil
}

func (s *Store) DeleteInvoice(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.invoices[id]
	if !ok {
		return &core.NotFoundError{Kind: "invoice", ID: id}
	}

	// Cascade: an invoice's payments do not outlive it.
	for _, pid := range s.byInvoice[id] {
		delete(s.payments, pid)
	}
	delete(s.byInvoice, id)
	delete(s.byNumber, rec.InvoiceNumber)
	delete(s.invoices, id)
	return nil
}

func (s *Store) DeletePayment(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.payments[id]
	if !ok {
		return &core.NotFoundError{Kind: "payment", ID: id}
	}

	ids := s.byInvoice[rec.InvoiceID]
	for i, pid := range ids {
		if pid == id {
			s.byInvoice[rec.InvoiceID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	delete(s.payments, id)
	return nil
}

func (s *Store) GetInvoice(_ context.Context, id string) (core.InvoiceView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.invoices[id]
	if !ok {
		return core.InvoiceView{}, &core.NotFoundError{Kind: "invoice", ID: id}
	}
	return s.viewLocked(rec.Invoice), nil
}

func (s *Store) ListInvoices(_ context.Context) ([]core.InvoiceView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := make([]invoiceRecord, 0, len(s.invoices))
	for _, rec := range s.invoices {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq < recs[j].seq })

	views := make([]core.InvoiceView, len(recs))
	for i, rec := range recs {
		views[i] = s.viewLocked(rec.Invoice)
	}
	return views, nil
}

func (s *Store) ListPayments(_ context.Context) ([]core.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := make([]paymentRecord, 0, len(s.payments))
	for _, rec := range s.payments {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq < recs[j].seq })

	out := make([]core.Payment, len(recs))
	for i, rec := range recs {
		out[i] = rec.Payment
	}
	return out, nil
}

func (s *Store) ListPaymentsByInvoice(_ context.Context, invoiceID string) ([]core.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.invoices[invoiceID]; !ok {
		return nil, &core.NotFoundError{Kind: "invoice", ID: invoiceID}
	}
	out := make([]core.Payment, 0, len(s.byInvoice[invoiceID]))
	for _, pid := range s.byInvoice[invoiceID] {
		out = append(out, s.payments[pid].Payment)
	}
	return out, nil
}

func (s *Store) Summary(_ context.Context) (core.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := core.Summary{
		TotalAmount:       decimal.Zero,
		ReceivedAmount:    decimal.Zero,
		OutstandingAmount: decimal.Zero,
	}
	for _, rec := range s.invoices {
		paid := s.totalPaidLocked(rec.ID)
		sum.TotalInvoices++
		sum.TotalAmount = sum.TotalAmount.Add(rec.Amount)
		sum.ReceivedAmount = sum.ReceivedAmount.Add(paid)
		sum.OutstandingAmount = sum.OutstandingAmount.Add(rec.Amount.Sub(paid))
	}
	return sum, nil
}

func (s *Store) RecentActivity(_ context.Context, limit int) ([]core.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type entry struct {
		activity core.Activity
		seq      int64
	}
	entries := make([]entry, 0, len(s.invoices)+len(s.payments))
	for _, rec := range s.invoices {
		entries = append(entries, entry{core.InvoiceActivity(rec.Invoice), rec.seq})
	}
	for _, rec := range s.payments {
		entries = append(entries, entry{core.PaymentActivity(rec.Payment), rec.seq})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq > entries[j].seq })

	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	out := make([]core.Activity, len(entries))
	for i, e := range entries {
		out[i] = e.activity
	}
	return out, nil
}

func (s *Store) Close() error { return nil }

// totalPaidLocked sums the payments of one invoice. Callers hold s.mu.
func (s *Store) totalPaidLocked(invoiceID string) decimal.Decimal {
	total := decimal.Zero
	for _, pid := range s.byInvoice[invoiceID] {
		total = total.Add(s.payments[pid].Amount)
	}
	return total
}

func (s *Store) viewLocked(inv core.Invoice) core.InvoiceView {
	paid := s.totalPaidLocked(inv.ID)
	return core.InvoiceView{
		Invoice:          inv,
		TotalPaid:        paid,
		RemainingBalance: inv.Amount.Sub(paid),
		Status:           core.StatusOf(inv.Amount, paid),
	}
}
