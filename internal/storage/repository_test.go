package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"invoicer/internal/core"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func draft(number, investor, amount string) core.InvoiceDraft {
	d, _ := decimal.NewFromString(amount)
	return core.InvoiceDraft{
		InvoiceNumber: number,
		InvestorName:  investor,
		ProjectName:   "VIKSA",
		Amount:        d,
		InvoiceDate:   core.NewDate(2024, 1, 10),
		DueDate:       core.NewDate(2024, 2, 10),
	}
}

func payment(invoiceID, amount string) core.PaymentDraft {
	d, _ := decimal.NewFromString(amount)
	return core.PaymentDraft{
		InvoiceID:   invoiceID,
		Amount:      d,
		PaymentDate: core.NewDate(2024, 1, 20),
		Method:      core.MethodWire,
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	inv, err := s.CreateInvoice(ctx, draft("INV-001", "Acme Capital", "100.00"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	view, err := s.GetInvoice(ctx, inv.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if view.InvoiceNumber != "INV-001" || view.ProjectName != "VIKSA" {
		t.Fatalf("fields lost: %+v", view.Invoice)
	}
	if view.InvoiceDate.String() != "2024-01-10" || view.DueDate.String() != "2024-02-10" {
		t.Fatalf("dates lost: %s / %s", view.InvoiceDate, view.DueDate)
	}
	if view.Status != core.StatusPending || view.Amount.StringFixed(2) != "100.00" {
		t.Fatalf("derived state wrong: %+v", view)
	}
}

func TestSQLiteDuplicateInvoiceNumber(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateInvoice(ctx, draft("INV-001", "Acme Capital", "100.00")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.CreateInvoice(ctx, draft("INV-001", "Beta Partners", "50.00")); !core.IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestSQLiteTrimsInvoiceNumber(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	inv, err := s.CreateInvoice(ctx, draft(" INV-007 ", "Acme Capital", "100.00"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if inv.InvoiceNumber != "INV-007" {
		t.Fatalf("stored number = %q, want %q", inv.InvoiceNumber, "INV-007")
	}
	if _, err := s.CreateInvoice(ctx, draft("INV-007", "Beta Partners", "50.00")); !core.IsValidation(err) {
		t.Fatalf("expected ValidationError for duplicate after trimming, got %v", err)
	}
}

func TestSQLiteBalanceGuard(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	inv, _ := s.CreateInvoice(ctx, draft("INV-001", "Acme Capital", "100.00"))

	if _, err := s.RecordPayment(ctx, payment(inv.ID, "40.00")); err != nil {
		t.Fatalf("payment: %v", err)
	}
	if _, err := s.RecordPayment(ctx, payment(inv.ID, "61.00")); !core.IsValidation(err) {
		t.Fatalf("expected overpayment rejection, got %v", err)
	}

	view, _ := s.GetInvoice(ctx, inv.ID)
	if view.RemainingBalance.StringFixed(2) != "60.00" {
		t.Fatalf("balance after rejected payment: %s", view.RemainingBalance)
	}
	if _, err := s.RecordPayment(ctx, payment("missing", "10.00")); !core.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestSQLiteCascadeDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	inv, _ := s.CreateInvoice(ctx, draft("INV-001", "Acme Capital", "100.00"))
	p, _ := s.RecordPayment(ctx, payment(inv.ID, "40.00"))

	if err := s.DeleteInvoice(ctx, inv.ID); err != nil {
		t.Fatalf("delete invoice: %v", err)
	}
	if err := s.DeletePayment(ctx, p.ID); !core.IsNotFound(err) {
		t.Fatalf("payment should have been cascaded, got %v", err)
	}
	if err := s.DeleteInvoice(ctx, inv.ID); !core.IsNotFound(err) {
		t.Fatalf("double delete: expected NotFoundError, got %v", err)
	}
}

func TestSQLiteSummaryAndSumLaw(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, _ := s.CreateInvoice(ctx, draft("INV-001", "Acme Capital", "100.00"))
	s.CreateInvoice(ctx, draft("INV-002", "Beta Partners", "200.00"))
	p1, _ := s.RecordPayment(ctx, payment(a.ID, "30.00"))
	s.RecordPayment(ctx, payment(a.ID, "20.00"))

	sum, err := s.Summary(ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.TotalInvoices != 2 ||
		sum.TotalAmount.StringFixed(2) != "300.00" ||
		sum.ReceivedAmount.StringFixed(2) != "50.00" ||
		sum.OutstandingAmount.StringFixed(2) != "250.00" {
		t.Fatalf("summary: %+v", sum)
	}

	// Deleting a payment recomputes the derived balance on the next read.
	if err := s.DeletePayment(ctx, p1.ID); err != nil {
		t.Fatalf("delete payment: %v", err)
	}
	view, _ := s.GetInvoice(ctx, a.ID)
	if view.TotalPaid.StringFixed(2) != "20.00" || view.RemainingBalance.StringFixed(2) != "80.00" {
		t.Fatalf("after delete: paid=%s remaining=%s", view.TotalPaid, view.RemainingBalance)
	}
}

func TestSQLiteConcurrentPayments(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	inv, _ := s.CreateInvoice(ctx, draft("INV-001", "Acme Capital", "100.00"))

	var g errgroup.Group
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		i := i
		g.Go(func() error {
			_, results[i] = s.RecordPayment(ctx, payment(inv.ID, "60.00"))
			return nil
		})
	}
	g.Wait()

	var succeeded int
	for _, err := range results {
		if err == nil {
			succeeded++
		} else if !core.IsValidation(err) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("expected exactly one payment accepted, got %d", succeeded)
	}

	view, _ := s.GetInvoice(ctx, inv.ID)
	if view.RemainingBalance.StringFixed(2) != "40.00" {
		t.Fatalf("remaining balance: %s", view.RemainingBalance)
	}
}
