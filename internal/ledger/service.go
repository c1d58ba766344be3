package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"invoicer/internal/core"
)

// Service orchestrates ledger operations across the store and the event
// publisher. The store is the source of truth; events are fire-and-forget.
type Service struct {
	store  Store
	events Publisher
}

// NewService creates a ledger service. events may be nil, in which case
// change notifications are skipped.
func NewService(store Store, events Publisher) *Service {
	return &Service{store: store, events: events}
}

// CreateInvoice stores a new invoice and publishes a created event.
func (s *Service) CreateInvoice(ctx context.Context, draft core.InvoiceDraft) (core.Invoice, error) {
	inv, err := s.store.CreateInvoice(ctx, draft)
	if err != nil {
		return core.Invoice{}, fmt.Errorf("create invoice: %w", err)
	}

	slog.InfoContext(ctx, "Invoice created",
		"id", inv.ID,
		"invoice_number", inv.InvoiceNumber,
		"investor", inv.InvestorName,
		"amount", inv.Amount.StringFixed(2))

	if s.events != nil {
		if err := s.events.PublishInvoiceCreated(ctx, inv.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to publish invoice created event",
				"id", inv.ID, "error", err)
			// Don't fail the request - the invoice is stored
		}
	}
	return inv, nil
}

// RecordPayment applies a payment against an invoice, subject to the
// balance guard, and publishes a recorded event.
func (s *Service) RecordPayment(ctx context.Context, draft core.PaymentDraft) (core.Payment, error) {
	p, err := s.store.RecordPayment(ctx, draft)
	if err != nil {
		return core.Payment{}, fmt.Errorf("record payment: %w", err)
	}

	slog.InfoContext(ctx, "Payment recorded",
		"id", p.ID,
		"invoice_id", p.InvoiceID,
		"amount", p.Amount.StringFixed(2),
		"method", string(p.Method))

	if s.events != nil {
		if err := s.events.PublishPaymentRecorded(ctx, p.ID, p.InvoiceID); err != nil {
			slog.ErrorContext(ctx, "Failed to publish payment recorded event",
				"id", p.ID, "invoice_id", p.InvoiceID, "error", err)
		}
	}
	return p, nil
}

// DeleteInvoice removes an invoice and its payments.
func (s *Service) DeleteInvoice(ctx context.Context, id string) error {
	if err := s.store.DeleteInvoice(ctx, id); err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}

	slog.InfoContext(ctx, "Invoice deleted", "id", id)

	if s.events != nil {
		if err := s.events.PublishInvoiceDeleted(ctx, id); err != nil {
			slog.ErrorContext(ctx, "Failed to publish invoice deleted event",
				"id", id, "error", err)
		}
	}
	return nil
}

// DeletePayment removes a payment.
func (s *Service) DeletePayment(ctx context.Context, id string) error {
	if err := s.store.DeletePayment(ctx, id); err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}

	slog.InfoContext(ctx, "Payment deleted", "id", id)

	if s.events != nil {
		if err := s.events.PublishPaymentDeleted(ctx, id); err != nil {
			slog.ErrorContext(ctx, "Failed to publish payment deleted event",
				"id", id, "error", err)
		}
	}
	return nil
}

func (s *Service) GetInvoice(ctx context.Context, id string) (core.InvoiceView, error) {
	return s.store.GetInvoice(ctx, id)
}

func (s *Service) ListInvoices(ctx context.Context) ([]core.InvoiceView, error) {
	return s.store.ListInvoices(ctx)
}

func (s *Service) ListPayments(ctx context.Context) ([]core.Payment, error) {
	return s.store.ListPayments(ctx)
}

func (s *Service) ListPaymentsByInvoice(ctx context.Context, invoiceID string) ([]core.Payment, error) {
	return s.store.ListPaymentsByInvoice(ctx, invoiceID)
}

func (s *Service) Summary(ctx context.Context) (core.Summary, error) {
	return s.store.Summary(ctx)
}

func (s *Service) RecentActivity(ctx context.Context, limit int) ([]core.Activity, error) {
	return s.store.RecentActivity(ctx, limit)
}

// Close closes the store and, when configured, the event publisher.
func (s *Service) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}
	if c, ok := s.events.(interface{ Close() error }); ok && c != nil {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("events: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}
	return nil
}
