// Package worker turns ledger change events into audit log entries.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"invoicer/internal/core"
	"invoicer/internal/events"
	"invoicer/internal/ledger"
)

// AuditWorker logs every ledger change, enriching creation and payment
// events with the invoice's current balance state.
type AuditWorker struct {
	store ledger.Store
}

func NewAuditWorker(store ledger.Store) *AuditWorker {
	return &AuditWorker{store: store}
}

// HandleEvent processes one delivery. A non-nil return requeues it;
// events for records that no longer exist are acknowledged and dropped.
func (w *AuditWorker) HandleEvent(ctx context.Context, event *events.LedgerEvent) error {
	switch event.Kind {
	case events.KindInvoiceCreated:
		return w.logInvoiceState(ctx, event.Kind, event.ID)
	case events.KindPaymentRecorded:
		return w.logInvoiceState(ctx, event.Kind, event.InvoiceID)
	case events.KindInvoiceDeleted, events.KindPaymentDeleted:
		slog.InfoContext(ctx, "Ledger record removed", "kind", event.Kind, "id", event.ID)
		return nil
	default:
		slog.WarnContext(ctx, "Ignoring event of unknown kind", "kind", event.Kind, "id", event.ID)
		return nil
	}
}

func (w *AuditWorker) logInvoiceState(ctx context.Context, kind, invoiceID string) error {
	view, err := w.store.GetInvoice(ctx, invoiceID)
	if err != nil {
		if core.IsNotFound(err) {
			slog.InfoContext(ctx, "Invoice gone before audit", "kind", kind, "invoiceId", invoiceID)
			return nil
		}
		return fmt.Errorf("load invoice %s: %w", invoiceID, err)
	}

	slog.InfoContext(ctx, "Ledger changed",
		"kind", kind,
		"invoiceNumber", view.InvoiceNumber,
		"status", view.Status,
		"totalPaid", view.TotalPaid.StringFixed(2),
		"remainingBalance", view.RemainingBalance.StringFixed(2))
	return nil
}
