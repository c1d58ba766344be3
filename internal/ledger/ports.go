// Package ledger defines the store port for invoice and payment records and
// the service that orchestrates mutations and change notifications.
package ledger

import (
	"context"

	"invoicer/internal/core"
)

// Store owns invoice and payment records and guards the balance invariant:
// after every mutation, 0 <= remainingBalance <= amount holds for every
// invoice. Implementations must serialize RecordPayment's check-then-insert
// per invoice and keep CreateInvoice's uniqueness check atomic with the
// insert. Reads may run concurrently with writes and must never observe a
// partially applied mutation.
type Store interface {
	// CreateInvoice validates the draft, enforces invoice-number
	// uniqueness (case-sensitive) and returns the stored record.
	CreateInvoice(ctx context.Context, draft core.InvoiceDraft) (core.Invoice, error)

	// RecordPayment accepts the payment only when its amount does not
	// exceed the invoice's remaining balance at the moment of insertion.
	// Two concurrent calls against the same invoice must never both
	// succeed if their combined amount would overdraw it.
	RecordPayment(ctx context.Context, draft core.PaymentDraft) (core.Payment, error)

	// DeleteInvoice removes the invoice and cascades to its payments.
	DeleteInvoice(ctx context.Context, id string) error

	// DeletePayment removes the payment; the owning invoice's balance
	// recomputes on the next read.
	DeletePayment(ctx context.Context, id string) error

	GetInvoice(ctx context.Context, id string) (core.InvoiceView, error)
	ListInvoices(ctx context.Context) ([]core.InvoiceView, error)
	ListPayments(ctx context.Context) ([]core.Payment, error)
	ListPaymentsByInvoice(ctx context.Context, invoiceID string) ([]core.Payment, error)

	// Summary aggregates totals over all invoices.
	Summary(ctx context.Context) (core.Summary, error)

	// RecentActivity returns the newest invoice/payment entries, newest
	// first, up to limit.
	RecentActivity(ctx context.Context, limit int) ([]core.Activity, error)

	Close() error
}

// Publisher notifies external consumers of ledger changes. Publishing is
// best-effort: a failure never rolls back the mutation it describes.
type Publisher interface {
	PublishInvoiceCreated(ctx context.Context, id string) error
	PublishInvoiceDeleted(ctx context.Context, id string) error
	PublishPaymentRecorded(ctx context.Context, id, invoiceID string) error
	PublishPaymentDeleted(ctx context.Context, id string) error
}
