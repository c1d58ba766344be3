package core

import "time"

const (
	ActivityInvoice ActivityKind = "invoice"
	ActivityPayment ActivityKind = "payment"
)

// ActivityKind discriminates the variants of an Activity entry.
type ActivityKind string

// Activity is one entry of the recent-activity feed: a tagged variant that
// is either an invoice creation or a payment receipt. Exactly one of
// Invoice/Payment is set, matching Kind.
type Activity struct {
	Kind      ActivityKind `json:"kind"`
	Invoice   *Invoice     `json:"invoice,omitempty"`
	Payment   *Payment     `json:"payment,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// InvoiceActivity wraps an invoice creation as an activity entry.
func InvoiceActivity(inv Invoice) Activity {
	return Activity{Kind: ActivityInvoice, Invoice: &inv, Timestamp: inv.CreatedAt}
}

// PaymentActivity wraps a payment receipt as an activity entry.
func PaymentActivity(p Payment) Activity {
	return Activity{Kind: ActivityPayment, Payment: &p, Timestamp: p.CreatedAt}
}
