package events

import (
	"encoding/json"
	"time"
)

// Event kinds carried on the ledger exchange.
const (
	KindInvoiceCreated  = "invoice.created"
	KindInvoiceDeleted  = "invoice.deleted"
	KindPaymentRecorded = "payment.recorded"
	KindPaymentDeleted  = "payment.deleted"
)

// LedgerEvent is a lightweight change notification. It carries only
// identifiers; consumers fetch the full record if they need it.
type LedgerEvent struct {
	Kind      string    `json:"kind"`
	ID        string    `json:"id"`
	InvoiceID string    `json:"invoiceId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerEvent creates an event stamped with the current time.
func NewLedgerEvent(kind, id, invoiceID string) *LedgerEvent {
	return &LedgerEvent{
		Kind:      kind,
		ID:        id,
		InvoiceID: invoiceID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes.
func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON creates an event from JSON bytes.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
