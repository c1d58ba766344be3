package events

import (
	"testing"
	"time"
)

func TestNewLedgerEvent(t *testing.T) {
	e := NewLedgerEvent(KindPaymentRecorded, "pay-1", "inv-1")

	if e.Kind != KindPaymentRecorded {
		t.Errorf("Kind = %v, want %v", e.Kind, KindPaymentRecorded)
	}
	if e.ID != "pay-1" {
		t.Errorf("ID = %v, want pay-1", e.ID)
	}
	if e.InvoiceID != "inv-1" {
		t.Errorf("InvoiceID = %v, want inv-1", e.InvoiceID)
	}
	if e.Timestamp.IsZero() {
		t.Error("Timestamp should not be zero")
	}
	if time.Since(e.Timestamp) > time.Second {
		t.Error("Timestamp should be recent")
	}
}

func TestLedgerEvent_JSON(t *testing.T) {
	timestamp := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	e := &LedgerEvent{
		Kind:      KindInvoiceCreated,
		ID:        "inv-42",
		Timestamp: timestamp,
	}

	jsonBytes, err := e.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsed, err := LedgerEventFromJSON(jsonBytes)
	if err != nil {
		t.Fatalf("LedgerEventFromJSON() error = %v", err)
	}

	if parsed.Kind != e.Kind {
		t.Errorf("Parsed Kind = %v, want %v", parsed.Kind, e.Kind)
	}
	if parsed.ID != e.ID {
		t.Errorf("Parsed ID = %v, want %v", parsed.ID, e.ID)
	}
	if parsed.InvoiceID != "" {
		t.Errorf("Parsed InvoiceID = %v, want empty", parsed.InvoiceID)
	}
	if !parsed.Timestamp.Equal(e.Timestamp) {
		t.Errorf("Parsed Timestamp = %v, want %v", parsed.Timestamp, e.Timestamp)
	}
}

func TestLedgerEvent_InvalidJSON(t *testing.T) {
	invalidJSON := []byte(`{"kind": 42}`)

	_, err := LedgerEventFromJSON(invalidJSON)
	if err == nil {
		t.Error("LedgerEventFromJSON() should fail with invalid JSON")
	}
}
