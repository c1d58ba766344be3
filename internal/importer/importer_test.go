package importer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"invoicer/internal/core"
	"invoicer/internal/ledger/memory"
)

const sampleCSV = `Invoice Number,Investor,Amount,Invoice Date,Due Date,Description
INV-001,Acme Capital,1500.00,2024-01-10,2024-02-10,Q1 tranche
,Beta Partners,200.00,2024-01-11,2024-02-11,missing number
INV-003,Gamma Fund,0,2024-01-12,2024-02-12,zero amount
`

func newImporter(t *testing.T, cfg Config) (*Importer, *memory.Store) {
	t.Helper()
	store := memory.New()
	if cfg.Today.IsZero() {
		cfg.Today = core.NewDate(2024, 6, 1)
	}
	return New(store, cfg), store
}

func TestImportFiltersBadRows(t *testing.T) {
	im, store := newImporter(t, Config{})

	res, err := im.Import(context.Background(), []byte(sampleCSV))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.Succeeded != 1 || len(res.Failed) != 0 {
		t.Fatalf("expected 1 clean import, got %+v", res)
	}
	if res.Attempted() != 1 {
		t.Fatalf("attempted: %d", res.Attempted())
	}

	views, _ := store.ListInvoices(context.Background())
	if len(views) != 1 || views[0].InvoiceNumber != "INV-001" {
		t.Fatalf("stored invoices: %+v", views)
	}
	if views[0].Amount.StringFixed(2) != "1500.00" || views[0].Description != "Q1 tranche" {
		t.Fatalf("row normalization lost fields: %+v", views[0].Invoice)
	}
}

func TestImportRowFailureDoesNotAbortBatch(t *testing.T) {
	im, store := newImporter(t, Config{})

	csv := strings.Join([]string{
		"number,investor,amount,invoice date,due date,description",
		"INV-001,Acme Capital,100.00,2024-01-10,2024-02-10,first",
		"INV-001,Acme Capital,100.00,2024-01-10,2024-02-10,duplicate",
		"INV-002,Beta Partners,200.00,2024-01-11,2024-02-11,after failure",
	}, "\n")

	res, err := im.Import(context.Background(), []byte(csv))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.Succeeded != 2 {
		t.Fatalf("succeeded: %d", res.Succeeded)
	}
	if len(res.Failed) != 1 {
		t.Fatalf("failed: %+v", res.Failed)
	}
	f := res.Failed[0]
	if f.Row != 2 || f.InvoiceNumber != "INV-001" || !strings.Contains(f.Reason, "already exists") {
		t.Fatalf("row error lacks context: %+v", f)
	}

	// Rows before and after the failure are committed.
	views, _ := store.ListInvoices(context.Background())
	if len(views) != 2 || views[1].InvoiceNumber != "INV-002" {
		t.Fatalf("stored invoices: %+v", views)
	}
}

func TestImportGarbageBlob(t *testing.T) {
	im, store := newImporter(t, Config{})

	blob := []byte{0x00, 0x01, 0x02, 0xFF, 0xFE, 0x00, 0x99}
	_, err := im.Import(context.Background(), blob)
	var pe *core.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	views, _ := store.ListInvoices(context.Background())
	if len(views) != 0 {
		t.Fatalf("garbage import committed rows: %+v", views)
	}
}

func TestImportXLSX(t *testing.T) {
	im, store := newImporter(t, Config{})

	f := excelize.NewFile()
	rows := [][]any{
		{"Invoice Number", "Investor", "Amount", "Invoice Date", "Due Date", "Description"},
		{"INV-010", "Acme Capital", "2500.50", "2024-03-01", "2024-04-01", "xlsx row"},
		{"INV-011", "Beta Partners", 300, 45000, 45030, ""},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	res, err := im.Import(context.Background(), buf.Bytes())
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.Succeeded != 2 || len(res.Failed) != 0 {
		t.Fatalf("result: %+v", res)
	}

	views, _ := store.ListInvoices(context.Background())
	if len(views) != 2 {
		t.Fatalf("stored invoices: %d", len(views))
	}
	// Numeric date cells are spreadsheet serials.
	if views[1].InvoiceDate.String() != "2023-03-15" {
		t.Fatalf("serial date: %s", views[1].InvoiceDate)
	}
}

func TestImportLenientDateDefaultsToToday(t *testing.T) {
	today := core.NewDate(2024, 6, 1)
	im, store := newImporter(t, Config{Today: today})

	csv := "h1,h2,h3,h4,h5\nINV-001,Acme Capital,100.00,not a date,,"
	res, err := im.Import(context.Background(), []byte(csv))
	if err != nil || res.Succeeded != 1 {
		t.Fatalf("import: %v %+v", err, res)
	}

	views, _ := store.ListInvoices(context.Background())
	if views[0].InvoiceDate.String() != "2024-06-01" || views[0].DueDate.String() != "2024-06-01" {
		t.Fatalf("lenient dates: %s / %s", views[0].InvoiceDate, views[0].DueDate)
	}
}

func TestImportStrictDateFailsRow(t *testing.T) {
	im, store := newImporter(t, Config{DateMode: core.DateStrict})

	csv := strings.Join([]string{
		"h1,h2,h3,h4,h5",
		"INV-001,Acme Capital,100.00,not a date,2024-02-10",
		"INV-002,Beta Partners,200.00,2024-01-11,2024-02-11",
	}, "\n")

	res, err := im.Import(context.Background(), []byte(csv))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.Succeeded != 1 || len(res.Failed) != 1 {
		t.Fatalf("result: %+v", res)
	}
	if res.Failed[0].Row != 1 || !strings.Contains(res.Failed[0].Reason, "not a date") {
		t.Fatalf("row error: %+v", res.Failed[0])
	}

	views, _ := store.ListInvoices(context.Background())
	if len(views) != 1 || views[0].InvoiceNumber != "INV-002" {
		t.Fatalf("stored invoices: %+v", views)
	}
}

func TestImportProgressMonotonic(t *testing.T) {
	var calls [][2]int
	cfg := Config{OnProgress: func(processed, total int) {
		calls = append(calls, [2]int{processed, total})
	}}
	im, _ := newImporter(t, cfg)

	csv := strings.Join([]string{
		"h1,h2,h3,h4,h5",
		"INV-001,Acme Capital,100.00,2024-01-10,2024-02-10",
		"INV-002,Beta Partners,200.00,2024-01-11,2024-02-11",
		"INV-003,Gamma Fund,300.00,2024-01-12,2024-02-12",
	}, "\n")

	if _, err := im.Import(context.Background(), []byte(csv)); err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(calls) != 3 {
		t.Fatalf("progress calls: %+v", calls)
	}
	for i, c := range calls {
		if c[0] != i+1 || c[1] != 3 {
			t.Fatalf("call %d: %+v", i, c)
		}
	}
}

func TestImportCancellationStopsSubmissions(t *testing.T) {
	store := memory.New()
	ctx, cancel := context.WithCancel(context.Background())

	// Cancel after the first successful submission.
	im := New(creatorFunc(func(c context.Context, d core.InvoiceDraft) (core.Invoice, error) {
		inv, err := store.CreateInvoice(c, d)
		cancel()
		return inv, err
	}), Config{Today: core.NewDate(2024, 6, 1)})

	csv := strings.Join([]string{
		"h1,h2,h3,h4,h5",
		"INV-001,Acme Capital,100.00,2024-01-10,2024-02-10",
		"INV-002,Beta Partners,200.00,2024-01-11,2024-02-11",
	}, "\n")

	res, err := im.Import(ctx, []byte(csv))
	if err == nil {
		t.Fatal("expected context error")
	}
	if res.Succeeded != 1 {
		t.Fatalf("succeeded: %d", res.Succeeded)
	}
	// The committed row stays committed.
	views, _ := store.ListInvoices(context.Background())
	if len(views) != 1 {
		t.Fatalf("stored invoices: %d", len(views))
	}
}

type creatorFunc func(context.Context, core.InvoiceDraft) (core.Invoice, error)

func (f creatorFunc) CreateInvoice(ctx context.Context, d core.InvoiceDraft) (core.Invoice, error) {
	return f(ctx, d)
}
