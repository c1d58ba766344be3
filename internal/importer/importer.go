// Package importer ingests bulk spreadsheet data into the ledger. The blob
// is decoded and normalized up front; surviving rows are then submitted
// sequentially, in original order, each with its own outcome. A row
// failure never aborts the rest of the batch.
package importer

import (
	"context"
	"strings"

	"invoicer/internal/core"
)

// Fixed column contract of an import sheet. Row 0 is a header and is
// always skipped.
const (
	colInvoiceNumber = 0
	colInvestorName  = 1
	colAmount        = 2
	colInvoiceDate   = 3
	colDueDate       = 4
	colDescription   = 5

	minColumns = 5
)

// Creator is the ledger operation the pipeline drives rows through.
type Creator interface {
	CreateInvoice(ctx context.Context, draft core.InvoiceDraft) (core.Invoice, error)
}

// Progress is invoked after each row submission with the number of rows
// processed so far and the total candidate count. processed/total grows
// monotonically from 0 to 1.
type Progress func(processed, total int)

// Config tunes a pipeline instance.
type Config struct {
	// DateMode controls whether unparseable date cells default to today
	// (lenient) or fail the row (strict).
	DateMode core.DateMode
	// OnProgress, when set, receives per-row progress updates.
	OnProgress Progress
	// Today overrides the current date; used by tests and by the lenient
	// date default. Zero means the real current date.
	Today core.Date
}

// RowError is the outcome of one failed row, indexed by the row's position
// in the original sheet (header = row 0).
type RowError struct {
	Row           int    `json:"row"`
	InvoiceNumber string `json:"invoiceNumber,omitempty"`
	Reason        string `json:"reason"`
}

// Result reports a completed (or cancelled) import.
type Result struct {
	Succeeded int        `json:"succeeded"`
	Failed    []RowError `json:"failed,omitempty"`
}

// Attempted is the number of candidate rows the pipeline submitted.
func (r Result) Attempted() int {
	return r.Succeeded + len(r.Failed)
}

type candidate struct {
	row   int // original sheet row index
	draft core.InvoiceDraft
	err   string // non-empty when normalization already failed the row
}

type Importer struct {
	creator  Creator
	mode     core.DateMode
	progress Progress
	today    core.Date
}

func New(creator Creator, cfg Config) *Importer {
	return &Importer{
		creator:  creator,
		mode:     cfg.DateMode,
		progress: cfg.OnProgress,
		today:    cfg.Today,
	}
}

// Import decodes the blob, normalizes its rows and submits the candidates
// to the ledger in row order. Decode failure aborts with a core.ParseError
// and zero rows committed. Row-level failures are collected into the
// result. A cancelled context stops further submissions; rows already
// committed stay committed.
func (im *Importer) Import(ctx context.Context, blob []byte) (Result, error) {
	rows, err := decodeTable(blob)
	if err != nil {
		return Result{}, err
	}

	today := im.today
	if today.IsZero() {
		today = core.Today()
	}

	candidates := im.normalize(rows, today)

	var res Result
	for i, c := range candidates {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if c.err != "" {
			res.Failed = append(res.Failed, RowError{
				Row:           c.row,
				InvoiceNumber: c.draft.InvoiceNumber,
				Reason:        c.err,
			})
		} else if _, err := im.creator.CreateInvoice(ctx, c.draft); err != nil {
			res.Failed = append(res.Failed, RowError{
				Row:           c.row,
				InvoiceNumber: c.draft.InvoiceNumber,
				Reason:        err.Error(),
			})
		} else {
			res.Succeeded++
		}
		if im.progress != nil {
			im.progress(i+1, len(candidates))
		}
	}
	return res, nil
}

// normalize applies the column contract and drops rows that cannot become
// invoices: short rows, blank invoice numbers or investors, non-positive
// amounts. In strict date mode a bad date keeps the row as a candidate but
// marks it failed, so the caller sees why it was not imported.
func (im *Importer) normalize(rows [][]string, today core.Date) []candidate {
	var out []candidate
	for i, row := range rows {
		if i == 0 {
			// header
			continue
		}
		if len(row) < minColumns || strings.TrimSpace(row[colInvoiceNumber]) == "" {
			continue
		}

		draft := core.InvoiceDraft{
			InvoiceNumber: strings.TrimSpace(row[colInvoiceNumber]),
			InvestorName:  strings.TrimSpace(row[colInvestorName]),
		}
		if len(row) > colDescription {
			draft.Description = strings.TrimSpace(row[colDescription])
		}

		// Unparseable amounts default to zero and are dropped by the
		// positivity filter below.
		if amount, err := core.ParseAmount(row[colAmount]); err == nil {
			draft.Amount = amount
		}

		if draft.InvoiceNumber == "" || draft.InvestorName == "" || !draft.Amount.IsPositive() {
			continue
		}

		var dateErr string
		if d, err := core.NormalizeCellDate(row[colInvoiceDate], im.mode, today); err != nil {
			dateErr = "invoice date: " + strings.TrimSpace(row[colInvoiceDate]) + " is not a date"
		} else {
			draft.InvoiceDate = d
		}
		if d, err := core.NormalizeCellDate(row[colDueDate], im.mode, today); err != nil {
			if dateErr == "" {
				dateErr = "due date: " + strings.TrimSpace(row[colDueDate]) + " is not a date"
			}
		} else {
			draft.DueDate = d
		}

		out = append(out, candidate{row: i, draft: draft, err: dateErr})
	}
	return out
}
