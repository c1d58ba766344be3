package report

import (
	"strings"

	"invoicer/internal/core"
)

// exportHeader is the fixed column order of the exported table.
var exportHeader = []string{
	"Invoice Number",
	"Investor",
	"Invoice Amount",
	"Total Paid",
	"Remaining Balance",
	"Status",
	"Invoice Date",
	"Due Date",
}

// ExportCSV renders invoices as a CSV document with a fixed header row.
// Every field is quoted, including numeric ones, so downstream spreadsheet
// tools never reinterpret invoice numbers as numbers.
func ExportCSV(invs []core.InvoiceView) []byte {
	var b strings.Builder
	writeRecord(&b, exportHeader)
	for _, inv := range invs {
		writeRecord(&b, []string{
			inv.InvoiceNumber,
			inv.InvestorName,
			inv.Amount.StringFixed(2),
			inv.TotalPaid.StringFixed(2),
			inv.RemainingBalance.StringFixed(2),
			inv.Status.Label(),
			inv.InvoiceDate.String(),
			inv.DueDate.String(),
		})
	}
	return []byte(b.String())
}

// ExportFilename returns the canonical download name for an export taken on
// the given date.
func ExportFilename(today core.Date) string {
	return "income-table-" + today.String() + ".csv"
}

func writeRecord(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(f, `"`, `""`))
		b.WriteByte('"')
	}
	b.WriteByte('\n')
}
