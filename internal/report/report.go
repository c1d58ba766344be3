// Package report derives grouped, filtered and aggregated projections from
// ledger snapshots. Everything here is a pure function over []InvoiceView;
// no state, no mutation.
package report

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"invoicer/internal/core"
)

// StatusFilter selects invoices by payment progress. "pending" is defined
// purely by zero payment, which matches the way dashboards consume it and
// is distinct from the three-way status classification.
type StatusFilter string

const (
	FilterAll     StatusFilter = "all"
	FilterPaid    StatusFilter = "paid"
	FilterPartial StatusFilter = "partial"
	FilterPending StatusFilter = "pending"
)

// NoProject is the group bucket for invoices without a project.
const NoProject = "No Project"

// Group is one project bucket of a grouped projection.
type Group struct {
	Project  string             `json:"project"`
	Label    string             `json:"label"`
	Invoices []core.InvoiceView `json:"invoices"`
}

// Count returns the number of invoices in the group.
func (g Group) Count() int { return len(g.Invoices) }

// InvestorTotal is one row of the top-investors aggregation.
type InvestorTotal struct {
	Name     string          `json:"name"`
	Amount   decimal.Decimal `json:"amount"`
	Invoices int             `json:"invoices"`
}

// Distribution counts invoices per status bucket. Pending uses the
// zero-payment rule.
type Distribution struct {
	FullyPaid int `json:"fullyPaid"`
	Partial   int `json:"partial"`
	Pending   int `json:"pending"`
}

// FilterSearch keeps invoices whose invoice number, investor, project or
// agreement number contains the query, case-insensitively. A blank query
// keeps everything; missing fields simply never match.
func FilterSearch(invs []core.InvoiceView, query string) []core.InvoiceView {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return invs
	}
	var out []core.InvoiceView
	for _, inv := range invs {
		if containsFold(inv.InvoiceNumber, query) ||
			containsFold(inv.InvestorName, query) ||
			containsFold(inv.ProjectName, query) ||
			containsFold(inv.AgreementNumber, query) {
			out = append(out, inv)
		}
	}
	return out
}

// FilterStatus keeps invoices matching the filter: paid means settled in
// full, partial means some but not all paid, pending means nothing paid.
func FilterStatus(invs []core.InvoiceView, f StatusFilter) []core.InvoiceView {
	if f == FilterAll || f == "" {
		return invs
	}
	var out []core.InvoiceView
	for _, inv := range invs {
		var match bool
		switch f {
		case FilterPaid:
			match = inv.RemainingBalance.IsZero()
		case FilterPartial:
			match = inv.TotalPaid.IsPositive() && inv.RemainingBalance.IsPositive()
		case FilterPending:
			match = inv.TotalPaid.IsZero()
		}
		if match {
			out = append(out, inv)
		}
	}
	return out
}

// GroupByProject partitions invoices by project name in first-seen order.
// Invoices without a project land in the "No Project" bucket.
func GroupByProject(invs []core.InvoiceView) []Group {
	index := make(map[string]int)
	var groups []Group
	for _, inv := range invs {
		name := inv.ProjectName
		if name == "" {
			name = NoProject
		}
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, Group{
				Project: name,
				Label:   strings.ReplaceAll(name, "_", " "),
			})
		}
		groups[i].Invoices = append(groups[i].Invoices, inv)
	}
	return groups
}

// CollectionRate is receivedAmount/totalAmount as a fraction in [0, 1];
// zero when nothing has been invoiced.
func CollectionRate(sum core.Summary) float64 {
	if sum.TotalAmount.IsZero() {
		return 0
	}
	rate, _ := sum.ReceivedAmount.Div(sum.TotalAmount).Float64()
	return rate
}

// AverageInvoice is totalAmount/totalInvoices, zero for an empty ledger.
func AverageInvoice(sum core.Summary) decimal.Decimal {
	if sum.TotalInvoices == 0 {
		return decimal.Zero
	}
	return sum.TotalAmount.Div(decimal.New(int64(sum.TotalInvoices), 0)).Round(2)
}

// StatusDistribution counts invoices per bucket using the zero-payment
// pending rule.
func StatusDistribution(invs []core.InvoiceView) Distribution {
	var d Distribution
	for _, inv := range invs {
		switch {
		case inv.RemainingBalance.IsZero():
			d.FullyPaid++
		case inv.TotalPaid.IsPositive():
			d.Partial++
		}
		if inv.TotalPaid.IsZero() {
			d.Pending++
		}
	}
	return d
}

// TopInvestors ranks investors by total invoiced amount, descending. Ties
// keep first-encountered order. n <= 0 means no limit.
func TopInvestors(invs []core.InvoiceView, n int) []InvestorTotal {
	index := make(map[string]int)
	var totals []InvestorTotal
	for _, inv := range invs {
		i, ok := index[inv.InvestorName]
		if !ok {
			i = len(totals)
			index[inv.InvestorName] = i
			totals = append(totals, InvestorTotal{Name: inv.InvestorName, Amount: decimal.Zero})
		}
		totals[i].Amount = totals[i].Amount.Add(inv.Amount)
		totals[i].Invoices++
	}
	sort.SliceStable(totals, func(i, j int) bool {
		return totals[i].Amount.GreaterThan(totals[j].Amount)
	})
	if n > 0 && n < len(totals) {
		totals = totals[:n]
	}
	return totals
}

// ActiveInvestors counts distinct investor names.
func ActiveInvestors(invs []core.InvoiceView) int {
	seen := make(map[string]struct{})
	for _, inv := range invs {
		seen[inv.InvestorName] = struct{}{}
	}
	return len(seen)
}

// OverdueCount counts invoices past their due date with an outstanding
// balance.
func OverdueCount(invs []core.InvoiceView, today core.Date) int {
	var n int
	for _, inv := range invs {
		if !inv.DueDate.IsZero() && inv.DueDate.Before(today) && inv.RemainingBalance.IsPositive() {
			n++
		}
	}
	return n
}

// DaysOutstanding is the number of whole days an invoice is past due. The
// second return is false when the invoice is not yet due, in which case
// the value should not be displayed.
func DaysOutstanding(inv core.InvoiceView, today core.Date) (int, bool) {
	if inv.DueDate.IsZero() {
		return 0, false
	}
	days := inv.DueDate.DaysUntil(today)
	return days, days > 0
}

func containsFold(s, lowerQuery string) bool {
	return s != "" && strings.Contains(strings.ToLower(s), lowerQuery)
}
