package report

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"invoicer/internal/core"
)

func view(number, investor, project, amount, paid string) core.InvoiceView {
	amt := decimal.RequireFromString(amount)
	total := decimal.RequireFromString(paid)
	return core.InvoiceView{
		Invoice: core.Invoice{
			ID:            "id-" + number,
			InvoiceNumber: number,
			InvestorName:  investor,
			ProjectName:   project,
			Amount:        amt,
			InvoiceDate:   core.NewDate(2024, 1, 10),
			DueDate:       core.NewDate(2024, 2, 10),
		},
		TotalPaid:        total,
		RemainingBalance: amt.Sub(total),
		Status:           core.StatusOf(amt, total),
	}
}

func numbers(invs []core.InvoiceView) []string {
	out := make([]string, len(invs))
	for i, inv := range invs {
		out[i] = inv.InvoiceNumber
	}
	return out
}

func TestFilterSearch(t *testing.T) {
	invs := []core.InvoiceView{
		view("INV-001", "Acme Capital", "VIKSA", "100", "0"),
		view("INV-002", "Orbit Partners", "", "200", "0"),
		view("INV-003", "acme holdings", "UST_LUGA", "300", "0"),
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"INV-001", "INV-002", "INV-003"}},
		{"  ", []string{"INV-001", "INV-002", "INV-003"}},
		{"ACME", []string{"INV-001", "INV-003"}},
		{"inv-002", []string{"INV-002"}},
		{"ust_luga", []string{"INV-003"}},
		{"nobody", nil},
	}
	for _, tt := range tests {
		got := numbers(FilterSearch(invs, tt.query))
		if len(got) != len(tt.want) {
			t.Errorf("FilterSearch(%q) = %v, want %v", tt.query, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("FilterSearch(%q) = %v, want %v", tt.query, got, tt.want)
				break
			}
		}
	}
}

func TestFilterStatus(t *testing.T) {
	invs := []core.InvoiceView{
		view("PAID", "A", "", "100", "100"),
		view("PART", "B", "", "100", "40"),
		view("PEND", "C", "", "100", "0"),
	}

	tests := []struct {
		filter StatusFilter
		want   []string
	}{
		{FilterAll, []string{"PAID", "PART", "PEND"}},
		{"", []string{"PAID", "PART", "PEND"}},
		{FilterPaid, []string{"PAID"}},
		{FilterPartial, []string{"PART"}},
		{FilterPending, []string{"PEND"}},
	}
	for _, tt := range tests {
		got := numbers(FilterStatus(invs, tt.filter))
		if strings.Join(got, ",") != strings.Join(tt.want, ",") {
			t.Errorf("FilterStatus(%q) = %v, want %v", tt.filter, got, tt.want)
		}
	}
}

func TestGroupByProject(t *testing.T) {
	invs := []core.InvoiceView{
		view("INV-001", "A", "VIKSA", "100", "0"),
		view("INV-002", "B", "", "200", "0"),
		view("INV-003", "C", "UST_LUGA", "300", "0"),
		view("INV-004", "D", "VIKSA", "400", "0"),
	}

	groups := GroupByProject(invs)
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	if groups[0].Project != "VIKSA" || groups[0].Count() != 2 {
		t.Errorf("first group = %s (%d invoices), want VIKSA (2)", groups[0].Project, groups[0].Count())
	}
	if groups[1].Project != NoProject {
		t.Errorf("second group = %s, want %s", groups[1].Project, NoProject)
	}
	if groups[2].Label != "UST LUGA" {
		t.Errorf("UST_LUGA label = %q, want %q", groups[2].Label, "UST LUGA")
	}
}

func TestCollectionRate(t *testing.T) {
	sum := core.Summary{
		TotalAmount:    decimal.RequireFromString("400"),
		ReceivedAmount: decimal.RequireFromString("100"),
	}
	if got := CollectionRate(sum); got != 0.25 {
		t.Errorf("CollectionRate = %v, want 0.25", got)
	}
	if got := CollectionRate(core.Summary{}); got != 0 {
		t.Errorf("CollectionRate of empty summary = %v, want 0", got)
	}
}

func TestAverageInvoice(t *testing.T) {
	sum := core.Summary{TotalInvoices: 3, TotalAmount: decimal.RequireFromString("100")}
	if got := AverageInvoice(sum); got.StringFixed(2) != "33.33" {
		t.Errorf("AverageInvoice = %s, want 33.33", got)
	}
	if got := AverageInvoice(core.Summary{}); !got.IsZero() {
		t.Errorf("AverageInvoice of empty summary = %s, want 0", got)
	}
}

func TestStatusDistribution(t *testing.T) {
	invs := []core.InvoiceView{
		view("A", "x", "", "100", "100"),
		view("B", "x", "", "100", "40"),
		view("C", "x", "", "100", "0"),
		view("D", "x", "", "100", "0"),
	}
	d := StatusDistribution(invs)
	if d.FullyPaid != 1 || d.Partial != 1 || d.Pending != 2 {
		t.Errorf("distribution = %+v, want 1 paid, 1 partial, 2 pending", d)
	}
}

func TestTopInvestors(t *testing.T) {
	invs := []core.InvoiceView{
		view("A", "Acme", "", "100", "0"),
		view("B", "Orbit", "", "300", "0"),
		view("C", "Acme", "", "150", "0"),
		view("D", "Zenith", "", "250", "0"),
	}

	top := TopInvestors(invs, 2)
	if len(top) != 2 {
		t.Fatalf("expected 2 investors, got %d", len(top))
	}
	if top[0].Name != "Orbit" || top[0].Amount.StringFixed(2) != "300.00" {
		t.Errorf("top[0] = %s %s, want Orbit 300.00", top[0].Name, top[0].Amount)
	}
	if top[1].Name != "Acme" || top[1].Invoices != 2 {
		t.Errorf("top[1] = %s (%d invoices), want Acme (2)", top[1].Name, top[1].Invoices)
	}

	all := TopInvestors(invs, 0)
	if len(all) != 3 {
		t.Errorf("unlimited ranking has %d entries, want 3", len(all))
	}
}

func TestTopInvestorsTiesKeepEncounterOrder(t *testing.T) {
	invs := []core.InvoiceView{
		view("A", "First", "", "100", "0"),
		view("B", "Second", "", "100", "0"),
	}
	top := TopInvestors(invs, 0)
	if top[0].Name != "First" || top[1].Name != "Second" {
		t.Errorf("tie order = %s, %s; want First, Second", top[0].Name, top[1].Name)
	}
}

func TestActiveInvestors(t *testing.T) {
	invs := []core.InvoiceView{
		view("A", "Acme", "", "100", "0"),
		view("B", "Acme", "", "100", "0"),
		view("C", "Orbit", "", "100", "0"),
	}
	if got := ActiveInvestors(invs); got != 2 {
		t.Errorf("ActiveInvestors = %d, want 2", got)
	}
}

func TestOverdueCount(t *testing.T) {
	today := core.NewDate(2024, 3, 1)

	overdue := view("A", "x", "", "100", "40")
	settled := view("B", "x", "", "100", "100")
	future := view("C", "x", "", "100", "0")
	future.DueDate = core.NewDate(2024, 4, 1)
	undated := view("D", "x", "", "100", "0")
	undated.DueDate = core.Date{}

	got := OverdueCount([]core.InvoiceView{overdue, settled, future, undated}, today)
	if got != 1 {
		t.Errorf("OverdueCount = %d, want 1", got)
	}
}

func TestDaysOutstanding(t *testing.T) {
	inv := view("A", "x", "", "100", "0")

	if days, ok := DaysOutstanding(inv, core.NewDate(2024, 2, 20)); !ok || days != 10 {
		t.Errorf("DaysOutstanding past due = %d, %v; want 10, true", days, ok)
	}
	if _, ok := DaysOutstanding(inv, core.NewDate(2024, 2, 1)); ok {
		t.Error("invoice not yet due reported as outstanding")
	}

	inv.DueDate = core.Date{}
	if _, ok := DaysOutstanding(inv, core.NewDate(2024, 2, 20)); ok {
		t.Error("invoice without due date reported as outstanding")
	}
}
