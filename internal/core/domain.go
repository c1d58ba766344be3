package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodCheck        PaymentMethod = "check"
	MethodWire         PaymentMethod = "wire"
	MethodACH          PaymentMethod = "ach"
)

const (
	StatusPending   Status = "pending"
	StatusPartial   Status = "partial"
	StatusFullyPaid Status = "paid"
)

type (
	// PaymentMethod is an open enum: the values above are the known set,
	// but unrecognized methods are preserved verbatim for display.
	PaymentMethod string

	// Status classifies an invoice's payment progress.
	Status string

	Invoice struct {
		ID              string          `json:"id"`
		InvoiceNumber   string          `json:"invoiceNumber"`
		ProjectName     string          `json:"projectName,omitempty"`
		AgreementNumber string          `json:"agreementNumber"`
		InvestorName    string          `json:"investorName"`
		Description     string          `json:"description,omitempty"`
		Amount          decimal.Decimal `json:"amount"`
		InvoiceDate     Date            `json:"invoiceDate"`
		DueDate         Date            `json:"dueDate"`
		CreatedAt       time.Time       `json:"createdAt"`
	}

	Payment struct {
		ID          string          `json:"id"`
		InvoiceID   string          `json:"invoiceId"`
		Amount      decimal.Decimal `json:"amount"`
		PaymentDate Date            `json:"paymentDate"`
		Method      PaymentMethod   `json:"paymentMethod"`
		Notes       string          `json:"notes,omitempty"`
		CreatedAt   time.Time       `json:"createdAt"`
	}

	// InvoiceView is an invoice together with its derived payment state.
	// Derived fields are never stored; they are recomputed on every read.
	InvoiceView struct {
		Invoice
		TotalPaid        decimal.Decimal `json:"totalPaid"`
		RemainingBalance decimal.Decimal `json:"remainingBalance"`
		Status           Status          `json:"status"`
	}

	// InvoiceDraft carries the caller-supplied fields of a new invoice.
	InvoiceDraft struct {
		InvoiceNumber   string          `json:"invoiceNumber"`
		ProjectName     string          `json:"projectName"`
		AgreementNumber string          `json:"agreementNumber"`
		InvestorName    string          `json:"investorName"`
		Description     string          `json:"description"`
		Amount          decimal.Decimal `json:"amount"`
		InvoiceDate     Date            `json:"invoiceDate"`
		DueDate         Date            `json:"dueDate"`
	}

	// PaymentDraft carries the caller-supplied fields of a new payment.
	PaymentDraft struct {
		InvoiceID   string          `json:"invoiceId"`
		Amount      decimal.Decimal `json:"amount"`
		PaymentDate Date            `json:"paymentDate"`
		Method      PaymentMethod   `json:"paymentMethod"`
		Notes       string          `json:"notes"`
	}

	// Summary aggregates the whole ledger.
	Summary struct {
		TotalInvoices     int             `json:"totalInvoices"`
		TotalAmount       decimal.Decimal `json:"totalAmount"`
		ReceivedAmount    decimal.Decimal `json:"receivedAmount"`
		OutstandingAmount decimal.Decimal `json:"outstandingAmount"`
	}
)

// Projects is the closed set of project identifiers an invoice may belong to.
// An empty project name means the invoice is ungrouped.
var Projects = []string{"AGHK_KPP", "VIKSA", "UST_LUGA", "AMUR_SNGI", "AMUR_RHI"}

// KnownProject reports whether name is a member of the project set.
func KnownProject(name string) bool {
	for _, p := range Projects {
		if p == name {
			return true
		}
	}
	return false
}

var methodLabels = map[PaymentMethod]string{
	MethodBankTransfer: "Bank Transfer",
	MethodCheck:        "Check",
	MethodWire:         "Wire Transfer",
	MethodACH:          "ACH",
}

// Known reports whether the method is one of the enumerated values.
func (m PaymentMethod) Known() bool {
	_, ok := methodLabels[m]
	return ok
}

// Label returns the display label for the method. Unknown methods are
// returned verbatim.
func (m PaymentMethod) Label() string {
	if l, ok := methodLabels[m]; ok {
		return l
	}
	return string(m)
}

// Label returns the display label used in tables and exports.
func (s Status) Label() string {
	switch s {
	case StatusFullyPaid:
		return "Fully Paid"
	case StatusPartial:
		return "Partial Payment"
	default:
		return "Pending"
	}
}

// StatusOf classifies payment progress: Pending when nothing has been paid,
// FullyPaid when the balance reaches zero, Partial otherwise.
func StatusOf(amount, totalPaid decimal.Decimal) Status {
	switch {
	case totalPaid.IsZero():
		return StatusPending
	case totalPaid.GreaterThanOrEqual(amount):
		return StatusFullyPaid
	default:
		return StatusPartial
	}
}

// NewView derives the read model for an invoice from its payment set.
func NewView(inv Invoice, payments []Payment) InvoiceView {
	total := decimal.Zero
	for _, p := range payments {
		if p.InvoiceID == inv.ID {
			total = total.Add(p.Amount)
		}
	}
	return InvoiceView{
		Invoice:          inv,
		TotalPaid:        total,
		RemainingBalance: inv.Amount.Sub(total),
		Status:           StatusOf(inv.Amount, total),
	}
}

func (d InvoiceDraft) Validate() error {
	if strings.TrimSpace(d.InvoiceNumber) == "" {
		return &ValidationError{Field: "invoiceNumber", Reason: "must not be blank"}
	}
	if strings.TrimSpace(d.InvestorName) == "" {
		return &ValidationError{Field: "investorName", Reason: "must not be blank"}
	}
	if !d.Amount.IsPositive() {
		return &ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}
	if d.ProjectName != "" && !KnownProject(d.ProjectName) {
		return &ValidationError{Field: "projectName", Reason: "unknown project " + d.ProjectName}
	}
	if d.InvoiceDate.IsZero() {
		return &ValidationError{Field: "invoiceDate", Reason: "must not be blank"}
	}
	if d.DueDate.IsZero() {
		return &ValidationError{Field: "dueDate", Reason: "must not be blank"}
	}
	return nil
}

func (d PaymentDraft) Validate() error {
	if strings.TrimSpace(d.InvoiceID) == "" {
		return &ValidationError{Field: "invoiceId", Reason: "must not be blank"}
	}
	if !d.Amount.IsPositive() {
		return &ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}
	if d.PaymentDate.IsZero() {
		return &ValidationError{Field: "paymentDate", Reason: "must not be blank"}
	}
	if strings.TrimSpace(string(d.Method)) == "" {
		return &ValidationError{Field: "paymentMethod", Reason: "must not be blank"}
	}
	return nil
}
