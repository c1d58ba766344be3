// Package storage provides the SQLite-backed ledger store. Derived balances
// are never persisted; they are recomputed from the payments table on read,
// and RecordPayment re-evaluates the remaining balance inside the insert
// transaction so the balance guard holds under concurrent writers.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"invoicer/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// SQLite serializes writers; a single connection keeps transaction
	// semantics predictable for the balance guard.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) CreateInvoice(ctx context.Context, draft core.InvoiceDraft) (core.Invoice, error) {
	// Stored numbers are trimmed so " INV-1" and "INV-1" are one invoice.
	draft.InvoiceNumber = strings.TrimSpace(draft.InvoiceNumber)
	if err := draft.Validate(); err != nil {
		return core.Invoice{}, err
	}

	inv := core.Invoice{
		ID:              uuid.NewString(),
		InvoiceNumber:   draft.InvoiceNumber,
		ProjectName:     draft.ProjectName,
		AgreementNumber: draft.AgreementNumber,
		InvestorName:    draft.InvestorName,
		Description:     draft.Description,
		Amount:          draft.Amount.Round(2),
		InvoiceDate:     draft.InvoiceDate,
		DueDate:         draft.DueDate,
		CreatedAt:       time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO invoices (id, invoice_number, project_name, agreement_number,
			investor_name, description, amount_cents, invoice_date, due_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.InvoiceNumber, inv.ProjectName, inv.AgreementNumber,
		inv.InvestorName, inv.Description, core.Cents(inv.Amount),
		inv.InvoiceDate.String(), inv.DueDate.String(), inv.CreatedAt)
	if err != nil {
		// The UNIQUE constraint on invoice_number is the atomic
		// uniqueness check.
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return core.Invoice{}, &core.ValidationError{
				Field:  "invoiceNumber",
				Reason: "invoice number " + inv.InvoiceNumber + " already exists",
			}
		}
		return core.Invoice{}, fmt.Errorf("insert invoice: %w", err)
	}
	return inv, nil
}

func (s *SQLiteStore) RecordPayment(ctx context.Context, draft core.PaymentDraft) (core.Payment, error) {
	if err := draft.Validate(); err != nil {
		return core.Payment{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Payment{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	// The balance check and the insert share one transaction, which is
	// what makes the check-then-insert indivisible per invoice.
	var amountCents int64
	err = tx.QueryRowContext(ctx,
		`SELECT amount_cents FROM invoices WHERE id = ?`, draft.InvoiceID).Scan(&amountCents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Payment{}, &core.NotFoundError{Kind: "invoice", ID: draft.InvoiceID}
	}
	if err != nil {
		return core.Payment{}, fmt.Errorf("load invoice: %w", err)
	}

	var paidCents int64
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM payments WHERE invoice_id = ?`,
		draft.InvoiceID).Scan(&paidCents)
	if err != nil {
		return core.Payment{}, fmt.Errorf("sum payments: %w", err)
	}

	p := core.Payment{
		ID:          uuid.NewString(),
		InvoiceID:   draft.InvoiceID,
		Amount:      draft.Amount.Round(2),
		PaymentDate: draft.PaymentDate,
		Method:      draft.Method,
		Notes:       draft.Notes,
		CreatedAt:   time.Now().UTC(),
	}

	remaining := core.FromCents(amountCents - paidCents)
	if p.Amount.GreaterThan(remaining) {
		return core.Payment{}, &core.ValidationError{
			Field: "amount",
			Reason: "payment of " + p.Amount.StringFixed(2) +
				" exceeds remaining balance of " + remaining.StringFixed(2),
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO payments (id, invoice_id, amount_cents, payment_date,
			payment_method, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.InvoiceID, core.Cents(p.Amount), p.PaymentDate.String(),
		string(p.Method), p.Notes, p.CreatedAt)
	if err != nil {
		return core.Payment{}, fmt.Errorf("insert payment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return core.Payment{}, fmt.Errorf("commit payment: %w", err)
	}
	return p, nil
}

func (s *SQLiteStore) DeleteInvoice(ctx context.Context, id string) error {
	// Payments cascade via the foreign key.
	res, err := s.db.ExecContext(ctx, `DELETE FROM invoices WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return &core.NotFoundError{Kind: "invoice", ID: id}
	}
	return nil
}

func (s *SQLiteStore) DeletePayment(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM payments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return &core.NotFoundError{Kind: "payment", ID: id}
	}
	return nil
}

const invoiceViewQuery = `
	SELECT i.id, i.invoice_number, i.project_name, i.agreement_number,
		i.investor_name, i.description, i.amount_cents, i.invoice_date,
		i.due_date, i.created_at,
		COALESCE((SELECT SUM(p.amount_cents) FROM payments p WHERE p.invoice_id = i.id), 0)
	FROM invoices i`

func (s *SQLiteStore) GetInvoice(ctx context.Context, id string) (core.InvoiceView, error) {
	view, err := scanInvoiceView(s.db.QueryRowContext(ctx, invoiceViewQuery+` WHERE i.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.InvoiceView{}, &core.NotFoundError{Kind: "invoice", ID: id}
	}
	if err != nil {
		return core.InvoiceView{}, fmt.Errorf("get invoice: %w", err)
	}
	return view, nil
}

func (s *SQLiteStore) ListInvoices(ctx context.Context) ([]core.InvoiceView, error) {
	rows, err := s.db.QueryContext(ctx, invoiceViewQuery+` ORDER BY i.created_at, i.rowid`)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var views []core.InvoiceView
	for rows.Next() {
		view, err := scanInvoiceView(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		views = append(views, view)
	}
	return views, rows.Err()
}

const paymentQuery = `
	SELECT id, invoice_id, amount_cents, payment_date, payment_method, notes, created_at
	FROM payments`

func (s *SQLiteStore) ListPayments(ctx context.Context) ([]core.Payment, error) {
	rows, err := s.db.QueryContext(ctx, paymentQuery+` ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()
	return collectPayments(rows)
}

func (s *SQLiteStore) ListPaymentsByInvoice(ctx context.Context, invoiceID string) ([]core.Payment, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM invoices WHERE id = ?`, invoiceID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &core.NotFoundError{Kind: "invoice", ID: invoiceID}
	}
	if err != nil {
		return nil, fmt.Errorf("check invoice: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		paymentQuery+` WHERE invoice_id = ? ORDER BY created_at, rowid`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list payments by invoice: %w", err)
	}
	defer rows.Close()
	return collectPayments(rows)
}

func (s *SQLiteStore) Summary(ctx context.Context) (core.Summary, error) {
	var sum core.Summary
	var totalCents, paidCents int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(amount_cents), 0),
			COALESCE((SELECT SUM(amount_cents) FROM payments), 0)
		FROM invoices`).Scan(&sum.TotalInvoices, &totalCents, &paidCents)
	if err != nil {
		return core.Summary{}, fmt.Errorf("summary: %w", err)
	}
	sum.TotalAmount = core.FromCents(totalCents)
	sum.ReceivedAmount = core.FromCents(paidCents)
	sum.OutstandingAmount = core.FromCents(totalCents - paidCents)
	return sum, nil
}

func (s *SQLiteStore) RecentActivity(ctx context.Context, limit int) ([]core.Activity, error) {
	// Both tables are read in one snapshot-consistent query each, then
	// merged by creation time in Go.
	invoices, err := s.ListInvoices(ctx)
	if err != nil {
		return nil, err
	}
	payments, err := s.ListPayments(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]core.Activity, 0, len(invoices)+len(payments))
	for _, v := range invoices {
		entries = append(entries, core.InvoiceActivity(v.Invoice))
	}
	for _, p := range payments {
		entries = append(entries, core.PaymentActivity(p))
	}
	sortActivities(entries)

	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	return entries, nil
}

type rowScanner interface{ Scan(...any) error }

func scanInvoiceView(row rowScanner) (core.InvoiceView, error) {
	var (
		view                   core.InvoiceView
		amountCents, paidCents int64
		invoiceDate, dueDate   string
	)
	err := row.Scan(&view.ID, &view.InvoiceNumber, &view.ProjectName,
		&view.AgreementNumber, &view.InvestorName, &view.Description,
		&amountCents, &invoiceDate, &dueDate, &view.CreatedAt, &paidCents)
	if err != nil {
		return core.InvoiceView{}, err
	}
	view.Amount = core.FromCents(amountCents)
	view.TotalPaid = core.FromCents(paidCents)
	view.RemainingBalance = core.FromCents(amountCents - paidCents)
	view.Status = core.StatusOf(view.Amount, view.TotalPaid)
	if view.InvoiceDate, err = core.ParseDate(invoiceDate); err != nil {
		return core.InvoiceView{}, fmt.Errorf("invoice date %q: %w", invoiceDate, err)
	}
	if view.DueDate, err = core.ParseDate(dueDate); err != nil {
		return core.InvoiceView{}, fmt.Errorf("due date %q: %w", dueDate, err)
	}
	return view, nil
}

func collectPayments(rows *sql.Rows) ([]core.Payment, error) {
	var out []core.Payment
	for rows.Next() {
		var (
			p           core.Payment
			amountCents int64
			payDate     string
			method      string
		)
		if err := rows.Scan(&p.ID, &p.InvoiceID, &amountCents, &payDate,
			&method, &p.Notes, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		p.Amount = core.FromCents(amountCents)
		p.Method = core.PaymentMethod(method)
		var err error
		if p.PaymentDate, err = core.ParseDate(payDate); err != nil {
			return nil, fmt.Errorf("payment date %q: %w", payDate, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func sortActivities(entries []core.Activity) {
	// Newest first; stable so same-instant entries keep insertion order.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
}
