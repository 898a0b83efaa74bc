package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"kertas/internal/domain"
)

// Repair support queries live here to keep the main repository file focused
// on the request-path operations.

// ListAllForRepair returns every non-deleted invoice with its items, ordered
// by created_at ascending so repair can pick the earliest member of a group
// deterministically.
func (r *PostgresInvoiceRepository) ListAllForRepair(ctx context.Context) ([]domain.Invoice, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, invoice_number, customer_id, total_amount, paid_amount, balance, status, created_at, updated_at
		FROM invoices
		WHERE deleted_at IS NULL
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices: %w", err)
	}
	defer rows.Close()

	invoices := []domain.Invoice{}
	for rows.Next() {
		var invoice domain.Invoice
		if err := rows.Scan(
			&invoice.ID, &invoice.InvoiceNumber, &invoice.CustomerID, &invoice.TotalAmount,
			&invoice.PaidAmount, &invoice.Balance, &invoice.Status, &invoice.CreatedAt, &invoice.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoice.Items = []domain.InvoiceItem{}
		invoices = append(invoices, invoice)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invoices: %w", err)
	}

	if len(invoices) == 0 {
		return invoices, nil
	}

	index := make(map[string]*domain.Invoice, len(invoices))
	for i := range invoices {
		index[invoices[i].ID] = &invoices[i]
	}

	itemRows, err := r.db.Query(ctx, `
		SELECT it.id, it.invoice_id, it.description, it.qty, it.unit_price, it.line_total
		FROM invoice_items it
		JOIN invoices inv ON inv.id = it.invoice_id
		WHERE inv.deleted_at IS NULL
		ORDER BY it.invoice_id, it.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoice items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var item domain.InvoiceItem
		if err := itemRows.Scan(&item.ID, &item.InvoiceID, &item.Description, &item.Quantity, &item.UnitPrice, &item.LineTotal); err != nil {
			return nil, fmt.Errorf("failed to scan invoice item: %w", err)
		}
		if invoice, ok := index[item.InvoiceID]; ok {
			invoice.Items = append(invoice.Items, item)
		}
	}

	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invoice items: %w", err)
	}

	return invoices, nil
}

// MergeInvoices reparents all items from the duplicate invoices onto the
// canonical one, hard-deletes the emptied duplicates and recomputes the
// canonical totals from the combined item set, all inside one transaction.
// A crash mid-merge leaves either the pre- or post-merge state; items are
// never orphaned because the reparent happens before the delete.
func (r *PostgresInvoiceRepository) MergeInvoices(ctx context.Context, canonicalID string, duplicateIDs []string) error {
	if len(duplicateIDs) == 0 {
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		UPDATE invoice_items SET invoice_id = $1 WHERE invoice_id = ANY($2)
	`, canonicalID, duplicateIDs)
	if err != nil {
		return fmt.Errorf("failed to reparent invoice items: %w", err)
	}

	// Payments received against the duplicates follow their items
	_, err = tx.Exec(ctx, `
		UPDATE payments SET invoice_id = $1 WHERE invoice_id = ANY($2)
	`, canonicalID, duplicateIDs)
	if err != nil {
		return fmt.Errorf("failed to reparent payments: %w", err)
	}

	commandTag, err := tx.Exec(ctx, `
		DELETE FROM invoices WHERE id = ANY($1)
	`, duplicateIDs)
	if err != nil {
		return fmt.Errorf("failed to delete duplicate invoices: %w", err)
	}
	if commandTag.RowsAffected() != int64(len(duplicateIDs)) {
		return fmt.Errorf("expected to delete %d duplicates, deleted %d", len(duplicateIDs), commandTag.RowsAffected())
	}

	if err := r.recomputeTotals(ctx, tx, canonicalID); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// RenumberInvoice reassigns an invoice's number under the same uniqueness
// constraint as creation
func (r *PostgresInvoiceRepository) RenumberInvoice(ctx context.Context, invoiceID, newNumber string, renumberedAt time.Time) error {
	commandTag, err := r.db.Exec(ctx, `
		UPDATE invoices SET invoice_number = $1, updated_at = $2
		WHERE id = $3 AND deleted_at IS NULL
	`, newNumber, renumberedAt, invoiceID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrNumberTaken
		}
		return fmt.Errorf("failed to renumber invoice: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// recomputeTotals rebuilds total, paid amount, balance and status of an
// invoice from its current item and payment rows. Payments reparented from
// merged duplicates are counted because the paid amount is summed from the
// payment rows, not carried over from the pre-merge column.
func (r *PostgresInvoiceRepository) recomputeTotals(ctx context.Context, tx pgx.Tx, invoiceID string) error {
	var locked string
	err := tx.QueryRow(ctx, `
		SELECT id FROM invoices WHERE id = $1 FOR UPDATE
	`, invoiceID).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("failed to lock invoice: %w", err)
	}

	var total decimal.Decimal
	err = tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(line_total), 0) FROM invoice_items WHERE invoice_id = $1
	`, invoiceID).Scan(&total)
	if err != nil {
		return fmt.Errorf("failed to sum invoice items: %w", err)
	}

	var paid decimal.Decimal
	err = tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM payments WHERE invoice_id = $1
	`, invoiceID).Scan(&paid)
	if err != nil {
		return fmt.Errorf("failed to sum payments: %w", err)
	}

	balance := total.Sub(paid)
	status := domain.InvoiceStatusUnpaid
	switch {
	case paid.IsZero():
		status = domain.InvoiceStatusUnpaid
	case balance.IsPositive():
		status = domain.InvoiceStatusPartial
	default:
		status = domain.InvoiceStatusPaid
	}

	_, err = tx.Exec(ctx, `
		UPDATE invoices SET total_amount = $1, paid_amount = $2, balance = $3, status = $4, updated_at = now()
		WHERE id = $5
	`, total, paid, balance, status, invoiceID)
	if err != nil {
		return fmt.Errorf("failed to update invoice totals: %w", err)
	}

	return nil
}
