package repository

import (
	"context"
	"errors"
	"fmt"
	"math"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"kertas/internal/domain"
)

// uniqueViolation is the Postgres error code for a unique constraint breach
const uniqueViolation = "23505"

// PostgresInvoiceRepository implements InvoiceRepository using PostgreSQL
type PostgresInvoiceRepository struct {
	db *pgxpool.Pool
}

// NewPostgresInvoiceRepository creates a new PostgreSQL invoice repository
func NewPostgresInvoiceRepository(db *pgxpool.Pool) *PostgresInvoiceRepository {
	return &PostgresInvoiceRepository{
		db: db,
	}
}

// CreateInvoice saves a new invoice and its items in a single transaction.
// Uniqueness of the invoice number rests entirely on the partial unique
// index over non-deleted invoices; a losing insert returns
// domain.ErrNumberTaken so the caller can retry with the next candidate.
func (r *PostgresInvoiceRepository) CreateInvoice(ctx context.Context, invoice *domain.Invoice) (*domain.Invoice, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // Rollback if not committed

	if invoice.ID == "" {
		invoice.ID = uuid.NewString()
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO invoices (id, invoice_number, customer_id, total_amount, paid_amount, balance, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`, invoice.ID, invoice.InvoiceNumber, invoice.CustomerID, invoice.TotalAmount,
		invoice.PaidAmount, invoice.Balance, invoice.Status).Scan(
		&invoice.CreatedAt, &invoice.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrNumberTaken
		}
		return nil, fmt.Errorf("failed to insert invoice: %w", err)
	}

	for i := range invoice.Items {
		item := &invoice.Items[i]
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		item.InvoiceID = invoice.ID
		_, err = tx.Exec(ctx, `
			INSERT INTO invoice_items (id, invoice_id, description, qty, unit_price, line_total)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, item.ID, item.InvoiceID, item.Description, item.Quantity, item.UnitPrice, item.LineTotal)
		if err != nil {
			return nil, fmt.Errorf("failed to insert invoice item: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return invoice, nil
}

// MaxInvoiceNumber returns the highest numeric base among non-deleted
// invoice numbers. Duplicate suffixes ("1042-2") are stripped and any
// remaining non-digit characters removed, so legacy values like
// "LEGACY-A" simply drop out of the max instead of failing. Digit strings
// too long for bigint are dropped the same way; the cast only runs on
// values the length filter already admitted.
func (r *PostgresInvoiceRepository) MaxInvoiceNumber(ctx context.Context) (int64, error) {
	var max int64
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(MAX(digits::bigint), 0)
		FROM (
			SELECT NULLIF(regexp_replace(regexp_replace(invoice_number, '([0-9])-[0-9]+$', '\1'), '[^0-9]', '', 'g'), '') AS digits
			FROM invoices
			WHERE deleted_at IS NULL
		) parsed
		WHERE digits IS NOT NULL
		  AND length(ltrim(digits, '0')) BETWEEN 1 AND 18
	`).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("failed to compute max invoice number: %w", err)
	}
	return max, nil
}

// GetInvoiceByID retrieves an invoice and its items by ID
func (r *PostgresInvoiceRepository) GetInvoiceByID(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	var invoice domain.Invoice
	err := r.db.QueryRow(ctx, `
		SELECT id, invoice_number, customer_id, total_amount, paid_amount, balance, status, created_at, updated_at
		FROM invoices
		WHERE id = $1 AND deleted_at IS NULL
	`, invoiceID).Scan(
		&invoice.ID, &invoice.InvoiceNumber, &invoice.CustomerID, &invoice.TotalAmount,
		&invoice.PaidAmount, &invoice.Balance, &invoice.Status, &invoice.CreatedAt, &invoice.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	items, err := r.invoiceItems(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	invoice.Items = items

	return &invoice, nil
}

// DeleteInvoice soft-deletes an invoice. The partial unique index ignores
// deleted rows, so the number becomes available again.
func (r *PostgresInvoiceRepository) DeleteInvoice(ctx context.Context, invoiceID string) error {
	commandTag, err := r.db.Exec(ctx, `
		UPDATE invoices SET deleted_at = now(), updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
	`, invoiceID)
	if err != nil {
		return fmt.Errorf("failed to delete invoice: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// RecordPayment inserts a payment row and updates the invoice financial
// state in the same transaction
func (r *PostgresInvoiceRepository) RecordPayment(ctx context.Context, payment *domain.Payment) (*domain.Invoice, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var invoice domain.Invoice
	err = tx.QueryRow(ctx, `
		SELECT id, invoice_number, customer_id, total_amount, paid_amount, balance, status, created_at, updated_at
		FROM invoices
		WHERE id = $1 AND deleted_at IS NULL
		FOR UPDATE
	`, payment.InvoiceID).Scan(
		&invoice.ID, &invoice.InvoiceNumber, &invoice.CustomerID, &invoice.TotalAmount,
		&invoice.PaidAmount, &invoice.Balance, &invoice.Status, &invoice.CreatedAt, &invoice.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock invoice: %w", err)
	}

	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO payments (id, invoice_id, amount, method, note)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, payment.ID, payment.InvoiceID, payment.Amount, payment.Method, payment.Note).Scan(&payment.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert payment: %w", err)
	}

	invoice.PaidAmount = invoice.PaidAmount.Add(payment.Amount)
	invoice.Balance = invoice.TotalAmount.Sub(invoice.PaidAmount)
	switch {
	case invoice.PaidAmount.IsZero():
		invoice.Status = domain.InvoiceStatusUnpaid
	case invoice.Balance.IsPositive():
		invoice.Status = domain.InvoiceStatusPartial
	default:
		invoice.Status = domain.InvoiceStatusPaid
	}

	err = tx.QueryRow(ctx, `
		UPDATE invoices
		SET paid_amount = $1, balance = $2, status = $3, updated_at = now()
		WHERE id = $4
		RETURNING updated_at
	`, invoice.PaidAmount, invoice.Balance, invoice.Status, invoice.ID).Scan(&invoice.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update invoice balance: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &invoice, nil
}

// ListInvoices retrieves invoices with optional filters and pagination
func (r *PostgresInvoiceRepository) ListInvoices(ctx context.Context, filter domain.InvoiceFilter) (*domain.PaginatedInvoices, error) {
	result := &domain.PaginatedInvoices{
		Data:       []domain.Invoice{},
		Pagination: domain.Pagination{},
	}

	// Set default pagination values if not provided
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 10
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}

	base := sq.Select().From("invoices").
		Where(sq.Eq{"deleted_at": nil}).
		PlaceholderFormat(sq.Dollar)
	if filter.CustomerID != "" {
		base = base.Where(sq.Eq{"customer_id": filter.CustomerID})
	}
	if filter.Status != "" {
		base = base.Where(sq.Eq{"status": filter.Status})
	}
	if filter.StartDate != nil {
		base = base.Where(sq.GtOrEq{"created_at": *filter.StartDate})
	}
	if filter.EndDate != nil {
		base = base.Where(sq.LtOrEq{"created_at": *filter.EndDate})
	}

	countSQL, countArgs, err := base.Columns("COUNT(*)").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build count query: %w", err)
	}

	var totalItems int
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&totalItems); err != nil {
		return nil, fmt.Errorf("failed to count invoices: %w", err)
	}

	result.Pagination.TotalItems = totalItems
	result.Pagination.Limit = filter.Limit
	result.Pagination.CurrentPage = filter.Page
	result.Pagination.TotalPages = int(math.Ceil(float64(totalItems) / float64(filter.Limit)))

	if totalItems == 0 {
		return result, nil
	}

	offset := (filter.Page - 1) * filter.Limit
	listSQL, listArgs, err := base.
		Columns("id", "invoice_number", "customer_id", "total_amount", "paid_amount", "balance", "status", "created_at", "updated_at").
		OrderBy("created_at DESC").
		Limit(uint64(filter.Limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list query: %w", err)
	}

	rows, err := r.db.Query(ctx, listSQL, listArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var invoice domain.Invoice
		if err := rows.Scan(
			&invoice.ID, &invoice.InvoiceNumber, &invoice.CustomerID, &invoice.TotalAmount,
			&invoice.PaidAmount, &invoice.Balance, &invoice.Status, &invoice.CreatedAt, &invoice.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoice.Items = []domain.InvoiceItem{}
		result.Data = append(result.Data, invoice)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invoices: %w", err)
	}

	if len(result.Data) == 0 {
		return result, nil
	}

	invoiceMap := make(map[string]*domain.Invoice, len(result.Data))
	invoiceIDs := make([]string, 0, len(result.Data))
	for i := range result.Data {
		invoiceMap[result.Data[i].ID] = &result.Data[i]
		invoiceIDs = append(invoiceIDs, result.Data[i].ID)
	}

	// Fetch items for the whole page in one query
	itemSQL, itemArgs, err := sq.Select("id", "invoice_id", "description", "qty", "unit_price", "line_total").
		From("invoice_items").
		Where(sq.Eq{"invoice_id": invoiceIDs}).
		OrderBy("invoice_id", "id").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build items query: %w", err)
	}

	itemRows, err := r.db.Query(ctx, itemSQL, itemArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoice items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var item domain.InvoiceItem
		if err := itemRows.Scan(
			&item.ID, &item.InvoiceID, &item.Description, &item.Quantity, &item.UnitPrice, &item.LineTotal,
		); err != nil {
			return nil, fmt.Errorf("failed to scan invoice item: %w", err)
		}
		if invoice, ok := invoiceMap[item.InvoiceID]; ok {
			invoice.Items = append(invoice.Items, item)
		}
	}

	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invoice items: %w", err)
	}

	return result, nil
}

// invoiceItems loads the items of one invoice
func (r *PostgresInvoiceRepository) invoiceItems(ctx context.Context, invoiceID string) ([]domain.InvoiceItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, invoice_id, description, qty, unit_price, line_total
		FROM invoice_items
		WHERE invoice_id = $1
		ORDER BY id
	`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoice items: %w", err)
	}
	defer rows.Close()

	items := []domain.InvoiceItem{}
	for rows.Next() {
		var item domain.InvoiceItem
		if err := rows.Scan(&item.ID, &item.InvoiceID, &item.Description, &item.Quantity, &item.UnitPrice, &item.LineTotal); err != nil {
			return nil, fmt.Errorf("failed to scan invoice item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invoice items: %w", err)
	}

	return items, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
