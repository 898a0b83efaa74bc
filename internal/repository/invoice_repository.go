package repository

import (
	"context"
	"time"

	"kertas/internal/domain"
)

// InvoiceRepository defines the interface for invoice data operations
type InvoiceRepository interface {
	// CreateInvoice inserts the invoice and its items in one transaction.
	// The invoice number uniqueness is enforced by the database; a
	// conflicting number returns domain.ErrNumberTaken.
	CreateInvoice(ctx context.Context, invoice *domain.Invoice) (*domain.Invoice, error)

	// MaxInvoiceNumber returns the highest numeric base currently assigned
	// to a non-deleted invoice, zero when no parsable number exists.
	MaxInvoiceNumber(ctx context.Context) (int64, error)

	GetInvoiceByID(ctx context.Context, invoiceID string) (*domain.Invoice, error)
	ListInvoices(ctx context.Context, filter domain.InvoiceFilter) (*domain.PaginatedInvoices, error)
	DeleteInvoice(ctx context.Context, invoiceID string) error

	// RecordPayment inserts a payment and updates the invoice's paid
	// amount, balance and status in one transaction.
	RecordPayment(ctx context.Context, payment *domain.Payment) (*domain.Invoice, error)

	// ListAllForRepair returns every non-deleted invoice with its items,
	// ordered by created_at, for the duplicate repair batch.
	ListAllForRepair(ctx context.Context) ([]domain.Invoice, error)

	// MergeInvoices reparents all items from the duplicates onto the
	// canonical invoice, deletes the emptied duplicates and recomputes the
	// canonical totals, all in one transaction.
	MergeInvoices(ctx context.Context, canonicalID string, duplicateIDs []string) error

	// RenumberInvoice reassigns the invoice's number. Subject to the same
	// uniqueness constraint as CreateInvoice.
	RenumberInvoice(ctx context.Context, invoiceID, newNumber string, renumberedAt time.Time) error
}

// CustomerRepository defines the interface for customer data operations
type CustomerRepository interface {
	CreateCustomer(ctx context.Context, customer *domain.Customer) (*domain.Customer, error)
	GetCustomerByID(ctx context.Context, customerID string) (*domain.Customer, error)
	ListCustomers(ctx context.Context, filter domain.CustomerFilter) (*domain.PaginatedCustomers, error)
	UpdateCustomer(ctx context.Context, customer *domain.Customer) (*domain.Customer, error)
	DeleteCustomer(ctx context.Context, customerID string) error
}
