package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"kertas/internal/domain"
	"kertas/internal/logger"
	"kertas/internal/numbering"
	"kertas/internal/repository"
)

// InvoiceService defines the interface for invoice business logic
type InvoiceService interface {
	// CreateInvoice allocates a fresh invoice number and persists the
	// invoice atomically. Returns domain.ErrAllocationExhausted when every
	// allocation attempt lost the race for a number.
	CreateInvoice(ctx context.Context, invoice *domain.Invoice) (*domain.Invoice, error)

	GetInvoiceByID(ctx context.Context, invoiceID string) (*domain.Invoice, error)
	ListInvoices(ctx context.Context, filter domain.InvoiceFilter) (*domain.PaginatedInvoices, error)
	DeleteInvoice(ctx context.Context, invoiceID string) error
	RecordPayment(ctx context.Context, payment *domain.Payment) (*domain.Invoice, error)
}

// InvoiceServiceImpl implements the InvoiceService interface
type InvoiceServiceImpl struct {
	invoices  repository.InvoiceRepository
	customers repository.CustomerRepository
	log       zerolog.Logger
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(invoices repository.InvoiceRepository, customers repository.CustomerRepository) InvoiceService {
	return &InvoiceServiceImpl{
		invoices:  invoices,
		customers: customers,
		log:       logger.WithComponent("invoice_service"),
	}
}

// CreateInvoice assigns the next free invoice number and inserts the
// invoice. The number is never chosen by read-then-write alone: the insert
// itself is the allocation, guarded by the database unique constraint, and
// the loop here only resolves insert conflicts. Bounded by
// numbering.MaxAttempts so contention surfaces as an explicit failure
// instead of a silent duplicate.
func (s *InvoiceServiceImpl) CreateInvoice(ctx context.Context, invoice *domain.Invoice) (*domain.Invoice, error) {
	if invoice.CustomerID == "" {
		return nil, fmt.Errorf("%w: customer id is required", domain.ErrInvalidArgument)
	}
	if len(invoice.Items) == 0 {
		return nil, fmt.Errorf("%w: invoice needs at least one item", domain.ErrInvalidArgument)
	}

	if s.customers != nil {
		if _, err := s.customers.GetCustomerByID(ctx, invoice.CustomerID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("%w: unknown customer %s", domain.ErrInvalidArgument, invoice.CustomerID)
			}
			return nil, err
		}
	}

	invoice.RecalculateTotals()

	base, err := s.invoices.MaxInvoiceNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read current max invoice number: %w", err)
	}

	for attempt := 1; attempt <= numbering.MaxAttempts; attempt++ {
		candidate := numbering.Next(base)
		invoice.InvoiceNumber = candidate

		created, err := s.invoices.CreateInvoice(ctx, invoice)
		if err == nil {
			s.log.Info().
				Str("invoice_id", created.ID).
				Str("invoice_number", created.InvoiceNumber).
				Int("attempt", attempt).
				Msg("invoice created")
			return created, nil
		}
		if !errors.Is(err, domain.ErrNumberTaken) {
			return nil, err
		}

		s.log.Warn().
			Str("candidate", candidate).
			Int("attempt", attempt).
			Msg("invoice number conflict, retrying with next candidate")

		// Advance past the taken candidate. A concurrent writer owns it
		// now, so the next insert tries candidate+1.
		base, _ = numbering.BaseNumber(candidate)
	}

	return nil, domain.ErrAllocationExhausted
}

// GetInvoiceByID retrieves an invoice by its ID
func (s *InvoiceServiceImpl) GetInvoiceByID(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	return s.invoices.GetInvoiceByID(ctx, invoiceID)
}

// ListInvoices retrieves invoices with optional filters and pagination
func (s *InvoiceServiceImpl) ListInvoices(ctx context.Context, filter domain.InvoiceFilter) (*domain.PaginatedInvoices, error) {
	return s.invoices.ListInvoices(ctx, filter)
}

// DeleteInvoice soft-deletes an invoice
func (s *InvoiceServiceImpl) DeleteInvoice(ctx context.Context, invoiceID string) error {
	return s.invoices.DeleteInvoice(ctx, invoiceID)
}

// RecordPayment records money received against an invoice and returns the
// invoice with its updated balance and status
func (s *InvoiceServiceImpl) RecordPayment(ctx context.Context, payment *domain.Payment) (*domain.Invoice, error) {
	if payment.InvoiceID == "" {
		return nil, fmt.Errorf("%w: invoice id is required", domain.ErrInvalidArgument)
	}
	if !payment.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: payment amount must be positive", domain.ErrInvalidArgument)
	}

	return s.invoices.RecordPayment(ctx, payment)
}
