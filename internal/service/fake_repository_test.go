package service_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"kertas/internal/domain"
	"kertas/internal/numbering"
)

// fakeInvoiceRepository is an in-memory InvoiceRepository that enforces
// invoice number uniqueness the way the database constraint does: at
// insert time, under a lock, never via read-then-write.
type fakeInvoiceRepository struct {
	mu       sync.Mutex
	invoices map[string]*domain.Invoice // by ID
	numbers  map[string]string          // number -> invoice ID

	// failCreates forces the next N CreateInvoice calls to report a
	// number conflict regardless of the candidate
	failCreates int
	// failMerge makes MergeInvoices fail for the given canonical ID
	failMerge map[string]bool
}

func newFakeInvoiceRepository() *fakeInvoiceRepository {
	return &fakeInvoiceRepository{
		invoices:  make(map[string]*domain.Invoice),
		numbers:   make(map[string]string),
		failMerge: make(map[string]bool),
	}
}

// seed inserts an invoice directly, bypassing allocation, the way legacy
// data entered the store
func (f *fakeInvoiceRepository) seed(number, customerID string, createdAt time.Time, items ...domain.InvoiceItem) *domain.Invoice {
	f.mu.Lock()
	defer f.mu.Unlock()

	inv := &domain.Invoice{
		ID:            uuid.NewString(),
		InvoiceNumber: number,
		CustomerID:    customerID,
		Items:         items,
		Status:        domain.InvoiceStatusUnpaid,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}
	for i := range inv.Items {
		inv.Items[i].InvoiceID = inv.ID
		if inv.Items[i].ID == "" {
			inv.Items[i].ID = uuid.NewString()
		}
	}
	inv.RecalculateTotals()
	f.invoices[inv.ID] = inv
	f.numbers[number] = inv.ID
	return inv
}

func (f *fakeInvoiceRepository) CreateInvoice(_ context.Context, invoice *domain.Invoice) (*domain.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failCreates > 0 {
		f.failCreates--
		return nil, domain.ErrNumberTaken
	}
	if _, taken := f.numbers[invoice.InvoiceNumber]; taken {
		return nil, domain.ErrNumberTaken
	}

	stored := *invoice
	stored.ID = uuid.NewString()
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	stored.Items = append([]domain.InvoiceItem(nil), invoice.Items...)
	for i := range stored.Items {
		stored.Items[i].InvoiceID = stored.ID
		if stored.Items[i].ID == "" {
			stored.Items[i].ID = uuid.NewString()
		}
	}

	f.invoices[stored.ID] = &stored
	f.numbers[stored.InvoiceNumber] = stored.ID

	out := stored
	return &out, nil
}

func (f *fakeInvoiceRepository) MaxInvoiceNumber(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var max int64
	for number := range f.numbers {
		if n, ok := numbering.BaseNumber(number); ok && n > max {
			max = n
		}
	}
	return max, nil
}

func (f *fakeInvoiceRepository) GetInvoiceByID(_ context.Context, invoiceID string) (*domain.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	inv, ok := f.invoices[invoiceID]
	if !ok || inv.IsDeleted() {
		return nil, domain.ErrNotFound
	}
	out := *inv
	return &out, nil
}

func (f *fakeInvoiceRepository) ListInvoices(context.Context, domain.InvoiceFilter) (*domain.PaginatedInvoices, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	result := &domain.PaginatedInvoices{Data: []domain.Invoice{}}
	for _, inv := range f.invoices {
		if !inv.IsDeleted() {
			result.Data = append(result.Data, *inv)
		}
	}
	result.Pagination.TotalItems = len(result.Data)
	return result, nil
}

func (f *fakeInvoiceRepository) DeleteInvoice(_ context.Context, invoiceID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	inv, ok := f.invoices[invoiceID]
	if !ok || inv.IsDeleted() {
		return domain.ErrNotFound
	}
	now := time.Now()
	inv.DeletedAt = &now
	delete(f.numbers, inv.InvoiceNumber)
	return nil
}

func (f *fakeInvoiceRepository) RecordPayment(_ context.Context, payment *domain.Payment) (*domain.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	inv, ok := f.invoices[payment.InvoiceID]
	if !ok || inv.IsDeleted() {
		return nil, domain.ErrNotFound
	}
	inv.PaidAmount = inv.PaidAmount.Add(payment.Amount)
	inv.RecalculateTotals()
	out := *inv
	return &out, nil
}

func (f *fakeInvoiceRepository) ListAllForRepair(context.Context) ([]domain.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]domain.Invoice, 0, len(f.invoices))
	for _, inv := range f.invoices {
		if inv.IsDeleted() {
			continue
		}
		cp := *inv
		cp.Items = append([]domain.InvoiceItem(nil), inv.Items...)
		out = append(out, cp)
	}
	// Ordered by creation time like the SQL implementation
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].CreatedAt.Before(out[i].CreatedAt) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (f *fakeInvoiceRepository) MergeInvoices(_ context.Context, canonicalID string, duplicateIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failMerge[canonicalID] {
		return fmt.Errorf("simulated merge failure")
	}

	canonical, ok := f.invoices[canonicalID]
	if !ok {
		return domain.ErrNotFound
	}

	for _, id := range duplicateIDs {
		dup, ok := f.invoices[id]
		if !ok {
			return domain.ErrNotFound
		}
		for _, item := range dup.Items {
			item.InvoiceID = canonicalID
			canonical.Items = append(canonical.Items, item)
		}
		// Payments follow their items, like the SQL implementation
		canonical.PaidAmount = canonical.PaidAmount.Add(dup.PaidAmount)
		delete(f.numbers, dup.InvoiceNumber)
		delete(f.invoices, id)
	}
	canonical.RecalculateTotals()
	return nil
}

func (f *fakeInvoiceRepository) RenumberInvoice(_ context.Context, invoiceID, newNumber string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	inv, ok := f.invoices[invoiceID]
	if !ok || inv.IsDeleted() {
		return domain.ErrNotFound
	}
	if owner, taken := f.numbers[newNumber]; taken && owner != invoiceID {
		return domain.ErrNumberTaken
	}
	delete(f.numbers, inv.InvoiceNumber)
	inv.InvoiceNumber = newNumber
	f.numbers[newNumber] = invoiceID
	return nil
}

// fakeCustomerRepository knows a fixed set of customer IDs
type fakeCustomerRepository struct {
	known map[string]bool
}

func newFakeCustomerRepository(ids ...string) *fakeCustomerRepository {
	known := make(map[string]bool, len(ids))
	for _, id := range ids {
		known[id] = true
	}
	return &fakeCustomerRepository{known: known}
}

func (f *fakeCustomerRepository) CreateCustomer(_ context.Context, c *domain.Customer) (*domain.Customer, error) {
	f.known[c.ID] = true
	return c, nil
}

func (f *fakeCustomerRepository) GetCustomerByID(_ context.Context, id string) (*domain.Customer, error) {
	if !f.known[id] {
		return nil, domain.ErrNotFound
	}
	return &domain.Customer{ID: id, Name: "customer " + id}, nil
}

func (f *fakeCustomerRepository) ListCustomers(context.Context, domain.CustomerFilter) (*domain.PaginatedCustomers, error) {
	return &domain.PaginatedCustomers{Data: []domain.Customer{}}, nil
}

func (f *fakeCustomerRepository) UpdateCustomer(_ context.Context, c *domain.Customer) (*domain.Customer, error) {
	if !f.known[c.ID] {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func (f *fakeCustomerRepository) DeleteCustomer(_ context.Context, id string) error {
	if !f.known[id] {
		return domain.ErrNotFound
	}
	delete(f.known, id)
	return nil
}
