package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kertas/internal/domain"
	"kertas/internal/repository"
)

func TestPostgresCustomerRepository_DeleteWithoutInvoices(t *testing.T) {
	db := setupTestDatabase(t)
	customers := repository.NewPostgresCustomerRepository(db)
	customer := newCustomer(t, db)

	require.NoError(t, customers.DeleteCustomer(context.Background(), customer.ID))

	_, err := customers.GetCustomerByID(context.Background(), customer.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPostgresCustomerRepository_DeleteBlockedBySoftDeletedInvoice(t *testing.T) {
	db := setupTestDatabase(t)
	customers := repository.NewPostgresCustomerRepository(db)
	invoices := repository.NewPostgresInvoiceRepository(db)
	customer := newCustomer(t, db)

	created, err := invoices.CreateInvoice(context.Background(), newInvoice(customer.ID, "1000"))
	require.NoError(t, err)
	require.NoError(t, invoices.DeleteInvoice(context.Background(), created.ID))

	// The soft-deleted invoice row still references the customer, so the
	// delete is rejected instead of tripping the foreign key.
	err = customers.DeleteCustomer(context.Background(), customer.ID)
	require.ErrorIs(t, err, domain.ErrCustomerHasInvoices)

	_, err = customers.GetCustomerByID(context.Background(), customer.ID)
	require.NoError(t, err)
}
