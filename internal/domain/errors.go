package domain

import "errors"

var (
	// ErrNotFound is returned when a requested record does not exist
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument is returned for requests that fail validation
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNumberTaken is returned when an invoice insert loses the race for a
	// candidate invoice number. Transient: callers retry with the next one.
	ErrNumberTaken = errors.New("invoice number already taken")

	// ErrAllocationExhausted is returned when every allocation attempt hit a
	// conflict. Fatal to the creation request; surfaced to the caller.
	ErrAllocationExhausted = errors.New("invoice number allocation exhausted")

	// ErrCustomerHasInvoices is returned when deleting a customer that still
	// has non-deleted invoices
	ErrCustomerHasInvoices = errors.New("customer has invoices")
)
