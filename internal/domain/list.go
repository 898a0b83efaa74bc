package domain

import "time"

// InvoiceFilter holds optional filters and pagination for listing invoices
type InvoiceFilter struct {
	CustomerID string
	Status     InvoiceStatus
	StartDate  *time.Time
	EndDate    *time.Time
	Page       int
	Limit      int
}

// Pagination holds pagination metadata for list responses
type Pagination struct {
	TotalItems  int `json:"totalItems"`
	TotalPages  int `json:"totalPages"`
	CurrentPage int `json:"currentPage"`
	Limit       int `json:"limit"`
}

// PaginatedInvoices is a page of invoices with pagination metadata
type PaginatedInvoices struct {
	Data       []Invoice  `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// PaginatedCustomers is a page of customers with pagination metadata
type PaginatedCustomers struct {
	Data       []Customer `json:"data"`
	Pagination Pagination `json:"pagination"`
}
