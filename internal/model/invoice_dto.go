package model

import (
	"github.com/shopspring/decimal"

	"kertas/internal/domain"
)

// InvoiceItemInput represents one line of an invoice creation request
type InvoiceItemInput struct {
	Description string          `json:"description" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice   decimal.Decimal `json:"unitPrice" binding:"required"`
}

// CreateInvoiceRequest represents an incoming invoice creation request.
// The invoice number is never accepted from the client; it is allocated
// at insert time.
type CreateInvoiceRequest struct {
	CustomerID string             `json:"customerId" binding:"required"`
	Items      []InvoiceItemInput `json:"items" binding:"required,min=1"`
}

// ToDomain converts the request into a domain invoice
func (r *CreateInvoiceRequest) ToDomain() *domain.Invoice {
	invoice := domain.NewInvoice(r.CustomerID)
	for _, item := range r.Items {
		invoice.AddItem(domain.InvoiceItem{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.UnitPrice.Mul(item.Quantity),
		})
	}
	return invoice
}

// RecordPaymentRequest represents an incoming payment against an invoice
type RecordPaymentRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Method string          `json:"method" binding:"required"`
	Note   string          `json:"note"`
}

// CustomerRequest represents an incoming customer create/update request
type CustomerRequest struct {
	Name    string `json:"name" binding:"required"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// ErrorDetail represents a single field-level error
type ErrorDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorResponse represents a standardized error payload
type ErrorResponse struct {
	Status  string        `json:"status"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details,omitempty"`
}
