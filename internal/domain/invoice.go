package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the payment state of an invoice
type InvoiceStatus string

const (
	InvoiceStatusUnpaid  InvoiceStatus = "unpaid"
	InvoiceStatusPartial InvoiceStatus = "partial"
	InvoiceStatusPaid    InvoiceStatus = "paid"
)

// InvoiceItem represents a single line on an invoice. Items are owned by
// their invoice and are removed together with it.
type InvoiceItem struct {
	ID          string          `json:"id"`
	InvoiceID   string          `json:"invoiceId"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
}

// Invoice represents the core domain entity for a sales invoice
type Invoice struct {
	ID            string          `json:"id"`
	InvoiceNumber string          `json:"invoiceNumber"`
	CustomerID    string          `json:"customerId"`
	Items         []InvoiceItem   `json:"items"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	PaidAmount    decimal.Decimal `json:"paidAmount"`
	Balance       decimal.Decimal `json:"balance"`
	Status        InvoiceStatus   `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
	DeletedAt     *time.Time      `json:"deletedAt,omitempty"`
}

// Payment represents money received against an invoice
type Payment struct {
	ID        string          `json:"id"`
	InvoiceID string          `json:"invoiceId"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	Note      string          `json:"note,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// NewInvoice creates a new invoice with default values
func NewInvoice(customerID string) *Invoice {
	return &Invoice{
		CustomerID: customerID,
		Items:      make([]InvoiceItem, 0),
		Status:     InvoiceStatusUnpaid,
	}
}

// AddItem adds a new line item to the invoice
func (i *Invoice) AddItem(item InvoiceItem) {
	i.Items = append(i.Items, item)
}

// RecalculateTotals recomputes TotalAmount from the line items and derives
// Balance and Status from the paid amount. Must be called after any change
// to the item set, including item merges during number repair.
func (i *Invoice) RecalculateTotals() {
	total := decimal.Zero
	for idx := range i.Items {
		item := &i.Items[idx]
		if item.LineTotal.IsZero() {
			item.LineTotal = item.UnitPrice.Mul(item.Quantity)
		}
		total = total.Add(item.LineTotal)
	}
	i.TotalAmount = total
	i.Balance = total.Sub(i.PaidAmount)

	switch {
	case i.PaidAmount.IsZero():
		i.Status = InvoiceStatusUnpaid
	case i.Balance.IsPositive():
		i.Status = InvoiceStatusPartial
	default:
		i.Status = InvoiceStatusPaid
	}
}

// IsDeleted reports whether the invoice has been soft-deleted
func (i *Invoice) IsDeleted() bool {
	return i.DeletedAt != nil
}
