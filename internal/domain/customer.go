package domain

import "time"

// Customer represents a buyer that invoices are issued to. A customer does
// not own the lifecycle of its invoices; deleting a customer is rejected
// while non-deleted invoices still reference it.
type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CustomerFilter holds optional filters for listing customers
type CustomerFilter struct {
	Name  string
	Page  int
	Limit int
}
