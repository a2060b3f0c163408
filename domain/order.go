package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order statuses. Status is free text in storage; these are the values
// the application itself writes.
const (
	StatusPending    = "Pending"
	StatusProcessing = "Processing"
)

// Order is a denormalized snapshot of a purchase: customer and product
// details are copied at creation time and never re-read, so the total
// stays fixed even if the product price changes later.
type Order struct {
	ID           string          `json:"id"`
	CustomerID   string          `json:"customerId"`
	Username     string          `json:"username"`
	ProductID    string          `json:"productId"`
	ProductName  string          `json:"productName"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	Total        decimal.Decimal `json:"total"`
	Status       string          `json:"status"`
	OrderDate    time.Time       `json:"orderDate"`
	ETag         string          `json:"etag,omitempty"`
	LastModified time.Time       `json:"lastModified,omitempty"`
}

// NewOrder builds a pending order, snapshotting the customer's username
// and the product's name and unit price. Total is computed once here.
func NewOrder(customer Customer, product Product, quantity int) Order {
	return Order{
		ID:          uuid.NewString(),
		CustomerID:  customer.ID,
		Username:    customer.Username,
		ProductID:   product.ID,
		ProductName: product.Name,
		Quantity:    quantity,
		UnitPrice:   product.Price,
		Total:       product.Price.Mul(decimal.NewFromInt(int64(quantity))),
		Status:      StatusPending,
		OrderDate:   time.Now().UTC(),
	}
}
