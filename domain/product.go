package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog item. Price is fixed-point; ImageURL points into
// the product-images blob container.
type Product struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	Price        decimal.Decimal `json:"price"`
	Stock        int             `json:"stock"`
	ImageURL     string          `json:"imageUrl,omitempty"`
	ETag         string          `json:"etag,omitempty"`
	LastModified time.Time       `json:"lastModified,omitempty"`
}
