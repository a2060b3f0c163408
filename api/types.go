package api

import (
	"context"
	"io"

	"abcretail/domain"
)

// Gateway abstracts the storage account for handlers.
type Gateway interface {
	GetCustomer(ctx context.Context, id string) (*domain.Customer, error)
	ListCustomers(ctx context.Context) ([]domain.Customer, error)
	AddCustomer(ctx context.Context, c domain.Customer) error
	UpdateCustomer(ctx context.Context, c domain.Customer) error
	DeleteCustomer(ctx context.Context, id string) error

	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	AddProduct(ctx context.Context, p domain.Product) error
	UpdateProduct(ctx context.Context, p domain.Product) error
	DeleteProduct(ctx context.Context, id string) error

	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	ListOrders(ctx context.Context) ([]domain.Order, error)
	AddOrder(ctx context.Context, o domain.Order) error
	UpdateOrder(ctx context.Context, o domain.Order) error
	DeleteOrder(ctx context.Context, id string) error

	UploadBlob(ctx context.Context, container, filename string, content io.Reader) (string, error)
	DeleteBlob(ctx context.Context, container, name string) (bool, error)

	Send(ctx context.Context, queue, message string) error
	QueueLength(ctx context.Context, queue string) (int32, error)

	UploadToShare(ctx context.Context, share, dirPath, name string, content []byte) error
	DownloadFromShare(ctx context.Context, share, dirPath, name string) (io.ReadCloser, error)
}
