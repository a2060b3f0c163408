package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/shopspring/decimal"

	"abcretail/domain"
)

// tableEntity carries the key and system columns shared by every row.
type tableEntity struct {
	aztables.Entity
	ETag string `json:"odata.etag,omitempty"`
}

type customerEntity struct {
	tableEntity
	Name     string `json:"Name"`
	Surname  string `json:"Surname"`
	Username string `json:"Username"`
	Email    string `json:"Email"`
	Phone    string `json:"Phone"`
}

type productEntity struct {
	tableEntity
	Name        string `json:"ProductName"`
	Description string `json:"Description"`
	Price       string `json:"Price"`
	Stock       int    `json:"StockAvailable"`
	ImageURL    string `json:"ImageUrl"`
}

type orderEntity struct {
	tableEntity
	CustomerID  string `json:"CustomerId"`
	Username    string `json:"Username"`
	ProductID   string `json:"ProductId"`
	ProductName string `json:"ProductName"`
	Quantity    int    `json:"Quantity"`
	UnitPrice   string `json:"UnitPrice"`
	TotalPrice  string `json:"TotalPrice"`
	Status      string `json:"Status"`
	OrderDate   string `json:"OrderDate"`
}

func (g *Gateway) keys(kind Kind, id string) tableEntity {
	return tableEntity{Entity: aztables.Entity{
		PartitionKey: g.bindings[kind].PartitionKey,
		RowKey:       id,
	}}
}

// getEntity fetches a single row. A 404 from the service is reported as a
// nil payload, not an error.
func (g *Gateway) getEntity(ctx context.Context, kind Kind, id string) ([]byte, error) {
	b := g.bindings[kind]
	resp, err := g.tables[kind].GetEntity(ctx, b.PartitionKey, id, nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get %s %s: %w", kind, id, err)
	}
	return resp.Value, nil
}

// listEntities scans the kind's partition. Failures propagate so callers
// can tell an empty table from a failed read.
func (g *Gateway) listEntities(ctx context.Context, kind Kind) ([][]byte, error) {
	b := g.bindings[kind]
	filter := "PartitionKey eq '" + b.PartitionKey + "'"
	pager := g.tables[kind].NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	var rows [][]byte
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", kind, err)
		}
		rows = append(rows, resp.Entities...)
	}
	return rows, nil
}

func (g *Gateway) addEntity(ctx context.Context, kind Kind, payload []byte) error {
	if _, err := g.tables[kind].AddEntity(ctx, payload, nil); err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == http.StatusConflict {
			return ErrEntityExists
		}
		return fmt.Errorf("add %s: %w", kind, err)
	}
	return nil
}

func (g *Gateway) updateEntity(ctx context.Context, kind Kind, payload []byte, etag string) error {
	match := azcore.ETagAny
	if g.conditionalUpdates && etag != "" {
		match = azcore.ETag(etag)
	}
	opts := &aztables.UpdateEntityOptions{IfMatch: &match, UpdateMode: aztables.UpdateModeReplace}
	if _, err := g.tables[kind].UpdateEntity(ctx, payload, opts); err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) {
			switch respErr.StatusCode {
			case http.StatusPreconditionFailed:
				return domain.ErrConcurrencyConflict
			case http.StatusNotFound:
				return ErrNotFound
			}
		}
		return fmt.Errorf("update %s: %w", kind, err)
	}
	return nil
}

// deleteEntity removes a row; a missing row counts as success.
func (g *Gateway) deleteEntity(ctx context.Context, kind Kind, id string) error {
	b := g.bindings[kind]
	if _, err := g.tables[kind].DeleteEntity(ctx, b.PartitionKey, id, nil); err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound {
			return nil
		}
		return fmt.Errorf("delete %s %s: %w", kind, id, err)
	}
	return nil
}

func (g *Gateway) encodeCustomer(c domain.Customer) ([]byte, error) {
	ent := customerEntity{
		tableEntity: g.keys(KindCustomer, c.ID),
		Name:        c.Name,
		Surname:     c.Surname,
		Username:    c.Username,
		Email:       c.Email,
		Phone:       c.Phone,
	}
	return json.Marshal(ent)
}

func decodeCustomer(data []byte) (domain.Customer, error) {
	var ent customerEntity
	if err := json.Unmarshal(data, &ent); err != nil {
		return domain.Customer{}, err
	}
	return domain.Customer{
		ID:           ent.RowKey,
		Name:         ent.Name,
		Surname:      ent.Surname,
		Username:     ent.Username,
		Email:        ent.Email,
		Phone:        ent.Phone,
		ETag:         ent.ETag,
		LastModified: time.Time(ent.Timestamp),
	}, nil
}

func (g *Gateway) encodeProduct(p domain.Product) ([]byte, error) {
	ent := productEntity{
		tableEntity: g.keys(KindProduct, p.ID),
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.String(),
		Stock:       p.Stock,
		ImageURL:    p.ImageURL,
	}
	return json.Marshal(ent)
}

func decodeProduct(data []byte) (domain.Product, error) {
	var ent productEntity
	if err := json.Unmarshal(data, &ent); err != nil {
		return domain.Product{}, err
	}
	price, err := decimal.NewFromString(ent.Price)
	if err != nil {
		return domain.Product{}, fmt.Errorf("product %s: bad price %q: %w", ent.RowKey, ent.Price, err)
	}
	return domain.Product{
		ID:           ent.RowKey,
		Name:         ent.Name,
		Description:  ent.Description,
		Price:        price,
		Stock:        ent.Stock,
		ImageURL:     ent.ImageURL,
		ETag:         ent.ETag,
		LastModified: time.Time(ent.Timestamp),
	}, nil
}

func (g *Gateway) encodeOrder(o domain.Order) ([]byte, error) {
	ent := orderEntity{
		tableEntity: g.keys(KindOrder, o.ID),
		CustomerID:  o.CustomerID,
		Username:    o.Username,
		ProductID:   o.ProductID,
		ProductName: o.ProductName,
		Quantity:    o.Quantity,
		UnitPrice:   o.UnitPrice.String(),
		TotalPrice:  o.Total.String(),
		Status:      o.Status,
		OrderDate:   o.OrderDate.UTC().Format(time.RFC3339Nano),
	}
	return json.Marshal(ent)
}

func decodeOrder(data []byte) (domain.Order, error) {
	var ent orderEntity
	if err := json.Unmarshal(data, &ent); err != nil {
		return domain.Order{}, err
	}
	unit, err := decimal.NewFromString(ent.UnitPrice)
	if err != nil {
		return domain.Order{}, fmt.Errorf("order %s: bad unit price %q: %w", ent.RowKey, ent.UnitPrice, err)
	}
	total, err := decimal.NewFromString(ent.TotalPrice)
	if err != nil {
		return domain.Order{}, fmt.Errorf("order %s: bad total %q: %w", ent.RowKey, ent.TotalPrice, err)
	}
	orderDate, err := time.Parse(time.RFC3339Nano, ent.OrderDate)
	if err != nil {
		return domain.Order{}, fmt.Errorf("order %s: bad order date %q: %w", ent.RowKey, ent.OrderDate, err)
	}
	return domain.Order{
		ID:           ent.RowKey,
		CustomerID:   ent.CustomerID,
		Username:     ent.Username,
		ProductID:    ent.ProductID,
		ProductName:  ent.ProductName,
		Quantity:     ent.Quantity,
		UnitPrice:    unit,
		Total:        total,
		Status:       ent.Status,
		OrderDate:    orderDate,
		ETag:         ent.ETag,
		LastModified: time.Time(ent.Timestamp),
	}, nil
}

// GetCustomer fetches a customer by id; absent rows return (nil, nil).
func (g *Gateway) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	data, err := g.getEntity(ctx, KindCustomer, id)
	if err != nil || data == nil {
		return nil, err
	}
	c, err := decodeCustomer(data)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCustomers scans the customer partition.
func (g *Gateway) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	rows, err := g.listEntities(ctx, KindCustomer)
	if err != nil {
		return nil, err
	}
	customers := make([]domain.Customer, 0, len(rows))
	for _, row := range rows {
		c, err := decodeCustomer(row)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, nil
}

// AddCustomer inserts a new customer row; ErrEntityExists on key conflict.
func (g *Gateway) AddCustomer(ctx context.Context, c domain.Customer) error {
	payload, err := g.encodeCustomer(c)
	if err != nil {
		return err
	}
	return g.addEntity(ctx, KindCustomer, payload)
}

// UpdateCustomer replaces an existing customer row.
func (g *Gateway) UpdateCustomer(ctx context.Context, c domain.Customer) error {
	payload, err := g.encodeCustomer(c)
	if err != nil {
		return err
	}
	return g.updateEntity(ctx, KindCustomer, payload, c.ETag)
}

// DeleteCustomer removes a customer row; deleting a missing row succeeds.
func (g *Gateway) DeleteCustomer(ctx context.Context, id string) error {
	return g.deleteEntity(ctx, KindCustomer, id)
}

// GetProduct fetches a product by id; absent rows return (nil, nil).
func (g *Gateway) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	data, err := g.getEntity(ctx, KindProduct, id)
	if err != nil || data == nil {
		return nil, err
	}
	p, err := decodeProduct(data)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProducts scans the product partition.
func (g *Gateway) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := g.listEntities(ctx, KindProduct)
	if err != nil {
		return nil, err
	}
	products := make([]domain.Product, 0, len(rows))
	for _, row := range rows {
		p, err := decodeProduct(row)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

func (g *Gateway) AddProduct(ctx context.Context, p domain.Product) error {
	payload, err := g.encodeProduct(p)
	if err != nil {
		return err
	}
	return g.addEntity(ctx, KindProduct, payload)
}

func (g *Gateway) UpdateProduct(ctx context.Context, p domain.Product) error {
	payload, err := g.encodeProduct(p)
	if err != nil {
		return err
	}
	return g.updateEntity(ctx, KindProduct, payload, p.ETag)
}

func (g *Gateway) DeleteProduct(ctx context.Context, id string) error {
	return g.deleteEntity(ctx, KindProduct, id)
}

// GetOrder fetches an order by id; absent rows return (nil, nil).
func (g *Gateway) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	data, err := g.getEntity(ctx, KindOrder, id)
	if err != nil || data == nil {
		return nil, err
	}
	o, err := decodeOrder(data)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// ListOrders scans the order partition.
func (g *Gateway) ListOrders(ctx context.Context) ([]domain.Order, error) {
	rows, err := g.listEntities(ctx, KindOrder)
	if err != nil {
		return nil, err
	}
	orders := make([]domain.Order, 0, len(rows))
	for _, row := range rows {
		o, err := decodeOrder(row)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func (g *Gateway) AddOrder(ctx context.Context, o domain.Order) error {
	payload, err := g.encodeOrder(o)
	if err != nil {
		return err
	}
	return g.addEntity(ctx, KindOrder, payload)
}

func (g *Gateway) UpdateOrder(ctx context.Context, o domain.Order) error {
	payload, err := g.encodeOrder(o)
	if err != nil {
		return err
	}
	return g.updateEntity(ctx, KindOrder, payload, o.ETag)
}

func (g *Gateway) DeleteOrder(ctx context.Context, id string) error {
	return g.deleteEntity(ctx, KindOrder, id)
}
