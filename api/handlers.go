package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"abcretail/domain"
	"abcretail/storage"
)

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, store Gateway, logger *log.Logger) {
	e.GET("/api/customers", listCustomers(store))
	e.POST("/api/customers", createCustomer(store))
	e.GET("/api/customers/:id", getCustomer(store))
	e.PUT("/api/customers/:id", updateCustomer(store))
	e.DELETE("/api/customers/:id", deleteCustomer(store))

	e.GET("/api/products", listProducts(store))
	e.POST("/api/products", createProduct(store, logger))
	e.GET("/api/products/:id", getProduct(store))
	e.PUT("/api/products/:id", updateProduct(store, logger))
	e.DELETE("/api/products/:id", deleteProduct(store))

	e.GET("/api/orders", listOrders(store))
	e.POST("/api/orders", createOrder(store, logger))
	e.GET("/api/orders/:id", getOrder(store))
	e.PUT("/api/orders/:id", updateOrderStatus(store))
	e.DELETE("/api/orders/:id", deleteOrder(store))

	e.POST("/api/uploads", uploadPaymentProof(store, logger))
	e.POST("/api/reports/:name", uploadReport(store))
	e.GET("/api/reports/:name", downloadReport(store))

	e.GET("/api/home", home(store, logger))
	e.GET("/healthz", healthz())
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

type homeResponse struct {
	FeaturedProducts []domain.Product `json:"featuredProducts"`
	CustomerCount    int              `json:"customerCount"`
	ProductCount     int              `json:"productCount"`
	OrderCount       int              `json:"orderCount"`
	PendingOrders    int32            `json:"pendingOrders"`
}

const featuredProductCount = 5

func home(store Gateway, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		customers, err := store.ListCustomers(ctx)
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, "failed to load dashboard")
		}
		products, err := store.ListProducts(ctx)
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, "failed to load dashboard")
		}
		orders, err := store.ListOrders(ctx)
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, "failed to load dashboard")
		}

		featured := products
		if len(featured) > featuredProductCount {
			featured = featured[:featuredProductCount]
		}

		resp := homeResponse{
			FeaturedProducts: featured,
			CustomerCount:    len(customers),
			ProductCount:     len(products),
			OrderCount:       len(orders),
		}
		// The pending-order gauge is best effort; the dashboard still
		// renders without it.
		if n, err := store.QueueLength(ctx, storage.QueueOrders); err == nil {
			resp.PendingOrders = n
		} else {
			logger.Warnf("order queue length: %v", err)
		}
		return c.JSON(http.StatusOK, resp)
	}
}
