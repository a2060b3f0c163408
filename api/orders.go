package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"abcretail/domain"
	"abcretail/storage"
)

type createOrderRequest struct {
	CustomerID string `json:"customerId"`
	ProductID  string `json:"productId"`
	Quantity   int    `json:"quantity"`
}

type updateOrderRequest struct {
	Status string `json:"status"`
}

func listOrders(store Gateway) echo.HandlerFunc {
	return func(c echo.Context) error {
		orders, err := store.ListOrders(c.Request().Context())
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, "failed to load orders")
		}
		return c.JSON(http.StatusOK, orders)
	}
}

func getOrder(store Gateway) echo.HandlerFunc {
	return func(c echo.Context) error {
		order, err := store.GetOrder(c.Request().Context(), c.Param("id"))
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, "failed to load order")
		}
		if order == nil {
			return c.String(http.StatusNotFound, "order not found")
		}
		return c.JSON(http.StatusOK, order)
	}
}

func createOrder(store Gateway, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req createOrderRequest
		if err := decodeBody(c, &req); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		if req.Quantity <= 0 {
			return c.String(http.StatusBadRequest, "quantity must be positive")
		}

		ctx := c.Request().Context()
		customer, err := store.GetCustomer(ctx, req.CustomerID)
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, "failed to load customer")
		}
		product, err := store.GetProduct(ctx, req.ProductID)
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, "failed to load product")
		}
		if customer == nil || product == nil {
			return c.String(http.StatusBadRequest, "invalid product or customer")
		}

		order := domain.NewOrder(*customer, *product, req.Quantity)
		if err := store.AddOrder(ctx, order); err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, "failed to create order")
		}

		// The queue write is a separate, non-transactional call: on failure
		// the order still exists and the processor will simply never see
		// this message.
		if err := store.Send(ctx, storage.QueueOrders, order.ID); err != nil {
			logger.Errorf("enqueue order %s: %v", order.ID, err)
		}

		return c.JSON(http.StatusCreated, order)
	}
}

// updateOrderStatus changes only the status; the price snapshot taken at
// creation is never recomputed.
func updateOrderStatus(store Gateway) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req updateOrderRequest
		if err := decodeBody(c, &req); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		if req.Status == "" {
			return c.String(http.StatusBadRequest, "status is required")
		}
		ctx := c.Request().Context()
		order, err := store.GetOrder(ctx, c.Param("id"))
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, "failed to load order")
		}
		if order == nil {
			return c.String(http.StatusNotFound, "order not found")
		}
		order.Status = req.Status
		if err := store.UpdateOrder(ctx, *order); err != nil {
			if errors.Is(err, domain.ErrConcurrencyConflict) {
				return c.String(http.StatusConflict, "order was modified concurrently")
			}
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, "failed to update order")
		}
		return c.JSON(http.StatusOK, order)
	}
}

func deleteOrder(store Gateway) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := store.DeleteOrder(c.Request().Context(), c.Param("id")); err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, "failed to delete order")
		}
		return c.NoContent(http.StatusNoContent)
	}
}
