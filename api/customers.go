package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"abcretail/domain"
	"abcretail/storage"
)

const maxBodySize = 1 << 20

func decodeBody(c echo.Context, v any) error {
	lr := io.LimitReader(c.Request().Body, maxBodySize)
	dec := sonic.ConfigStd.NewDecoder(lr)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

type customerRequest struct {
	Name     string `json:"name"`
	Surname  string `json:"surname"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

func listCustomers(store Gateway) echo.HandlerFunc {
	return func(c echo.Context) error {
		customers, err := store.ListCustomers(c.Request().Context())
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, "failed to load customers")
		}
		return c.JSON(http.StatusOK, customers)
	}
}

func createCustomer(store Gateway) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req customerRequest
		if err := decodeBody(c, &req); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		if req.Username == "" {
			return c.String(http.StatusBadRequest, "username is required")
		}
		customer := domain.Customer{
			ID:       uuid.NewString(),
			Name:     req.Name,
			Surname:  req.Surname,
			Username: req.Username,
			Email:    req.Email,
			Phone:    req.Phone,
		}
		if err := store.AddCustomer(c.Request().Context(), customer); err != nil {
			if errors.Is(err, storage.ErrEntityExists) {
				return c.String(http.StatusConflict, "customer already exists")
			}
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, "failed to create customer")
		}
		return c.JSON(http.StatusCreated, customer)
	}
}

func getCustomer(store Gateway) echo.HandlerFunc {
	return func(c echo.Context) error {
		customer, err := store.GetCustomer(c.Request().Context(), c.Param("id"))
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, "failed to load customer")
		}
		if customer == nil {
			return c.String(http.StatusNotFound, "customer not found")
		}
		return c.JSON(http.StatusOK, customer)
	}
}

func updateCustomer(store Gateway) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req customerRequest
		if err := decodeBody(c, &req); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		ctx := c.Request().Context()
		current, err := store.GetCustomer(ctx, c.Param("id"))
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, "failed to load customer")
		}
		if current == nil {
			return c.String(http.StatusNotFound, "customer not found")
		}
		current.Name = req.Name
		current.Surname = req.Surname
		current.Username = req.Username
		current.Email = req.Email
		current.Phone = req.Phone
		if err := store.UpdateCustomer(ctx, *current); err != nil {
			if errors.Is(err, domain.ErrConcurrencyConflict) {
				return c.String(http.StatusConflict, "customer was modified concurrently")
			}
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, "failed to update customer")
		}
		return c.JSON(http.StatusOK, current)
	}
}

func deleteCustomer(store Gateway) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := store.DeleteCustomer(c.Request().Context(), c.Param("id")); err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, "failed to delete customer")
		}
		return c.NoContent(http.StatusNoContent)
	}
}
