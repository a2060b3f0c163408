package api

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"abcretail/domain"
	"abcretail/storage"
)

func listProducts(store Gateway) echo.HandlerFunc {
	return func(c echo.Context) error {
		products, err := store.ListProducts(c.Request().Context())
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, "failed to load products")
		}
		return c.JSON(http.StatusOK, products)
	}
}

func getProduct(store Gateway) echo.HandlerFunc {
	return func(c echo.Context) error {
		product, err := store.GetProduct(c.Request().Context(), c.Param("id"))
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, "failed to load product")
		}
		if product == nil {
			return c.String(http.StatusNotFound, "product not found")
		}
		return c.JSON(http.StatusOK, product)
	}
}

// productForm reads the multipart fields shared by create and update.
func productForm(c echo.Context) (domain.Product, *multipart.FileHeader, error) {
	price, err := decimal.NewFromString(c.FormValue("price"))
	if err != nil {
		return domain.Product{}, nil, errors.New("invalid price")
	}
	stock := 0
	if v := c.FormValue("stock"); v != "" {
		stock, err = strconv.Atoi(v)
		if err != nil || stock < 0 {
			return domain.Product{}, nil, errors.New("invalid stock")
		}
	}
	p := domain.Product{
		Name:        c.FormValue("name"),
		Description: c.FormValue("description"),
		Price:       price,
		Stock:       stock,
	}
	if p.Name == "" {
		return domain.Product{}, nil, errors.New("name is required")
	}
	// The image is optional; a missing file section is treated as absent.
	image, err := c.FormFile("image")
	if err != nil {
		return p, nil, nil
	}
	if err := validateUpload(image); err != nil {
		return domain.Product{}, nil, err
	}
	return p, image, nil
}

func storeImage(c echo.Context, store Gateway, image *multipart.FileHeader) (string, error) {
	src, err := image.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()
	return store.UploadBlob(c.Request().Context(), storage.ContainerProductImages, image.Filename, src)
}

func createProduct(store Gateway, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		product, image, err := productForm(c)
		if err != nil {
			return c.String(http.StatusBadRequest, err.Error())
		}
		product.ID = uuid.NewString()
		if image != nil {
			url, err := storeImage(c, store, image)
			if err != nil {
				logger.Errorf("product image upload: %v", err)
				return c.String(http.StatusInternalServerError, "failed to store image")
			}
			product.ImageURL = url
		}
		if err := store.AddProduct(c.Request().Context(), product); err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, "failed to create product")
		}
		return c.JSON(http.StatusCreated, product)
	}
}

func updateProduct(store Gateway, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		current, err := store.GetProduct(ctx, c.Param("id"))
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, "failed to load product")
		}
		if current == nil {
			return c.String(http.StatusNotFound, "product not found")
		}
		product, image, err := productForm(c)
		if err != nil {
			return c.String(http.StatusBadRequest, err.Error())
		}
		product.ID = current.ID
		product.ETag = current.ETag
		product.ImageURL = current.ImageURL
		if image != nil {
			url, err := storeImage(c, store, image)
			if err != nil {
				logger.Errorf("product image upload: %v", err)
				return c.String(http.StatusInternalServerError, "failed to store image")
			}
			product.ImageURL = url
		}
		if err := store.UpdateProduct(ctx, product); err != nil {
			if errors.Is(err, domain.ErrConcurrencyConflict) {
				return c.String(http.StatusConflict, "product was modified concurrently")
			}
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, "failed to update product")
		}
		return c.JSON(http.StatusOK, product)
	}
}

func deleteProduct(store Gateway) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := store.DeleteProduct(c.Request().Context(), c.Param("id")); err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, "failed to delete product")
		}
		return c.NoContent(http.StatusNoContent)
	}
}
