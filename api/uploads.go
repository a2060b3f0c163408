package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"abcretail/storage"
)

// Upload acceptance policy. The gateway itself accepts anything; callers
// enforce this before handing content over.
const maxUploadSize = 10 << 20

var allowedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".pdf":  {},
}

func validateUpload(h *multipart.FileHeader) error {
	ext := strings.ToLower(path.Ext(h.Filename))
	if _, ok := allowedExtensions[ext]; !ok {
		return errors.New("only JPG, PNG and PDF files are allowed")
	}
	if h.Size > maxUploadSize {
		return errors.New("file size must be less than 10MB")
	}
	return nil
}

type uploadResponse struct {
	URL string `json:"url"`
}

// uploadPaymentProof stores a proof-of-payment document and notifies the
// notification queue. Queue failure does not undo the upload.
func uploadPaymentProof(store Gateway, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		file, err := c.FormFile("proofOfPayment")
		if err != nil {
			return c.String(http.StatusBadRequest, "please select a file to upload")
		}
		if err := validateUpload(file); err != nil {
			return c.String(http.StatusBadRequest, err.Error())
		}

		src, err := file.Open()
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, "failed to read upload")
		}
		defer src.Close()

		ctx := c.Request().Context()
		url, err := store.UploadBlob(ctx, storage.ContainerPaymentProofs, file.Filename, src)
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, "failed to upload file")
		}

		orderID := c.FormValue("orderId")
		note := fmt.Sprintf("payment proof received for order %s: %s", orderID, url)
		if err := store.Send(ctx, storage.QueueNotifications, note); err != nil {
			logger.Errorf("notify payment proof: %v", err)
		}

		return c.JSON(http.StatusCreated, uploadResponse{URL: url})
	}
}

// reportPath reads and validates the report name and optional directory.
// Both components must stay within the reports share.
func reportPath(c echo.Context) (name, dir string, err error) {
	name = c.Param("name")
	dir = c.QueryParam("dir")
	if strings.Contains(name, "/") || strings.Contains(name, "..") {
		return "", "", errors.New("invalid report name")
	}
	if strings.Contains(dir, "/") || strings.Contains(dir, "..") {
		return "", "", errors.New("invalid report directory")
	}
	return name, dir, nil
}

func uploadReport(store Gateway) echo.HandlerFunc {
	return func(c echo.Context) error {
		name, dir, err := reportPath(c)
		if err != nil {
			return c.String(http.StatusBadRequest, err.Error())
		}
		content, err := io.ReadAll(io.LimitReader(c.Request().Body, maxUploadSize+1))
		if err != nil {
			return c.String(http.StatusBadRequest, "failed to read body")
		}
		if len(content) > maxUploadSize {
			return c.String(http.StatusBadRequest, "file size must be less than 10MB")
		}
		if err := store.UploadToShare(c.Request().Context(), storage.ShareReports, dir, name, content); err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusInternalServerError, "failed to store report")
		}
		return c.NoContent(http.StatusCreated)
	}
}

func downloadReport(store Gateway) echo.HandlerFunc {
	return func(c echo.Context) error {
		name, dir, err := reportPath(c)
		if err != nil {
			return c.String(http.StatusBadRequest, err.Error())
		}
		rc, err := store.DownloadFromShare(c.Request().Context(), storage.ShareReports, dir, name)
		if err != nil {
			c.Logger().Error(err)
			return c.String(http.StatusNotFound, "report not found")
		}
		defer rc.Close()
		return c.Stream(http.StatusOK, echo.MIMEOctetStream, rc)
	}
}
