package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/google/uuid"
)

// UploadBlob stores content under a freshly generated name that keeps the
// original file's extension, and returns the blob's URL. Name collisions
// are overwritten; with generated names they do not occur in practice.
func (g *Gateway) UploadBlob(ctx context.Context, container, filename string, content io.Reader) (string, error) {
	name := uuid.NewString() + strings.ToLower(path.Ext(filename))
	if _, err := g.blob.UploadStream(ctx, container, name, content, nil); err != nil {
		return "", fmt.Errorf("upload blob %s/%s: %w", container, name, err)
	}
	return g.blobURL(container, name), nil
}

// DeleteBlob removes a blob if present and reports whether a deletion
// actually occurred.
func (g *Gateway) DeleteBlob(ctx context.Context, container, name string) (bool, error) {
	if _, err := g.blob.DeleteBlob(ctx, container, name, nil); err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("delete blob %s/%s: %w", container, name, err)
	}
	return true, nil
}

func (g *Gateway) blobURL(container, name string) string {
	return strings.TrimSuffix(g.blob.URL(), "/") + "/" + container + "/" + name
}
