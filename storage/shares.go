package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/streaming"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azfile/directory"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azfile/file"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azfile/fileerror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azfile/share"
)

// azShare adapts an azfile share client to the shareClient interface.
type azShare struct {
	share *share.Client
}

func (s azShare) directory(dirPath string) *directory.Client {
	if dirPath == "" {
		return s.share.NewRootDirectoryClient()
	}
	return s.share.NewDirectoryClient(dirPath)
}

func (s azShare) Create(ctx context.Context, o *share.CreateOptions) (share.CreateResponse, error) {
	return s.share.Create(ctx, o)
}

func (s azShare) CreateDirectory(ctx context.Context, dirPath string, o *directory.CreateOptions) (directory.CreateResponse, error) {
	return s.directory(dirPath).Create(ctx, o)
}

func (s azShare) CreateFile(ctx context.Context, dirPath, name string, size int64, o *file.CreateOptions) (file.CreateResponse, error) {
	return s.directory(dirPath).NewFileClient(name).Create(ctx, size, o)
}

func (s azShare) UploadRange(ctx context.Context, dirPath, name string, offset int64, body io.ReadSeekCloser, o *file.UploadRangeOptions) (file.UploadRangeResponse, error) {
	return s.directory(dirPath).NewFileClient(name).UploadRange(ctx, offset, body, o)
}

func (s azShare) DownloadStream(ctx context.Context, dirPath, name string, o *file.DownloadStreamOptions) (file.DownloadStreamResponse, error) {
	return s.directory(dirPath).NewFileClient(name).DownloadStream(ctx, o)
}

// UploadToShare writes content as a file under the given directory path,
// creating the directory if needed. The file is created at its final byte
// length and filled with a single range write.
func (g *Gateway) UploadToShare(ctx context.Context, shareName, dirPath, name string, content []byte) error {
	sh, err := g.share(shareName)
	if err != nil {
		return err
	}
	if dirPath != "" {
		if _, err := sh.CreateDirectory(ctx, dirPath, nil); err != nil {
			if !fileerror.HasCode(err, fileerror.ResourceAlreadyExists) {
				return fmt.Errorf("create directory %s/%s: %w", shareName, dirPath, err)
			}
		}
	}

	size := int64(len(content))
	if _, err := sh.CreateFile(ctx, dirPath, name, size, nil); err != nil {
		return fmt.Errorf("create file %s/%s: %w", shareName, name, err)
	}
	if size == 0 {
		return nil
	}
	body := streaming.NopCloser(bytes.NewReader(content))
	if _, err := sh.UploadRange(ctx, dirPath, name, 0, body, nil); err != nil {
		return fmt.Errorf("write file %s/%s: %w", shareName, name, err)
	}
	return nil
}

// DownloadFromShare opens a read stream over the named file. A missing
// file or directory is an error.
func (g *Gateway) DownloadFromShare(ctx context.Context, shareName, dirPath, name string) (io.ReadCloser, error) {
	sh, err := g.share(shareName)
	if err != nil {
		return nil, err
	}
	resp, err := sh.DownloadStream(ctx, dirPath, name, nil)
	if err != nil {
		return nil, fmt.Errorf("download %s/%s: %w", shareName, name, err)
	}
	return resp.Body, nil
}
