package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azfile/directory"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azfile/file"
	fileservice "github.com/Azure/azure-sdk-for-go/sdk/storage/azfile/service"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azfile/share"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
)

// Kind tags one of the entity families persisted in table storage.
type Kind string

const (
	KindCustomer Kind = "Customer"
	KindProduct  Kind = "Product"
	KindOrder    Kind = "Order"
)

// Binding ties an entity kind to its table name and fixed partition key.
// Every kind lives in a single partition; the row key is always the
// entity's business identifier.
type Binding struct {
	Table        string
	PartitionKey string
}

// DefaultBindings returns the table layout used by the storefront.
func DefaultBindings() map[Kind]Binding {
	return map[Kind]Binding{
		KindCustomer: {Table: "Customers", PartitionKey: "Customer"},
		KindProduct:  {Table: "Products", PartitionKey: "Product"},
		KindOrder:    {Table: "Orders", PartitionKey: "Order"},
	}
}

// Fixed resource names within the backing storage account.
const (
	ContainerProductImages = "product-images"
	ContainerPaymentProofs = "payment-proofs"
	QueueOrders            = "order-queue"
	QueueNotifications     = "notification-queue"
	ShareReports           = "reports"
)

// ErrEntityExists is returned by Add operations when a row with the same
// partition and row key is already present.
var ErrEntityExists = errors.New("entity already exists")

// ErrNotFound is returned by Update operations against a missing row.
var ErrNotFound = errors.New("entity not found")

// ErrUnknownQueue is returned for queue names outside the fixed set.
var ErrUnknownQueue = errors.New("unknown queue")

// ErrUnknownShare is returned for share names outside the fixed set.
var ErrUnknownShare = errors.New("unknown share")

type tableClient interface {
	CreateTable(ctx context.Context, o *aztables.CreateTableOptions) (aztables.CreateTableResponse, error)
	AddEntity(ctx context.Context, entity []byte, o *aztables.AddEntityOptions) (aztables.AddEntityResponse, error)
	GetEntity(ctx context.Context, partitionKey, rowKey string, o *aztables.GetEntityOptions) (aztables.GetEntityResponse, error)
	UpdateEntity(ctx context.Context, entity []byte, o *aztables.UpdateEntityOptions) (aztables.UpdateEntityResponse, error)
	DeleteEntity(ctx context.Context, partitionKey, rowKey string, o *aztables.DeleteEntityOptions) (aztables.DeleteEntityResponse, error)
	NewListEntitiesPager(o *aztables.ListEntitiesOptions) *runtime.Pager[aztables.ListEntitiesResponse]
}

type blobClient interface {
	CreateContainer(ctx context.Context, containerName string, o *azblob.CreateContainerOptions) (azblob.CreateContainerResponse, error)
	UploadStream(ctx context.Context, containerName, blobName string, body io.Reader, o *azblob.UploadStreamOptions) (azblob.UploadStreamResponse, error)
	DeleteBlob(ctx context.Context, containerName, blobName string, o *azblob.DeleteBlobOptions) (azblob.DeleteBlobResponse, error)
	URL() string
}

type queueClient interface {
	Create(ctx context.Context, o *azqueue.CreateOptions) (azqueue.CreateResponse, error)
	EnqueueMessage(ctx context.Context, content string, o *azqueue.EnqueueMessageOptions) (azqueue.EnqueueMessagesResponse, error)
	DequeueMessage(ctx context.Context, o *azqueue.DequeueMessageOptions) (azqueue.DequeueMessagesResponse, error)
	DeleteMessage(ctx context.Context, messageID, popReceipt string, o *azqueue.DeleteMessageOptions) (azqueue.DeleteMessageResponse, error)
	GetProperties(ctx context.Context, o *azqueue.GetQueuePropertiesOptions) (azqueue.GetQueuePropertiesResponse, error)
}

// shareClient flattens the azfile share/directory/file hierarchy into the
// operations the gateway needs. An empty dirPath addresses the share root.
type shareClient interface {
	Create(ctx context.Context, o *share.CreateOptions) (share.CreateResponse, error)
	CreateDirectory(ctx context.Context, dirPath string, o *directory.CreateOptions) (directory.CreateResponse, error)
	CreateFile(ctx context.Context, dirPath, name string, size int64, o *file.CreateOptions) (file.CreateResponse, error)
	UploadRange(ctx context.Context, dirPath, name string, offset int64, body io.ReadSeekCloser, o *file.UploadRangeOptions) (file.UploadRangeResponse, error)
	DownloadStream(ctx context.Context, dirPath, name string, o *file.DownloadStreamOptions) (file.DownloadStreamResponse, error)
}

// Options configures a Gateway.
type Options struct {
	// Bindings maps each entity kind to its table; nil means DefaultBindings.
	Bindings map[Kind]Binding
	// ConditionalUpdates makes entity updates require a matching ETag and
	// surfaces stale writes as domain.ErrConcurrencyConflict. When false,
	// updates are last-writer-wins.
	ConditionalUpdates bool
}

// Gateway provides access to the four storage primitives of the backing
// account: entity tables, blob containers, queues and file shares. It
// holds no mutable state and is safe for concurrent use.
type Gateway struct {
	bindings           map[Kind]Binding
	tables             map[Kind]tableClient
	blob               blobClient
	shares             map[string]shareClient
	queues             map[string]queueClient
	conditionalUpdates bool
}

// New creates a Gateway from the given connection string. Clients carry an
// explicit retry policy rather than relying on SDK defaults.
func New(connStr string, opts Options) (*Gateway, error) {
	bindings := opts.Bindings
	if bindings == nil {
		bindings = DefaultBindings()
	}

	retry := policy.RetryOptions{
		MaxRetries:    3,
		TryTimeout:    time.Minute * 3,
		RetryDelay:    time.Second * 1,
		MaxRetryDelay: time.Second * 15,
		StatusCodes:   []int{408, 429, 500, 502, 503, 504},
	}

	tableOptions := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{Retry: retry},
	}
	tableSvc, err := aztables.NewServiceClientFromConnectionString(connStr, &tableOptions)
	if err != nil {
		return nil, err
	}
	tables := make(map[Kind]tableClient, len(bindings))
	for kind, b := range bindings {
		tables[kind] = tableSvc.NewClient(b.Table)
	}

	blobOptions := azblob.ClientOptions{
		ClientOptions: azcore.ClientOptions{Retry: retry},
	}
	blob, err := azblob.NewClientFromConnectionString(connStr, &blobOptions)
	if err != nil {
		return nil, err
	}

	fileOptions := fileservice.ClientOptions{
		ClientOptions: azcore.ClientOptions{Retry: retry},
	}
	files, err := fileservice.NewClientFromConnectionString(connStr, &fileOptions)
	if err != nil {
		return nil, err
	}
	shares := map[string]shareClient{
		ShareReports: azShare{share: files.NewShareClient(ShareReports)},
	}

	queueOptions := azqueue.ClientOptions{
		ClientOptions: azcore.ClientOptions{Retry: retry},
	}
	queues := make(map[string]queueClient, 2)
	for _, name := range []string{QueueOrders, QueueNotifications} {
		q, err := azqueue.NewQueueClientFromConnectionString(connStr, name, &queueOptions)
		if err != nil {
			return nil, err
		}
		queues[name] = q
	}

	return &Gateway{
		bindings:           bindings,
		tables:             tables,
		blob:               blob,
		shares:             shares,
		queues:             queues,
		conditionalUpdates: opts.ConditionalUpdates,
	}, nil
}

func (g *Gateway) queue(name string) (queueClient, error) {
	q, ok := g.queues[name]
	if !ok {
		return nil, ErrUnknownQueue
	}
	return q, nil
}

func (g *Gateway) share(name string) (shareClient, error) {
	s, ok := g.shares[name]
	if !ok {
		return nil, ErrUnknownShare
	}
	return s, nil
}
