package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azfile/directory"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azfile/file"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azfile/fileerror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azfile/share"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
)

func respError(status int, code string) *azcore.ResponseError {
	return &azcore.ResponseError{StatusCode: status, ErrorCode: code}
}

// fakeTable is an in-memory stand-in for an aztables client.
type fakeTable struct {
	mu       sync.Mutex
	rows     map[string][]byte
	versions map[string]int
	created  int
}

func newFakeTable() *fakeTable {
	return &fakeTable{rows: map[string][]byte{}, versions: map[string]int{}}
}

type entityKeys struct {
	PartitionKey string `json:"PartitionKey"`
	RowKey       string `json:"RowKey"`
}

func rowKeyOf(payload []byte) (entityKeys, string, error) {
	var keys entityKeys
	if err := json.Unmarshal(payload, &keys); err != nil {
		return keys, "", err
	}
	return keys, keys.PartitionKey + "|" + keys.RowKey, nil
}

func (f *fakeTable) etag(key string) string {
	return fmt.Sprintf("W/\"%d\"", f.versions[key])
}

// withSystem returns the stored payload with the server-assigned etag and
// timestamp columns merged in, like a real read would carry.
func (f *fakeTable) withSystem(key string, payload []byte) []byte {
	var row map[string]any
	if err := json.Unmarshal(payload, &row); err != nil {
		return payload
	}
	row["odata.etag"] = f.etag(key)
	row["Timestamp"] = time.Now().UTC().Format(time.RFC3339Nano)
	merged, err := json.Marshal(row)
	if err != nil {
		return payload
	}
	return merged
}

func (f *fakeTable) CreateTable(ctx context.Context, o *aztables.CreateTableOptions) (aztables.CreateTableResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created++
	if f.created > 1 {
		return aztables.CreateTableResponse{}, respError(http.StatusConflict, string(aztables.TableAlreadyExists))
	}
	return aztables.CreateTableResponse{}, nil
}

func (f *fakeTable) AddEntity(ctx context.Context, entity []byte, o *aztables.AddEntityOptions) (aztables.AddEntityResponse, error) {
	_, key, err := rowKeyOf(entity)
	if err != nil {
		return aztables.AddEntityResponse{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[key]; ok {
		return aztables.AddEntityResponse{}, respError(http.StatusConflict, "EntityAlreadyExists")
	}
	f.rows[key] = entity
	f.versions[key]++
	return aztables.AddEntityResponse{}, nil
}

func (f *fakeTable) GetEntity(ctx context.Context, partitionKey, rowKey string, o *aztables.GetEntityOptions) (aztables.GetEntityResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := partitionKey + "|" + rowKey
	payload, ok := f.rows[key]
	if !ok {
		return aztables.GetEntityResponse{}, respError(http.StatusNotFound, "ResourceNotFound")
	}
	return aztables.GetEntityResponse{Value: f.withSystem(key, payload)}, nil
}

func (f *fakeTable) UpdateEntity(ctx context.Context, entity []byte, o *aztables.UpdateEntityOptions) (aztables.UpdateEntityResponse, error) {
	_, key, err := rowKeyOf(entity)
	if err != nil {
		return aztables.UpdateEntityResponse{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[key]; !ok {
		return aztables.UpdateEntityResponse{}, respError(http.StatusNotFound, "ResourceNotFound")
	}
	if o != nil && o.IfMatch != nil && *o.IfMatch != azcore.ETagAny {
		if string(*o.IfMatch) != f.etag(key) {
			return aztables.UpdateEntityResponse{}, respError(http.StatusPreconditionFailed, "UpdateConditionNotSatisfied")
		}
	}
	f.rows[key] = entity
	f.versions[key]++
	return aztables.UpdateEntityResponse{}, nil
}

func (f *fakeTable) DeleteEntity(ctx context.Context, partitionKey, rowKey string, o *aztables.DeleteEntityOptions) (aztables.DeleteEntityResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := partitionKey + "|" + rowKey
	if _, ok := f.rows[key]; !ok {
		return aztables.DeleteEntityResponse{}, respError(http.StatusNotFound, "ResourceNotFound")
	}
	delete(f.rows, key)
	return aztables.DeleteEntityResponse{}, nil
}

func (f *fakeTable) NewListEntitiesPager(o *aztables.ListEntitiesOptions) *runtime.Pager[aztables.ListEntitiesResponse] {
	partition := ""
	if o != nil && o.Filter != nil {
		if parts := strings.Split(*o.Filter, "'"); len(parts) >= 2 {
			partition = parts[1]
		}
	}
	f.mu.Lock()
	var entities [][]byte
	for key, payload := range f.rows {
		if partition != "" && !strings.HasPrefix(key, partition+"|") {
			continue
		}
		entities = append(entities, f.withSystem(key, payload))
	}
	f.mu.Unlock()

	fetched := false
	return runtime.NewPager(runtime.PagingHandler[aztables.ListEntitiesResponse]{
		More: func(aztables.ListEntitiesResponse) bool { return !fetched },
		Fetcher: func(ctx context.Context, _ *aztables.ListEntitiesResponse) (aztables.ListEntitiesResponse, error) {
			fetched = true
			return aztables.ListEntitiesResponse{Entities: entities}, nil
		},
	})
}

type fakeMessage struct {
	id      string
	receipt string
	text    string
}

// fakeQueue is an in-memory queue with visibility semantics reduced to a
// visible slice plus an in-flight map.
type fakeQueue struct {
	mu       sync.Mutex
	visible  []fakeMessage
	inflight map[string]fakeMessage
	next     int
	created  int
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{inflight: map[string]fakeMessage{}}
}

func (f *fakeQueue) Create(ctx context.Context, o *azqueue.CreateOptions) (azqueue.CreateResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created++
	if f.created > 1 {
		return azqueue.CreateResponse{}, respError(http.StatusConflict, "QueueAlreadyExists")
	}
	return azqueue.CreateResponse{}, nil
}

func (f *fakeQueue) EnqueueMessage(ctx context.Context, content string, o *azqueue.EnqueueMessageOptions) (azqueue.EnqueueMessagesResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	f.visible = append(f.visible, fakeMessage{
		id:      fmt.Sprintf("msg-%d", f.next),
		receipt: fmt.Sprintf("receipt-%d", f.next),
		text:    content,
	})
	return azqueue.EnqueueMessagesResponse{}, nil
}

func (f *fakeQueue) DequeueMessage(ctx context.Context, o *azqueue.DequeueMessageOptions) (azqueue.DequeueMessagesResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.visible) == 0 {
		return azqueue.DequeueMessagesResponse{}, nil
	}
	msg := f.visible[0]
	f.visible = f.visible[1:]
	f.inflight[msg.id] = msg
	return azqueue.DequeueMessagesResponse{
		Messages: []*azqueue.DequeuedMessage{{
			MessageID:   &msg.id,
			PopReceipt:  &msg.receipt,
			MessageText: &msg.text,
		}},
	}, nil
}

func (f *fakeQueue) DeleteMessage(ctx context.Context, messageID, popReceipt string, o *azqueue.DeleteMessageOptions) (azqueue.DeleteMessageResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.inflight[messageID]
	if !ok || msg.receipt != popReceipt {
		return azqueue.DeleteMessageResponse{}, respError(http.StatusNotFound, "MessageNotFound")
	}
	delete(f.inflight, messageID)
	return azqueue.DeleteMessageResponse{}, nil
}

func (f *fakeQueue) GetProperties(ctx context.Context, o *azqueue.GetQueuePropertiesOptions) (azqueue.GetQueuePropertiesResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := int32(len(f.visible) + len(f.inflight))
	return azqueue.GetQueuePropertiesResponse{ApproximateMessagesCount: &count}, nil
}

// fakeBlob is an in-memory container store addressed by container/name.
type fakeBlob struct {
	mu         sync.Mutex
	objects    map[string][]byte
	containers map[string]int
}

func newFakeBlob() *fakeBlob {
	return &fakeBlob{objects: map[string][]byte{}, containers: map[string]int{}}
}

func (f *fakeBlob) URL() string { return "https://testaccount.blob.core.windows.net/" }

func (f *fakeBlob) CreateContainer(ctx context.Context, containerName string, o *azblob.CreateContainerOptions) (azblob.CreateContainerResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.containers[containerName]++
	if f.containers[containerName] > 1 {
		return azblob.CreateContainerResponse{}, respError(http.StatusConflict, string(bloberror.ContainerAlreadyExists))
	}
	return azblob.CreateContainerResponse{}, nil
}

func (f *fakeBlob) UploadStream(ctx context.Context, containerName, blobName string, body io.Reader, o *azblob.UploadStreamOptions) (azblob.UploadStreamResponse, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return azblob.UploadStreamResponse{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[containerName+"/"+blobName] = data
	return azblob.UploadStreamResponse{}, nil
}

func (f *fakeBlob) DeleteBlob(ctx context.Context, containerName, blobName string, o *azblob.DeleteBlobOptions) (azblob.DeleteBlobResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := containerName + "/" + blobName
	if _, ok := f.objects[key]; !ok {
		return azblob.DeleteBlobResponse{}, respError(http.StatusNotFound, string(bloberror.BlobNotFound))
	}
	delete(f.objects, key)
	return azblob.DeleteBlobResponse{}, nil
}

// fakeShare is an in-memory file share. Files are keyed by directory and
// name; a created file is a zeroed buffer of its declared size.
type fakeShare struct {
	mu      sync.Mutex
	dirs    map[string]bool
	files   map[string][]byte
	created int
}

func newFakeShare() *fakeShare {
	return &fakeShare{dirs: map[string]bool{}, files: map[string][]byte{}}
}

func shareKey(dirPath, name string) string {
	return dirPath + "|" + name
}

func (f *fakeShare) Create(ctx context.Context, o *share.CreateOptions) (share.CreateResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created++
	if f.created > 1 {
		return share.CreateResponse{}, respError(http.StatusConflict, string(fileerror.ShareAlreadyExists))
	}
	return share.CreateResponse{}, nil
}

func (f *fakeShare) CreateDirectory(ctx context.Context, dirPath string, o *directory.CreateOptions) (directory.CreateResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dirs[dirPath] {
		return directory.CreateResponse{}, respError(http.StatusConflict, string(fileerror.ResourceAlreadyExists))
	}
	f.dirs[dirPath] = true
	return directory.CreateResponse{}, nil
}

func (f *fakeShare) CreateFile(ctx context.Context, dirPath, name string, size int64, o *file.CreateOptions) (file.CreateResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if dirPath != "" && !f.dirs[dirPath] {
		return file.CreateResponse{}, respError(http.StatusNotFound, string(fileerror.ParentNotFound))
	}
	f.files[shareKey(dirPath, name)] = make([]byte, size)
	return file.CreateResponse{}, nil
}

func (f *fakeShare) UploadRange(ctx context.Context, dirPath, name string, offset int64, body io.ReadSeekCloser, o *file.UploadRangeOptions) (file.UploadRangeResponse, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return file.UploadRangeResponse{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	buf, ok := f.files[shareKey(dirPath, name)]
	if !ok {
		return file.UploadRangeResponse{}, respError(http.StatusNotFound, string(fileerror.ResourceNotFound))
	}
	if offset+int64(len(data)) > int64(len(buf)) {
		return file.UploadRangeResponse{}, respError(http.StatusRequestedRangeNotSatisfiable, "InvalidRange")
	}
	copy(buf[offset:], data)
	return file.UploadRangeResponse{}, nil
}

func (f *fakeShare) DownloadStream(ctx context.Context, dirPath, name string, o *file.DownloadStreamOptions) (file.DownloadStreamResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.files[shareKey(dirPath, name)]
	if !ok {
		return file.DownloadStreamResponse{}, respError(http.StatusNotFound, string(fileerror.ResourceNotFound))
	}
	resp := file.DownloadStreamResponse{}
	resp.Body = io.NopCloser(bytes.NewReader(append([]byte(nil), data...)))
	return resp, nil
}

type testGateway struct {
	*Gateway
	customers *fakeTable
	products  *fakeTable
	orders    *fakeTable
	ordersQ   *fakeQueue
	notifyQ   *fakeQueue
	blobs     *fakeBlob
	reports   *fakeShare
}

func newTestGateway(opts Options) *testGateway {
	tg := &testGateway{
		customers: newFakeTable(),
		products:  newFakeTable(),
		orders:    newFakeTable(),
		ordersQ:   newFakeQueue(),
		notifyQ:   newFakeQueue(),
		blobs:     newFakeBlob(),
		reports:   newFakeShare(),
	}
	bindings := opts.Bindings
	if bindings == nil {
		bindings = DefaultBindings()
	}
	tg.Gateway = &Gateway{
		bindings: bindings,
		tables: map[Kind]tableClient{
			KindCustomer: tg.customers,
			KindProduct:  tg.products,
			KindOrder:    tg.orders,
		},
		blob: tg.blobs,
		shares: map[string]shareClient{
			ShareReports: tg.reports,
		},
		queues: map[string]queueClient{
			QueueOrders:        tg.ordersQ,
			QueueNotifications: tg.notifyQ,
		},
		conditionalUpdates: opts.ConditionalUpdates,
	}
	return tg
}
