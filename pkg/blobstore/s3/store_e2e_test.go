//go:build e2e

package s3

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/yeetbox/yeetbox/pkg/blobstore"
)

// localstackHelper starts a disposable Localstack S3 endpoint, mirroring
// the teacher's pkg/payload/store/s3 integration test helper.
type localstackHelper struct {
	container testcontainers.Container
	endpoint  string
	client    *s3.Client
}

func newLocalstackHelper(t *testing.T) *localstackHelper {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "localstack/localstack:3.0",
		ExposedPorts: []string{"4566/tcp"},
		Env: map[string]string{
			"SERVICES":              "s3",
			"DEFAULT_REGION":        "us-east-1",
			"EAGER_SERVICE_LOADING": "1",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("4566/tcp"),
			wait.ForHTTP("/_localstack/health").WithPort("4566/tcp").WithStartupTimeout(60*time.Second),
		),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start localstack container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "4566")
	if err != nil {
		t.Fatalf("container port: %v", err)
	}

	helper := &localstackHelper{
		container: container,
		endpoint:  fmt.Sprintf("http://%s:%s", host, port.Port()),
	}
	helper.createClient(t)
	return helper
}

func (lh *localstackHelper) createClient(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("us-east-1"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("test", "test", "")),
	)
	if err != nil {
		t.Fatalf("load aws config: %v", err)
	}

	lh.client = s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = &lh.endpoint
		o.UsePathStyle = true
	})
}

func (lh *localstackHelper) createBucket(t *testing.T, bucket string) {
	t.Helper()
	if _, err := lh.client.CreateBucket(context.Background(), &s3.CreateBucketInput{Bucket: aws.String(bucket)}); err != nil {
		t.Fatalf("create bucket: %v", err)
	}
}

func newTestStore(t *testing.T, helper *localstackHelper) (*Store, string) {
	t.Helper()
	bucket := fmt.Sprintf("yeetbox-test-%d", time.Now().UnixNano())
	helper.createBucket(t, bucket)

	store, err := Open(context.Background(), Config{
		Bucket:         bucket,
		Region:         "us-east-1",
		Endpoint:       helper.endpoint,
		ForcePathStyle: true,
		Prefix:         "blobs/",
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return store, bucket
}

func TestStore_CreateAppendRead(t *testing.T) {
	helper := newLocalstackHelper(t)
	store, _ := newTestStore(t, helper)
	ctx := context.Background()

	id := store.NewBlobID()

	w, err := store.CreateOrAppendOpen(ctx, id)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := w.Append(ctx, []byte("hello ")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := w.Append(ctx, []byte("world")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	r, err := store.OpenRead(ctx, id)
	if err != nil {
		t.Fatalf("open read: %v", err)
	}
	defer r.Close()

	size, err := r.Size(ctx)
	if err != nil {
		t.Fatalf("size: %v", err)
	}
	if size != int64(len("hello world")) {
		t.Errorf("expected size %d, got %d", len("hello world"), size)
	}

	buf := make([]byte, size)
	n, err := r.ReadAt(ctx, buf, 0)
	if err != nil {
		t.Fatalf("read at: %v", err)
	}
	if !bytes.Equal(buf[:n], []byte("hello world")) {
		t.Errorf("expected %q, got %q", "hello world", buf[:n])
	}
}

func TestStore_ReadMissingReturnsErrNotFound(t *testing.T) {
	helper := newLocalstackHelper(t)
	store, _ := newTestStore(t, helper)

	var id [16]byte
	_, err := store.OpenRead(context.Background(), id)
	if err != blobstore.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_AppendToExistingFoldsPriorBytes(t *testing.T) {
	helper := newLocalstackHelper(t)
	store, _ := newTestStore(t, helper)
	ctx := context.Background()

	id := store.NewBlobID()

	w1, err := store.CreateOrAppendOpen(ctx, id)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := w1.Append(ctx, []byte("first-")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := w1.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	w2, err := store.CreateOrAppendOpen(ctx, id)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if err := w2.Append(ctx, []byte("second")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := w2.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	r, err := store.OpenRead(ctx, id)
	if err != nil {
		t.Fatalf("open read: %v", err)
	}
	defer r.Close()

	size, _ := r.Size(ctx)
	buf := make([]byte, size)
	n, err := r.ReadAt(ctx, buf, 0)
	if err != nil {
		t.Fatalf("read at: %v", err)
	}
	if !bytes.Equal(buf[:n], []byte("first-second")) {
		t.Errorf("expected %q, got %q", "first-second", buf[:n])
	}
}

func TestStore_RenameAndDeleteAndList(t *testing.T) {
	helper := newLocalstackHelper(t)
	store, _ := newTestStore(t, helper)
	ctx := context.Background()

	oldID := store.NewBlobID()
	w, err := store.CreateOrAppendOpen(ctx, oldID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := w.Append(ctx, []byte("payload")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	newID := store.NewBlobID()
	if err := store.Rename(ctx, oldID, newID); err != nil {
		t.Fatalf("rename: %v", err)
	}

	if _, err := store.OpenRead(ctx, oldID); err != blobstore.ErrNotFound {
		t.Errorf("expected old id gone, got %v", err)
	}
	r, err := store.OpenRead(ctx, newID)
	if err != nil {
		t.Fatalf("open renamed: %v", err)
	}
	r.Close()

	ids, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	found := false
	for _, id := range ids {
		if id == newID {
			found = true
		}
	}
	if !found {
		t.Error("expected renamed blob-id in List")
	}

	if err := store.Delete(ctx, newID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.OpenRead(ctx, newID); err != blobstore.ErrNotFound {
		t.Errorf("expected deleted id gone, got %v", err)
	}

	// Deleting an absent blob is not an error.
	if err := store.Delete(ctx, newID); err != nil {
		t.Errorf("expected no error deleting absent blob, got %v", err)
	}
}
