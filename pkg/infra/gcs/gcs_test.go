package gcs_test

import (
	"context"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/githook/pkg/infra/gcs"
	"github.com/m-mizutani/gt"
)

func TestNew_RequiresBucket(t *testing.T) {
	_, err := gcs.New(context.Background(), "")
	gt.Error(t, err)
}

func TestClient_PutAndURL(t *testing.T) {
	bucket := os.Getenv("TEST_GCS_BUCKET")
	if bucket == "" {
		t.Skip("TEST_GCS_BUCKET is not set")
	}

	ctx := context.Background()
	client, err := gcs.New(ctx, bucket)
	gt.NoError(t, err)
	defer client.Close()

	key := "githook-test/app/" + time.Now().Format("20060102150405") + ".tgz"
	gt.NoError(t, client.Put(ctx, key, strings.NewReader("payload"), map[string]string{"blake3": "deadbeef"}))
	gt.Value(t, client.URL(key)).Equal("https://storage.googleapis.com/" + bucket + "/" + key)

	raw, err := storage.NewClient(ctx)
	gt.NoError(t, err)
	defer raw.Close()

	obj := raw.Bucket(bucket).Object(key)
	attrs, err := obj.Attrs(ctx)
	gt.NoError(t, err)
	gt.Value(t, attrs.ContentType).Equal("application/gzip")
	gt.Value(t, attrs.Metadata["blake3"]).Equal("deadbeef")

	r, err := obj.NewReader(ctx)
	gt.NoError(t, err)
	data, err := io.ReadAll(r)
	gt.NoError(t, err)
	gt.NoError(t, r.Close())
	gt.Value(t, string(data)).Equal("payload")

	gt.NoError(t, obj.Delete(ctx))
}
