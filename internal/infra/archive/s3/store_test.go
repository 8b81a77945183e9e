package s3

import (
	"context"
	"testing"

	"manifestcore/internal/archive/core"
)

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatal("expected error without a bucket")
	}
}

func TestNewWithStaticCredentials(t *testing.T) {
	store, err := New(context.Background(), Config{
		Bucket:          "manifest-archive",
		Region:          "eu-west-3",
		Endpoint:        "http://localhost:9000",
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		PathStyle:       true,
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if store.Driver() != core.DriverS3 {
		t.Fatalf("driver = %s, want s3", store.Driver())
	}
}

func TestOpenFromEnv(t *testing.T) {
	t.Setenv("MANIFESTCORE_ARCHIVE_S3_BUCKET", "")
	if _, err := OpenFromEnv(context.Background()); err == nil {
		t.Fatal("expected error when the bucket variable is unset")
	}

	t.Setenv("MANIFESTCORE_ARCHIVE_S3_BUCKET", "manifest-archive")
	t.Setenv("MANIFESTCORE_ARCHIVE_S3_REGION", "eu-west-3")
	t.Setenv("MANIFESTCORE_ARCHIVE_S3_PATH_STYLE", "true")
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	store, err := OpenFromEnv(context.Background())
	if err != nil {
		t.Fatalf("open from env: %v", err)
	}
	if store.Driver() != core.DriverS3 {
		t.Fatalf("driver = %s, want s3", store.Driver())
	}
}
