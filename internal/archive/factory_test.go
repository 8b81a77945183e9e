package archive

import (
	"context"
	"testing"
)

func TestOpenSelectsDriver(t *testing.T) {
	ctx := context.Background()

	t.Setenv("MANIFESTCORE_ARCHIVE_DRIVER", "memory")
	store, err := Open(ctx)
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	if store.Driver() != DriverMemory {
		t.Fatalf("driver = %s, want memory", store.Driver())
	}

	t.Setenv("MANIFESTCORE_ARCHIVE_DRIVER", "fs")
	t.Setenv("MANIFESTCORE_ARCHIVE_FS_ROOT", t.TempDir())
	store, err = Open(ctx)
	if err != nil {
		t.Fatalf("open fs: %v", err)
	}
	if store.Driver() != DriverFilesystem {
		t.Fatalf("driver = %s, want fs", store.Driver())
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	t.Setenv("MANIFESTCORE_ARCHIVE_DRIVER", "tape")
	if _, err := Open(context.Background()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestOpenS3RequiresBucket(t *testing.T) {
	t.Setenv("MANIFESTCORE_ARCHIVE_DRIVER", "s3")
	t.Setenv("MANIFESTCORE_ARCHIVE_S3_BUCKET", "")
	if _, err := Open(context.Background()); err == nil {
		t.Fatal("expected error when the bucket is missing")
	}
}
