package fs

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"manifestcore/internal/archive/core"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func TestPutGetRoundTrip(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	info, err := store.Put(ctx, "manifests/26/WM-26-AAA00001.json", strings.NewReader(`{"id":"m-1"}`), core.PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"status": "PROCESSED"},
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != 12 || info.ETag == "" {
		t.Fatalf("unexpected info: %+v", info)
	}

	got, rc, err := store.Get(ctx, "manifests/26/WM-26-AAA00001.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil || !bytes.Equal(data, []byte(`{"id":"m-1"}`)) {
		t.Fatalf("content = %q, %v", data, err)
	}
	if got.ContentType != "application/json" || got.Metadata["status"] != "PROCESSED" {
		t.Fatalf("sidecar metadata lost: %+v", got)
	}
	if got.ETag != info.ETag {
		t.Fatalf("etag mismatch: %q vs %q", got.ETag, info.ETag)
	}
}

func TestPutIsCreateOnly(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	if _, err := store.Put(ctx, "k.json", strings.NewReader("a"), core.PutOptions{}); err != nil {
		t.Fatalf("first put: %v", err)
	}
	if _, err := store.Put(ctx, "k.json", strings.NewReader("b"), core.PutOptions{}); err == nil {
		t.Fatal("second put on the same key should fail")
	}
}

func TestKeySanitization(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	for _, key := range []string{"", "  ", "../escape", "/absolute", "a/../../b"} {
		if _, err := store.Put(ctx, key, strings.NewReader("x"), core.PutOptions{}); err == nil {
			t.Fatalf("key %q should be rejected", key)
		}
	}
}

func TestDeleteRemovesSidecar(t *testing.T) {
	root := t.TempDir()
	store, err := New(root)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()
	if _, err := store.Put(ctx, "doc.json", strings.NewReader("x"), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}

	ok, err := store.Delete(ctx, "doc.json")
	if err != nil || !ok {
		t.Fatalf("delete = (%v, %v)", ok, err)
	}
	if _, err := os.Stat(filepath.Join(root, "doc.json.meta")); !os.IsNotExist(err) {
		t.Fatal("sidecar should be removed with the document")
	}

	ok, err = store.Delete(ctx, "doc.json")
	if err != nil || ok {
		t.Fatalf("second delete = (%v, %v), want (false, nil)", ok, err)
	}
}

func TestListByPrefix(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	for _, key := range []string{"manifests/26/b.json", "manifests/25/a.json", "manifests/26/a.json"} {
		if _, err := store.Put(ctx, key, strings.NewReader("x"), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}

	infos, err := store.List(ctx, "manifests/26/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 || infos[0].Key != "manifests/26/a.json" || infos[1].Key != "manifests/26/b.json" {
		t.Fatalf("unexpected listing: %+v", infos)
	}
}

func TestPresignURL(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	url, err := store.PresignURL(ctx, "manifests/26/doc.json", core.SignedURLOptions{})
	if err != nil || !strings.Contains(url, "manifests/26/doc.json") {
		t.Fatalf("presign = (%q, %v)", url, err)
	}
	if _, err := store.PresignURL(ctx, "doc.json", core.SignedURLOptions{Method: "PUT"}); err != core.ErrUnsupported {
		t.Fatalf("non-GET presign should be unsupported, got %v", err)
	}
}

func TestDriver(t *testing.T) {
	if newStore(t).Driver() != core.DriverFilesystem {
		t.Fatal("wrong driver identifier")
	}
}
