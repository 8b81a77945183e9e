package memory

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"manifestcore/internal/archive/core"
)

func TestPutGetRoundTrip(t *testing.T) {
	store := New()
	ctx := context.Background()

	info, err := store.Put(ctx, "manifests/26/WM-26-AAA00001.json", strings.NewReader(`{"id":"m-1"}`), core.PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"status": "PROCESSED"},
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != 12 || info.ContentType != "application/json" {
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
	if got.Metadata["status"] != "PROCESSED" {
		t.Fatalf("metadata lost: %+v", got.Metadata)
	}
}

func TestPutIsCreateOnly(t *testing.T) {
	store := New()
	ctx := context.Background()
	if _, err := store.Put(ctx, "k", strings.NewReader("a"), core.PutOptions{}); err != nil {
		t.Fatalf("first put: %v", err)
	}
	if _, err := store.Put(ctx, "k", strings.NewReader("b"), core.PutOptions{}); err == nil {
		t.Fatal("second put on the same key should fail")
	}
}

func TestHeadAndDelete(t *testing.T) {
	store := New()
	ctx := context.Background()
	if _, err := store.Head(ctx, "missing"); err == nil {
		t.Fatal("head on missing key should fail")
	}
	if _, err := store.Put(ctx, "k", strings.NewReader("abc"), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	info, err := store.Head(ctx, "k")
	if err != nil || info.Size != 3 {
		t.Fatalf("head = (%+v, %v)", info, err)
	}

	ok, err := store.Delete(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("delete = (%v, %v)", ok, err)
	}
	ok, err = store.Delete(ctx, "k")
	if err != nil || ok {
		t.Fatalf("second delete = (%v, %v), want (false, nil)", ok, err)
	}
}

func TestListByPrefix(t *testing.T) {
	store := New()
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

	all, err := store.List(ctx, "")
	if err != nil || len(all) != 3 {
		t.Fatalf("full listing = %d entries, %v", len(all), err)
	}
}

func TestPresignUnsupported(t *testing.T) {
	store := New()
	_, err := store.PresignURL(context.Background(), "k", core.SignedURLOptions{})
	if !errors.Is(err, core.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestDriver(t *testing.T) {
	if New().Driver() != core.DriverMemory {
		t.Fatal("wrong driver identifier")
	}
}
