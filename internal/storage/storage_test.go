package storage_test

import (
	"context"
	"testing"

	"boothbabe/backend/internal/storage"
	"boothbabe/backend/internal/storage/memory"
)

func TestLoadJSONMissingKeyLeavesDestUntouched(t *testing.T) {
	backend := memory.New()
	dest := []string{"sentinel"}

	if storage.LoadJSON(context.Background(), backend, "never-written", &dest) {
		t.Fatalf("missing key should report false")
	}
	if len(dest) != 1 || dest[0] != "sentinel" {
		t.Fatalf("dest should be untouched, got %v", dest)
	}
}

func TestLoadJSONMalformedPayload(t *testing.T) {
	backend := memory.New()
	ctx := context.Background()

	if err := backend.Save(ctx, "k", "{broken"); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	var dest map[string]string
	if storage.LoadJSON(ctx, backend, "k", &dest) {
		t.Fatalf("malformed payload should report false")
	}
}

func TestSaveThenLoadJSONRoundTrip(t *testing.T) {
	backend := memory.New()
	ctx := context.Background()

	in := map[string]int{"pouches": 3}
	if err := storage.SaveJSON(ctx, backend, "k", in); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	var out map[string]int
	if !storage.LoadJSON(ctx, backend, "k", &out) {
		t.Fatalf("load failed")
	}
	if out["pouches"] != 3 {
		t.Fatalf("round trip lost data: %v", out)
	}
}

func TestBackendDelete(t *testing.T) {
	backend := memory.New()
	ctx := context.Background()

	if err := backend.Save(ctx, "k", "v"); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := backend.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, ok, _ := backend.Load(ctx, "k"); ok {
		t.Fatalf("deleted key should be gone")
	}
	// Deleting a missing key is not an error.
	if err := backend.Delete(ctx, "k"); err != nil {
		t.Fatalf("double delete should be a no-op, got %v", err)
	}
}
