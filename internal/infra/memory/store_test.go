package memory

import (
	"context"
	"testing"
)

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	type blob struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	if ok, err := store.Get(ctx, "missing", &blob{}); ok || err != nil {
		t.Fatalf("expected absent key, got ok=%v err=%v", ok, err)
	}

	if err := store.Set(ctx, "profile", blob{Name: "alice", Count: 3}); err != nil {
		t.Fatalf("set: %v", err)
	}
	var got blob
	ok, err := store.Get(ctx, "profile", &got)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.Name != "alice" || got.Count != 3 {
		t.Fatalf("unexpected value %+v", got)
	}

	if err := store.Remove(ctx, "profile"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if ok, _ := store.Get(ctx, "profile", &got); ok {
		t.Fatal("expected key gone after remove")
	}
}

func TestStoreNamespaceIsolation(t *testing.T) {
	ctx := context.Background()
	root := NewStore()
	alice := root.Namespace("user:alice")
	bob := root.Namespace("user:bob")

	if err := alice.Set(ctx, "score", 90); err != nil {
		t.Fatalf("set: %v", err)
	}

	var score int
	if ok, _ := bob.Get(ctx, "score", &score); ok {
		t.Fatal("namespaces must not share keys")
	}
	if ok, _ := alice.Get(ctx, "score", &score); !ok || score != 90 {
		t.Fatalf("expected alice's score back, got ok=%v score=%d", ok, score)
	}
}

func TestStoreCorruptValueReadsAsAbsent(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	if err := store.Set(ctx, "k", "not-a-number"); err != nil {
		t.Fatalf("set: %v", err)
	}
	var n int
	if ok, err := store.Get(ctx, "k", &n); ok || err != nil {
		t.Fatalf("expected mismatched value to read as absent, got ok=%v err=%v", ok, err)
	}
}
