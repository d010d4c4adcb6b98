package cache

import (
	"testing"
	"time"

	"studio/domain/canon"
	"studio/domain/core"
)

func testDataset() *canon.CanonicalDataset {
	return &canon.CanonicalDataset{Rows: []canon.Row{{}}}
}

// TestSetGet tests basic round trips
func TestSetGet(t *testing.T) {
	store := NewMemoryStore(0)
	key := core.Hash("abc")

	if _, ok := store.Get(key); ok {
		t.Error("Get on empty store reported a hit")
	}

	ds := testDataset()
	store.Set(key, ds)

	got, ok := store.Get(key)
	if !ok {
		t.Fatal("Get missed after Set")
	}
	if got != ds {
		t.Error("Get returned a different dataset pointer")
	}
	if store.Len() != 1 {
		t.Errorf("Len = %d, expected 1", store.Len())
	}
}

// TestTTLExpiry tests access-time expiry with an injected clock
func TestTTLExpiry(t *testing.T) {
	store := NewMemoryStore(10 * time.Minute)
	current := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }

	key := core.Hash("ttl")
	store.Set(key, testDataset())

	current = current.Add(9 * time.Minute)
	if _, ok := store.Get(key); !ok {
		t.Error("Entry expired before its TTL")
	}

	current = current.Add(2 * time.Minute)
	if _, ok := store.Get(key); ok {
		t.Error("Entry survived past its TTL")
	}
	if store.Len() != 0 {
		t.Errorf("Len = %d, expected expired entry removed", store.Len())
	}
}

// TestZeroTTLNeverExpires tests that a zero ttl disables expiry
func TestZeroTTLNeverExpires(t *testing.T) {
	store := NewMemoryStore(0)
	current := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }

	key := core.Hash("forever")
	store.Set(key, testDataset())

	current = current.AddDate(1, 0, 0)
	if _, ok := store.Get(key); !ok {
		t.Error("Entry without TTL expired")
	}
}

// TestInvalidate tests explicit entry removal
func TestInvalidate(t *testing.T) {
	store := NewMemoryStore(0)
	key := core.Hash("gone")
	store.Set(key, testDataset())

	store.Invalidate(key)
	if _, ok := store.Get(key); ok {
		t.Error("Invalidated entry still readable")
	}

	// Invalidating twice is harmless.
	store.Invalidate(key)
}

// TestNopStore tests that the no-op store never hits
func TestNopStore(t *testing.T) {
	var store Store = NopStore{}

	store.Set(core.Hash("x"), testDataset())
	if _, ok := store.Get(core.Hash("x")); ok {
		t.Error("NopStore reported a hit")
	}
	if store.Len() != 0 {
		t.Errorf("NopStore Len = %d, expected 0", store.Len())
	}
}
