package storage

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T, opts Options) *boltStore {
	t.Helper()
	storeRaw, err := openBolt(filepath.Join(t.TempDir(), "nested", "snapshots.db"), normalizeOptions(opts))
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	store := storeRaw.(*boltStore)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBoltStoreRecordsAndReturnsSnapshots(t *testing.T) {
	store := openTestStore(t, Options{TTL: time.Hour, CleanupInterval: time.Hour})

	_, found, err := store.Previous("dog-breeds")
	if err != nil || found {
		t.Fatalf("expected no snapshot, found=%v err=%v", found, err)
	}

	snap := Snapshot{
		EndpointID: "dog-breeds",
		URL:        "https://dog.ceo/api/breeds/list/all",
		StatusCode: 200,
		Digest:     "abc",
		FetchedAt:  time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC),
		Body:       []byte(`{"status":"success"}`),
	}
	if err := store.Record(snap); err != nil {
		t.Fatalf("Record: %v", err)
	}

	got, found, err := store.Previous("dog-breeds")
	if err != nil || !found {
		t.Fatalf("expected snapshot, found=%v err=%v", found, err)
	}
	if got.Digest != "abc" || string(got.Body) != `{"status":"success"}` || !got.FetchedAt.Equal(snap.FetchedAt) {
		t.Fatalf("unexpected snapshot %+v", got)
	}

	snap.Digest = "def"
	if err := store.Record(snap); err != nil {
		t.Fatalf("Record overwrite: %v", err)
	}
	got, _, _ = store.Previous("dog-breeds")
	if got.Digest != "def" {
		t.Fatalf("expected latest snapshot to win, got %q", got.Digest)
	}
}

func TestBoltStoreExpiresSnapshots(t *testing.T) {
	store := openTestStore(t, Options{TTL: time.Minute, CleanupInterval: time.Minute})
	base := time.Now()
	store.now = func() time.Time { return base }

	if err := store.Record(Snapshot{EndpointID: "cat-facts", Digest: "x"}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	store.now = func() time.Time { return base.Add(2 * time.Minute) }
	_, found, err := store.Previous("cat-facts")
	if err != nil {
		t.Fatalf("Previous after expiry: %v", err)
	}
	if found {
		t.Fatalf("expected snapshot to expire")
	}
}

func TestBoltStoreRejectsEmptyEndpointID(t *testing.T) {
	store := openTestStore(t, Options{})
	if err := store.Record(Snapshot{}); err == nil {
		t.Fatalf("expected error for empty endpoint id")
	}
	if _, _, err := store.Previous(" "); err == nil {
		t.Fatalf("expected error for empty endpoint id")
	}
}

func TestNewStoreSupportsNoop(t *testing.T) {
	store, err := NewStore("none", "", Options{})
	if err != nil {
		t.Fatalf("NewStore none: %v", err)
	}
	if err := store.Record(Snapshot{EndpointID: "x"}); err != nil {
		t.Fatalf("noop store Record: %v", err)
	}
	if _, found, _ := store.Previous("x"); found {
		t.Fatalf("noop store must never report snapshots")
	}
}

func TestNewStoreValidatesType(t *testing.T) {
	if _, err := NewStore("bbolt", " ", Options{}); err == nil {
		t.Fatalf("expected error for missing bbolt path")
	}
	if _, err := NewStore("postgres", "x", Options{}); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
}
