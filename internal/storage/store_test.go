package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "huddle.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store
}

func TestRecordAndGetAsset(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	uploaded := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	err := store.RecordAsset(ctx, Asset{Name: "cat.png", SizeBytes: 6, SHA256: "aa", UploadedAt: uploaded})
	if err != nil {
		t.Fatalf("RecordAsset: %v", err)
	}

	asset, err := store.GetAsset(ctx, "cat.png")
	if err != nil {
		t.Fatalf("GetAsset: %v", err)
	}
	if asset == nil || asset.SizeBytes != 6 || asset.SHA256 != "aa" {
		t.Fatalf("unexpected asset: %+v", asset)
	}

	missing, err := store.GetAsset(ctx, "dog.png")
	if err != nil {
		t.Fatalf("GetAsset missing: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown name, got %+v", missing)
	}
}

func TestRecordAssetOverwrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := Asset{Name: "cat.png", SizeBytes: 6, SHA256: "aa", UploadedAt: time.Now().UTC()}
	if err := store.RecordAsset(ctx, first); err != nil {
		t.Fatalf("RecordAsset: %v", err)
	}
	second := Asset{Name: "cat.png", SizeBytes: 9, SHA256: "bb", UploadedAt: time.Now().UTC().Add(time.Minute)}
	if err := store.RecordAsset(ctx, second); err != nil {
		t.Fatalf("RecordAsset overwrite: %v", err)
	}

	assets, err := store.ListAssets(ctx)
	if err != nil {
		t.Fatalf("ListAssets: %v", err)
	}
	if len(assets) != 1 {
		t.Fatalf("expected a single row after overwrite, got %d", len(assets))
	}
	if assets[0].SizeBytes != 9 || assets[0].SHA256 != "bb" {
		t.Fatalf("overwrite did not replace the row: %+v", assets[0])
	}
}

func TestListAssetsNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	for i, name := range []string{"old.txt", "mid.txt", "new.txt"} {
		asset := Asset{Name: name, SizeBytes: 1, SHA256: "x", UploadedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := store.RecordAsset(ctx, asset); err != nil {
			t.Fatalf("RecordAsset %s: %v", name, err)
		}
	}

	assets, err := store.ListAssets(ctx)
	if err != nil {
		t.Fatalf("ListAssets: %v", err)
	}
	if len(assets) != 3 {
		t.Fatalf("expected 3 assets, got %d", len(assets))
	}
	if assets[0].Name != "new.txt" || assets[2].Name != "old.txt" {
		t.Fatalf("unexpected order: %v, %v, %v", assets[0].Name, assets[1].Name, assets[2].Name)
	}
}
