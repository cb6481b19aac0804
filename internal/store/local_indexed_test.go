package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hatchpm/hatch/internal/herrors"
)

func writeIndex(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "index-depend.txt"), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write index: %v", err)
	}
}

func TestLocalIndexedStoreConnectAndQuery(t *testing.T) {
	dir := t.TempDir()
	writeIndex(t, dir, sampleIndex)

	s := NewLocalIndexedStore(dir)
	if err := s.Connect(context.Background(), Credentials{}); err != nil {
		t.Fatalf("Connect returned error: %v", err)
	}

	entries, err := s.Query(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	// Query results must be sorted, for determinism across calls.
	if entries[0].Key > entries[1].Key {
		t.Errorf("entries not sorted: %q before %q", entries[0].Key, entries[1].Key)
	}
}

func TestLocalIndexedStoreQueryFiltersByName(t *testing.T) {
	dir := t.TempDir()
	writeIndex(t, dir, sampleIndex)

	s := NewLocalIndexedStore(dir)
	if err := s.Connect(context.Background(), Credentials{}); err != nil {
		t.Fatalf("Connect returned error: %v", err)
	}

	entries, err := s.Query(context.Background(), Filter{Name: "numpy"})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if len(entries) != 1 || entries[0].Record.Name != "numpy" {
		t.Errorf("expected only numpy, got %v", entries)
	}
}

func TestLocalIndexedStoreConnectMissingIndex(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalIndexedStore(dir)
	err := s.Connect(context.Background(), Credentials{})
	if err == nil {
		t.Fatal("expected error connecting to a directory with no index")
	}
	if _, ok := err.(*herrors.StoreUnavailable); !ok {
		t.Errorf("expected *herrors.StoreUnavailable, got %T", err)
	}
}

func TestLocalIndexedStoreGetMetadataNotFound(t *testing.T) {
	dir := t.TempDir()
	writeIndex(t, dir, sampleIndex)

	s := NewLocalIndexedStore(dir)
	if err := s.Connect(context.Background(), Credentials{}); err != nil {
		t.Fatalf("Connect returned error: %v", err)
	}

	_, err := s.GetMetadata(context.Background(), "missing-1.0.0-1.egg")
	if _, ok := err.(*herrors.KeyNotFound); !ok {
		t.Errorf("expected *herrors.KeyNotFound, got %T", err)
	}
}

func TestLocalIndexedStoreExists(t *testing.T) {
	dir := t.TempDir()
	writeIndex(t, dir, sampleIndex)

	s := NewLocalIndexedStore(dir)
	if err := s.Connect(context.Background(), Credentials{}); err != nil {
		t.Fatalf("Connect returned error: %v", err)
	}

	ok, err := s.Exists(context.Background(), "numpy-1.26.0-1.egg")
	if err != nil || !ok {
		t.Errorf("Exists(numpy-1.26.0-1.egg) = (%v, %v), want (true, nil)", ok, err)
	}
	ok, err = s.Exists(context.Background(), "missing-1.0.0-1.egg")
	if err != nil || ok {
		t.Errorf("Exists(missing-1.0.0-1.egg) = (%v, %v), want (false, nil)", ok, err)
	}
}

func TestLocalIndexedStoreGetDataOpensFile(t *testing.T) {
	dir := t.TempDir()
	writeIndex(t, dir, sampleIndex)
	if err := os.WriteFile(filepath.Join(dir, "numpy-1.26.0-1.egg"), []byte("fake archive bytes"), 0644); err != nil {
		t.Fatalf("failed to write fake archive: %v", err)
	}

	s := NewLocalIndexedStore(dir)
	if err := s.Connect(context.Background(), Credentials{}); err != nil {
		t.Fatalf("Connect returned error: %v", err)
	}

	rc, err := s.GetData(context.Background(), "numpy-1.26.0-1.egg")
	if err != nil {
		t.Fatalf("GetData returned error: %v", err)
	}
	defer rc.Close()
}
