package store

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hatchpm/hatch/internal/herrors"
)

func writeFakeEgg(t *testing.T, path, specBody string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create egg file: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create(eggSpecMember)
	if err != nil {
		t.Fatalf("failed to create zip member: %v", err)
	}
	if _, err := w.Write([]byte(specBody)); err != nil {
		t.Fatalf("failed to write zip member: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to close zip writer: %v", err)
	}
}

func TestLocalRepoConnectReadsEmbeddedSpec(t *testing.T) {
	dir := t.TempDir()
	writeFakeEgg(t, filepath.Join(dir, "foo-1.0.0-1.egg"), "arch = 'x86_64'\npackages = ['bar']\n")

	repo := NewLocalRepo(dir)
	if err := repo.Connect(context.Background(), Credentials{}); err != nil {
		t.Fatalf("Connect returned error: %v", err)
	}

	rec, err := repo.GetMetadata(context.Background(), "foo-1.0.0-1.egg")
	if err != nil {
		t.Fatalf("GetMetadata returned error: %v", err)
	}
	if rec.Name != "foo" || rec.Version != "1.0.0" || rec.Build != 1 {
		t.Errorf("rec = %+v, want name/version/build foo/1.0.0/1", rec)
	}
	if rec.Arch != "x86_64" {
		t.Errorf("rec.Arch = %q, want x86_64", rec.Arch)
	}
	if len(rec.Packages) != 1 || rec.Packages[0] != "bar" {
		t.Errorf("rec.Packages = %v, want [bar]", rec.Packages)
	}
	if rec.MD5 == "" {
		t.Error("expected LocalRepo to compute an md5 for the archive")
	}
	if rec.Size == 0 {
		t.Error("expected LocalRepo to compute a size for the archive")
	}
}

func TestLocalRepoIgnoresNonEggFiles(t *testing.T) {
	dir := t.TempDir()
	writeFakeEgg(t, filepath.Join(dir, "foo-1.0.0-1.egg"), "")
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("hello"), 0644); err != nil {
		t.Fatalf("failed to write README: %v", err)
	}

	repo := NewLocalRepo(dir)
	if err := repo.Connect(context.Background(), Credentials{}); err != nil {
		t.Fatalf("Connect returned error: %v", err)
	}

	entries, err := repo.Query(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d: %v", len(entries), entries)
	}
}

func TestLocalRepoMissingSpecIsUnavailable(t *testing.T) {
	dir := t.TempDir()
	f, err := os.Create(filepath.Join(dir, "foo-1.0.0-1.egg"))
	if err != nil {
		t.Fatalf("failed to create egg file: %v", err)
	}
	zw := zip.NewWriter(f)
	zw.Close()
	f.Close()

	repo := NewLocalRepo(dir)
	err = repo.Connect(context.Background(), Credentials{})
	if err == nil {
		t.Fatal("expected error for an egg archive missing EGG-INFO/spec/depend")
	}
	if _, ok := err.(*herrors.StoreUnavailable); !ok {
		t.Errorf("expected *herrors.StoreUnavailable, got %T", err)
	}
}
