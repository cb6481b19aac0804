package store

import (
	"compress/bzip2"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hatchpm/hatch/internal/egg"
	"github.com/hatchpm/hatch/internal/herrors"
)

// LocalIndexedStore reads index-depend.bz2 (preferred) or index-depend.txt
// from a local directory; egg archives are expected alongside the index,
// named by their egg filename.
type LocalIndexedStore struct {
	dir     string
	records map[string]egg.Record
}

// NewLocalIndexedStore returns a store rooted at dir. Connect must be
// called before Query.
func NewLocalIndexedStore(dir string) *LocalIndexedStore {
	return &LocalIndexedStore{dir: dir}
}

func (s *LocalIndexedStore) Name() string { return "local-indexed:" + s.dir }

// Connect is idempotent; it re-reads the index every call since the
// directory may change between invocations of a long-lived process, and a
// local read is cheap compared to the remote variant's cache.
func (s *LocalIndexedStore) Connect(_ context.Context, _ Credentials) error {
	data, err := s.readIndex()
	if err != nil {
		return &herrors.StoreUnavailable{Store: s.Name(), Err: err}
	}
	records, err := ParseIndexText(string(data))
	if err != nil {
		return &herrors.StoreUnavailable{Store: s.Name(), Err: err}
	}
	s.records = records
	return nil
}

func (s *LocalIndexedStore) readIndex() ([]byte, error) {
	bz2Path := filepath.Join(s.dir, "index-depend.bz2")
	if f, err := os.Open(bz2Path); err == nil {
		defer f.Close()
		return io.ReadAll(bzip2.NewReader(f))
	}

	txtPath := filepath.Join(s.dir, "index-depend.txt")
	data, err := os.ReadFile(txtPath)
	if err != nil {
		return nil, fmt.Errorf("no index-depend.bz2 or index-depend.txt in %s: %w", s.dir, err)
	}
	return data, nil
}

func (s *LocalIndexedStore) Query(_ context.Context, f Filter) ([]Entry, error) {
	return sortedEntries(s.records, f), nil
}

func (s *LocalIndexedStore) GetMetadata(_ context.Context, key string) (egg.Record, error) {
	rec, ok := s.records[key]
	if !ok {
		return egg.Record{}, &herrors.KeyNotFound{Key: key}
	}
	return rec, nil
}

func (s *LocalIndexedStore) GetData(_ context.Context, key string) (io.ReadCloser, error) {
	if _, ok := s.records[key]; !ok {
		return nil, &herrors.KeyNotFound{Key: key}
	}
	f, err := os.Open(filepath.Join(s.dir, key))
	if err != nil {
		return nil, &herrors.Fatal{Op: "io", Err: err}
	}
	return f, nil
}

func (s *LocalIndexedStore) Exists(_ context.Context, key string) (bool, error) {
	_, ok := s.records[key]
	return ok, nil
}
