package store

import (
	"archive/zip"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hatchpm/hatch/internal/egg"
	"github.com/hatchpm/hatch/internal/herrors"
)

// eggSpecMember is the path, inside every egg archive, of the record body
// describing that egg's own dependencies.
const eggSpecMember = "EGG-INFO/spec/depend"

// LocalRepo is an unindexed local directory of .egg archives: it builds an
// in-memory index by opening each archive and reading its embedded spec,
// rather than trusting a separate index-depend file.
type LocalRepo struct {
	dir     string
	records map[string]egg.Record
}

// NewLocalRepo returns a repo rooted at dir. Connect must be called before
// Query.
func NewLocalRepo(dir string) *LocalRepo {
	return &LocalRepo{dir: dir}
}

func (s *LocalRepo) Name() string { return "local-repo:" + s.dir }

func (s *LocalRepo) Connect(_ context.Context, _ Credentials) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return &herrors.StoreUnavailable{Store: s.Name(), Err: err}
	}

	records := make(map[string]egg.Record)
	for _, entry := range entries {
		if entry.IsDir() || !egg.IsValidEggName(entry.Name()) {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		rec, err := readEggRecord(path, entry.Name())
		if err != nil {
			return &herrors.StoreUnavailable{Store: s.Name(), Err: fmt.Errorf("%s: %w", entry.Name(), err)}
		}
		records[entry.Name()] = rec
	}

	s.records = records
	return nil
}

// ReadEggRecord opens the egg archive at path and builds its Record from
// the embedded EGG-INFO/spec/depend body, with md5 and size computed from
// the archive file itself. Exported so other packages that need an egg's
// real metadata without going through a Store (e.g. internal/collection,
// confirming what was actually unpacked) can reuse the same parsing path.
func ReadEggRecord(path, filename string) (egg.Record, error) {
	return readEggRecord(path, filename)
}

func readEggRecord(path, filename string) (egg.Record, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return egg.Record{}, err
	}
	defer zr.Close()

	var fields map[string]interface{}
	for _, f := range zr.File {
		if f.Name != eggSpecMember {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return egg.Record{}, err
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return egg.Record{}, err
		}
		fields, err = ParseEggSpec(string(data))
		if err != nil {
			return egg.Record{}, err
		}
		break
	}
	if fields == nil {
		return egg.Record{}, fmt.Errorf("missing %s", eggSpecMember)
	}

	rec, err := recordFromSection(filename, fields, false)
	if err != nil {
		return egg.Record{}, err
	}

	md5sum, size, err := md5AndSize(path)
	if err != nil {
		return egg.Record{}, err
	}
	rec.MD5 = md5sum
	rec.Size = size

	return rec, nil
}

func md5AndSize(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	h := md5.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

func (s *LocalRepo) Query(_ context.Context, f Filter) ([]Entry, error) {
	return sortedEntries(s.records, f), nil
}

func (s *LocalRepo) GetMetadata(_ context.Context, key string) (egg.Record, error) {
	rec, ok := s.records[key]
	if !ok {
		return egg.Record{}, &herrors.KeyNotFound{Key: key}
	}
	return rec, nil
}

func (s *LocalRepo) GetData(_ context.Context, key string) (io.ReadCloser, error) {
	if _, ok := s.records[key]; !ok {
		return nil, &herrors.KeyNotFound{Key: key}
	}
	f, err := os.Open(filepath.Join(s.dir, key))
	if err != nil {
		return nil, &herrors.Fatal{Op: "io", Err: err}
	}
	return f, nil
}

func (s *LocalRepo) Exists(_ context.Context, key string) (bool, error) {
	_, ok := s.records[key]
	return ok, nil
}
