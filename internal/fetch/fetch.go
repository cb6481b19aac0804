// Package fetch downloads eggs from a store into a local cache directory,
// verifying content against the store's declared md5 and staging each
// download atomically so a crash or interrupted transfer never leaves a
// corrupt file at its final name.
package fetch

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hatchpm/hatch/internal/herrors"
	"github.com/hatchpm/hatch/internal/store"
)

// ProgressFunc is called periodically during a download with bytes
// written so far and the total size (0 if the store didn't report one).
type ProgressFunc func(key string, written, total int64)

// Fetcher downloads eggs from a store into a single local cache directory.
type Fetcher struct {
	CacheDir string
	Store    store.Store
}

// New returns a Fetcher that caches downloads from s into cacheDir.
func New(s store.Store, cacheDir string) *Fetcher {
	return &Fetcher{CacheDir: cacheDir, Store: s}
}

// FetchEgg ensures key is present and verified in the cache directory. If
// the target file already exists and force is false, its md5 is compared
// against the store's metadata; a match skips the download entirely. A
// mismatch, a missing file, or force=true triggers a fresh download
// staged at "<key>.part" and renamed into place only after the full
// transfer's md5 matches the store's declared value.
func (f *Fetcher) FetchEgg(ctx context.Context, key string, force bool, progress ProgressFunc) error {
	meta, err := f.Store.GetMetadata(ctx, key)
	if err != nil {
		return err
	}

	target := filepath.Join(f.CacheDir, key)

	if !force {
		if sum, err := md5OfFile(target); err == nil && sum == meta.MD5 {
			return nil
		}
	}

	if err := os.MkdirAll(f.CacheDir, 0755); err != nil {
		return &herrors.Fatal{Op: "fetch.mkdir", Err: err}
	}

	rc, err := f.Store.GetData(ctx, key)
	if err != nil {
		return err
	}
	defer rc.Close()

	partPath := target + ".part"
	out, err := os.OpenFile(partPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return &herrors.Fatal{Op: "fetch.create", Err: err}
	}

	hasher := md5.New()
	writer := io.MultiWriter(out, hasher)

	var written int64
	buf := make([]byte, 32*1024)
	for {
		if err := ctx.Err(); err != nil {
			out.Close()
			os.Remove(partPath)
			return &herrors.Fatal{Op: "fetch.download", Err: err}
		}
		n, readErr := rc.Read(buf)
		if n > 0 {
			if _, werr := writer.Write(buf[:n]); werr != nil {
				out.Close()
				os.Remove(partPath)
				return &herrors.Fatal{Op: "fetch.write", Err: werr}
			}
			written += int64(n)
			if progress != nil {
				progress(key, written, meta.Size)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			out.Close()
			os.Remove(partPath)
			return &herrors.Fatal{Op: "fetch.download", Err: readErr}
		}
	}

	if err := out.Close(); err != nil {
		os.Remove(partPath)
		return &herrors.Fatal{Op: "fetch.close", Err: err}
	}

	actual := hex.EncodeToString(hasher.Sum(nil))
	if meta.MD5 != "" && actual != meta.MD5 {
		os.Remove(partPath)
		return &herrors.IntegrityError{Key: key, Expected: meta.MD5, Actual: actual}
	}

	if err := os.Rename(partPath, target); err != nil {
		os.Remove(partPath)
		return &herrors.Fatal{Op: "fetch.rename", Err: err}
	}
	return nil
}

func md5OfFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
