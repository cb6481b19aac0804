package collection

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// eggInfoPrefix marks the in-archive directory that holds the egg's own
// spec/metadata, never extracted as package payload.
const eggInfoPrefix = "EGG-INFO/"

// isPathWithinDirectory reports whether targetPath is contained within
// basePath, guarding against zip entries that attempt path traversal.
func isPathWithinDirectory(targetPath, basePath string) bool {
	absTarget, err := filepath.Abs(targetPath)
	if err != nil {
		return false
	}
	absBase, err := filepath.Abs(basePath)
	if err != nil {
		return false
	}
	return absTarget == absBase || strings.HasPrefix(absTarget, absBase+string(os.PathSeparator))
}

// unpack extracts every member of the egg archive at archivePath into
// destDir, except the EGG-INFO/ tree, and returns the relative paths of
// every regular file it wrote (used by Collection.Install to record what
// to remove later).
func unpack(archivePath, destDir string) ([]string, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open egg archive: %w", err)
	}
	defer r.Close()

	var written []string
	for _, f := range r.File {
		cleanPath := strings.TrimPrefix(f.Name, "./")
		if strings.HasPrefix(cleanPath, eggInfoPrefix) {
			continue
		}

		target := filepath.Join(destDir, cleanPath)
		if !isPathWithinDirectory(target, destDir) {
			return nil, fmt.Errorf("egg archive entry escapes destination directory: %s", f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return nil, fmt.Errorf("failed to create directory: %w", err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return nil, fmt.Errorf("failed to create parent directory: %w", err)
		}

		if err := extractOne(f, target); err != nil {
			return nil, err
		}
		written = append(written, cleanPath)
	}
	return written, nil
}

func extractOne(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open file in egg archive: %w", err)
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_RDWR|os.O_TRUNC, f.Mode())
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, rc); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}
