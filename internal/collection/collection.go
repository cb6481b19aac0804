// Package collection manages the set of eggs installed into a prefix: the
// unpacked package files plus a metadata sidecar directory per installed
// egg, in either plain (one version per name) or hook (versioned,
// multiple coexisting versions) layout.
package collection

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/hatchpm/hatch/internal/egg"
	"github.com/hatchpm/hatch/internal/herrors"
	"github.com/hatchpm/hatch/internal/store"
)

// Mode selects a prefix's install layout.
type Mode int

const (
	// Plain allows at most one installed version per package name.
	Plain Mode = iota
	// Hook allows multiple versions of the same package to coexist,
	// each in its own sidecar and payload subtree.
	Hook
)

const sidecarRoot = "EGG-INFO"
const sidecarFile = "egg-info.json"

// sidecarEntry is the JSON document written into each installed egg's
// metadata sidecar directory.
type sidecarEntry struct {
	Record      egg.Record             `json:"record"`
	ExtraInfo   map[string]interface{} `json:"extra_info,omitempty"`
	InstalledAt time.Time              `json:"installed_at"`
	Hook        bool                   `json:"hook"`
	Files       []string               `json:"files"`
}

// Collection manages installed eggs within a single prefix directory.
type Collection struct {
	Prefix string
	Mode   Mode
}

// New returns a Collection rooted at prefix with the given layout mode.
func New(prefix string, mode Mode) *Collection {
	return &Collection{Prefix: prefix, Mode: mode}
}

// sidecarKey names the sidecar subdirectory for a record: the canonical
// package name in Plain mode (only one version may exist at a time), or
// the full egg filename in Hook mode (so versions don't collide).
func (c *Collection) sidecarKey(rec egg.Record) string {
	if c.Mode == Hook {
		return rec.Filename()
	}
	return egg.CanonicalName(rec.Name)
}

func (c *Collection) sidecarDir(key string) string {
	return filepath.Join(c.Prefix, sidecarRoot, key)
}

// Install unpacks the egg archive found at filepath.Join(sourceDir,
// eggFilename) into the prefix and writes its metadata sidecar. In Plain
// mode, any existing egg of the same package name under a different
// filename is removed first: its sidecar and the files it recorded.
func (c *Collection) Install(ctx context.Context, eggFilename, sourceDir string, extraInfo map[string]interface{}) error {
	name, version, build, err := egg.SplitEggName(eggFilename)
	if err != nil {
		return err
	}
	if err := validateNoTraversal(name); err != nil {
		return &herrors.ParseError{Input: eggFilename, Err: err}
	}
	rec := egg.Record{Name: egg.CanonicalName(name), Version: version, Build: build}

	archivePath := filepath.Join(sourceDir, eggFilename)
	if _, err := os.Stat(archivePath); err != nil {
		return &herrors.Fatal{Op: "collection.install", Err: fmt.Errorf("egg archive not found at %s: %w", archivePath, err)}
	}

	if c.Mode == Plain {
		if existing, ok, _ := c.findByName(rec.Name); ok && existing.Filename() != eggFilename {
			if err := c.removeSidecarAndFiles(egg.CanonicalName(existing.Name)); err != nil {
				return err
			}
		}
	}

	files, err := unpack(archivePath, c.Prefix)
	if err != nil {
		return &herrors.Fatal{Op: "collection.install", Err: err}
	}

	// Re-read the archive's own spec for the full record (arch, packages,
	// md5, size) rather than trusting only the filename-derived fields.
	full, err := store.ReadEggRecord(archivePath, eggFilename)
	if err != nil {
		return &herrors.Fatal{Op: "collection.install", Err: err}
	}
	rec = full

	key := c.sidecarKey(rec)
	dir := c.sidecarDir(key)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &herrors.Fatal{Op: "collection.install", Err: err}
	}

	entry := sidecarEntry{
		Record:      rec,
		ExtraInfo:   extraInfo,
		InstalledAt: time.Now().UTC(),
		Hook:        c.Mode == Hook,
		Files:       files,
	}
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return &herrors.Fatal{Op: "collection.install", Err: err}
	}

	tmp := filepath.Join(dir, sidecarFile+".tmp")
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return &herrors.Fatal{Op: "collection.install", Err: err}
	}
	if err := os.Rename(tmp, filepath.Join(dir, sidecarFile)); err != nil {
		os.Remove(tmp)
		return &herrors.Fatal{Op: "collection.install", Err: err}
	}
	return nil
}

// Remove deletes an installed egg's unpacked files and its sidecar. It
// returns *herrors.NotInstalled if no such egg is present.
func (c *Collection) Remove(ctx context.Context, eggFilename string) error {
	name, _, _, err := egg.SplitEggName(eggFilename)
	if err != nil {
		return err
	}
	if err := validateNoTraversal(name); err != nil {
		return &herrors.ParseError{Input: eggFilename, Err: err}
	}

	key := eggFilename
	if c.Mode == Plain {
		key = egg.CanonicalName(name)
	}

	entry, ok, err := c.readSidecar(key)
	if err != nil {
		return err
	}
	if !ok || entry.Record.Filename() != eggFilename {
		return &herrors.NotInstalled{EggFilename: eggFilename}
	}

	return c.removeSidecarAndFiles(key)
}

func (c *Collection) removeSidecarAndFiles(key string) error {
	entry, ok, err := c.readSidecar(key)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	for _, rel := range entry.Files {
		p := filepath.Join(c.Prefix, rel)
		if !isPathWithinDirectory(p, c.Prefix) {
			continue
		}
		_ = os.Remove(p)
	}
	return os.RemoveAll(c.sidecarDir(key))
}

// Find looks up a single installed egg by its exact filename.
func (c *Collection) Find(ctx context.Context, eggFilename string) (egg.Record, bool, error) {
	records, err := c.Query(ctx, "")
	if err != nil {
		return egg.Record{}, false, err
	}
	for _, r := range records {
		if r.Filename() == eggFilename {
			return r, true, nil
		}
	}
	return egg.Record{}, false, nil
}

// Query lists installed eggs, optionally filtered by canonical package
// name (empty string matches everything).
func (c *Collection) Query(ctx context.Context, name string) ([]egg.Record, error) {
	root := filepath.Join(c.Prefix, sidecarRoot)
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &herrors.Fatal{Op: "collection.query", Err: err}
	}

	var records []egg.Record
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		entry, ok, err := c.readSidecar(e.Name())
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if name != "" && egg.CanonicalName(entry.Record.Name) != egg.CanonicalName(name) {
			continue
		}
		records = append(records, entry.Record)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Filename() < records[j].Filename() })
	return records, nil
}

func (c *Collection) findByName(name string) (egg.Record, bool, error) {
	records, err := c.Query(context.Background(), name)
	if err != nil || len(records) == 0 {
		return egg.Record{}, false, err
	}
	return records[0], true, nil
}

func (c *Collection) readSidecar(key string) (sidecarEntry, bool, error) {
	path := filepath.Join(c.sidecarDir(key), sidecarFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return sidecarEntry{}, false, nil
		}
		return sidecarEntry{}, false, &herrors.Fatal{Op: "collection.readSidecar", Err: err}
	}
	var entry sidecarEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return sidecarEntry{}, false, &herrors.Fatal{Op: "collection.readSidecar", Err: err}
	}
	return entry, true, nil
}

// validateNoTraversal guards against a malicious or corrupt egg filename
// being used to build a sidecar path outside the prefix.
func validateNoTraversal(s string) error {
	if strings.Contains(s, "..") || strings.ContainsAny(s, "/\\") {
		return fmt.Errorf("invalid path component: %q", s)
	}
	return nil
}
