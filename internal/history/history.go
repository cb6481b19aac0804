// Package history maintains a per-prefix, append-only log of the set
// of eggs installed at each point in time, enabling lookup and revert
// of a prior installation state.
package history

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hatchpm/hatch/internal/herrors"
)

const logFileName = "history.txt"

// Revision is one recorded point in a prefix's installation history.
type Revision struct {
	Rev       int
	Timestamp time.Time
	State     []string // egg filenames, sorted
}

// History reads and appends to one prefix's history log.
type History struct {
	Path string
}

// New returns a History backed by "<prefix>/history.txt".
func New(prefix string) *History {
	return &History{Path: filepath.Join(prefix, logFileName)}
}

// Load reads every recorded revision, oldest first.
func (h *History) Load() ([]Revision, error) {
	data, err := os.ReadFile(h.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &herrors.Fatal{Op: "history.load", Err: err}
	}
	return parseLog(string(data))
}

func parseLog(text string) ([]Revision, error) {
	var revisions []Revision
	for _, block := range strings.Split(text, "\n\n") {
		block = strings.TrimRight(block, "\n")
		if block == "" {
			continue
		}
		lines := strings.Split(block, "\n")
		if len(lines) < 2 {
			return nil, &herrors.Fatal{Op: "history.parse", Err: fmt.Errorf("malformed entry: %q", block)}
		}
		rev, err := strconv.Atoi(strings.TrimSpace(lines[0]))
		if err != nil {
			return nil, &herrors.Fatal{Op: "history.parse", Err: fmt.Errorf("bad revision number %q: %w", lines[0], err)}
		}
		ts, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(lines[1]))
		if err != nil {
			return nil, &herrors.Fatal{Op: "history.parse", Err: fmt.Errorf("bad timestamp %q: %w", lines[1], err)}
		}
		state := append([]string{}, lines[2:]...)
		revisions = append(revisions, Revision{Rev: rev, Timestamp: ts, State: state})
	}
	return revisions, nil
}

// Record snapshots state (a set of installed egg filenames) and
// appends a new revision if it differs from the most recently recorded
// one. It returns the new revision, or the prior one unchanged (ok =
// false) if nothing changed. State is normalized to a sorted, deduped
// list before comparison and storage.
func (h *History) Record(state []string, now time.Time) (rev Revision, appended bool, err error) {
	normalized := normalizeState(state)

	revisions, err := h.Load()
	if err != nil {
		return Revision{}, false, err
	}

	nextRev := 1
	if len(revisions) > 0 {
		last := revisions[len(revisions)-1]
		if sameState(last.State, normalized) {
			return last, false, nil
		}
		nextRev = last.Rev + 1
	}

	newRevision := Revision{Rev: nextRev, Timestamp: now, State: normalized}
	if err := h.append(newRevision); err != nil {
		return Revision{}, false, err
	}
	return newRevision, true, nil
}

func (h *History) append(rev Revision) error {
	if err := os.MkdirAll(filepath.Dir(h.Path), 0755); err != nil {
		return &herrors.Fatal{Op: "history.append", Err: err}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d\n", rev.Rev)
	fmt.Fprintf(&b, "%s\n", rev.Timestamp.UTC().Format(time.RFC3339Nano))
	for _, filename := range rev.State {
		fmt.Fprintf(&b, "%s\n", filename)
	}
	b.WriteString("\n")

	f, err := os.OpenFile(h.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return &herrors.Fatal{Op: "history.append", Err: err}
	}
	defer f.Close()

	if _, err := f.WriteString(b.String()); err != nil {
		return &herrors.Fatal{Op: "history.append", Err: err}
	}
	return nil
}

// GetState resolves rev to a recorded Revision. An integer string
// indexes revisions by their Rev number; any other string is parsed as
// an RFC3339 timestamp and resolves to the latest revision whose
// timestamp is less than or equal to it. A miss of either kind returns
// *herrors.NoSuchRevision.
func (h *History) GetState(rev string) (Revision, error) {
	revisions, err := h.Load()
	if err != nil {
		return Revision{}, err
	}

	if n, convErr := strconv.Atoi(strings.TrimSpace(rev)); convErr == nil {
		for _, r := range revisions {
			if r.Rev == n {
				return r, nil
			}
		}
		return Revision{}, &herrors.NoSuchRevision{Query: rev}
	}

	target, err := time.Parse(time.RFC3339Nano, rev)
	if err != nil {
		target, err = time.Parse(time.RFC3339, rev)
	}
	if err != nil {
		return Revision{}, &herrors.NoSuchRevision{Query: rev}
	}

	var best *Revision
	for i := range revisions {
		r := revisions[i]
		if !r.Timestamp.After(target) {
			if best == nil || r.Timestamp.After(best.Timestamp) {
				best = &r
			}
		}
	}
	if best == nil {
		return Revision{}, &herrors.NoSuchRevision{Query: rev}
	}
	return *best, nil
}

// Diff computes what must be removed and installed to move from
// current to target: to_remove = current - target, to_install = target
// - current.
func Diff(current, target []string) (toRemove, toInstall []string) {
	currentSet := map[string]bool{}
	for _, f := range current {
		currentSet[f] = true
	}
	targetSet := map[string]bool{}
	for _, f := range target {
		targetSet[f] = true
	}

	for _, f := range current {
		if !targetSet[f] {
			toRemove = append(toRemove, f)
		}
	}
	for _, f := range target {
		if !currentSet[f] {
			toInstall = append(toInstall, f)
		}
	}
	sort.Strings(toRemove)
	sort.Strings(toInstall)
	return toRemove, toInstall
}

// Fetcher retrieves an egg into the local cache if it isn't already
// present there, verified.
type Fetcher interface {
	FetchEgg(ctx context.Context, key string, force bool, progress func(key string, written, total int64)) error
}

// Installer applies or undoes a single egg's installation into a prefix.
type Installer interface {
	Install(ctx context.Context, eggFilename, sourceDir string, extraInfo map[string]interface{}) error
	Remove(ctx context.Context, eggFilename string) error
}

// Revert moves the prefix from its current installed set to the set
// recorded at rev: eggs present only in the current set are removed,
// eggs present only in the target set are fetched (if not already in
// the local cache) and installed. Removes run before installs, per the
// ordering guarantee that a dependency is always present before the
// package that needs it is unpacked — callers are responsible for
// passing current/toRemove/toInstall already in a safe order when
// dependency relationships matter beyond this simple revert.
func Revert(ctx context.Context, fetcher Fetcher, installer Installer, sourceDir string, current []string, target Revision) error {
	toRemove, toInstall := Diff(current, target.State)

	for _, filename := range toRemove {
		if err := installer.Remove(ctx, filename); err != nil {
			if _, ok := err.(*herrors.NotInstalled); !ok {
				return err
			}
		}
	}

	for _, filename := range toInstall {
		if err := fetcher.FetchEgg(ctx, filename, false, nil); err != nil {
			return err
		}
		if err := installer.Install(ctx, filename, sourceDir, nil); err != nil {
			return err
		}
	}

	return nil
}

func normalizeState(state []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, f := range state {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	sort.Strings(out)
	return out
}

func sameState(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
