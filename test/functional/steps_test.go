package functional

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cucumber/godog"

	"github.com/hatchpm/hatch/internal/collection"
	"github.com/hatchpm/hatch/internal/egg"
	"github.com/hatchpm/hatch/internal/executor"
	"github.com/hatchpm/hatch/internal/facade"
	"github.com/hatchpm/hatch/internal/fetch"
	"github.com/hatchpm/hatch/internal/herrors"
	"github.com/hatchpm/hatch/internal/history"
	"github.com/hatchpm/hatch/internal/requirement"
	"github.com/hatchpm/hatch/internal/resolver"
	"github.com/hatchpm/hatch/internal/store"
)

// snapshot captures a labeled point in the installed set's history, so
// a scenario can refer back to it by name ("S0") instead of a revision
// number it never sees directly.
type snapshot struct {
	rev       int
	filenames []string
}

// scenarioState carries everything one godog scenario touches: the
// in-memory store behind the scenario's Facade, the outcome of the
// last command step, and any labeled snapshots it has taken.
type scenarioState struct {
	prefix    string
	store     *memStore
	facade    *facade.Facade
	lastErr   error
	lastPlan  executor.Plan
	snapshots map[string]snapshot
}

func newScenarioState(ctx context.Context) *scenarioState {
	prefix, err := os.MkdirTemp("", "hatch-functional-")
	if err != nil {
		panic(fmt.Sprintf("creating scenario prefix: %v", err))
	}
	cacheDir := filepath.Join(prefix, "LOCAL-REPO")

	s := newMemStore()
	r := resolver.New(s)
	col := collection.NewJoined(collection.New(prefix, collection.Plain))
	f := fetch.New(s, cacheDir)
	h := history.New(prefix)

	return &scenarioState{
		prefix:    prefix,
		store:     s,
		facade:    facade.New(s, r, col, f, h, true, cacheDir),
		snapshots: map[string]snapshot{},
	}
}

// memStore is an in-memory store.Store serving real egg archive bytes,
// mirroring the pattern the facade package's own tests use to exercise
// fetch and collection through a real Facade rather than mocks.
type memStore struct {
	records map[string]egg.Record
	bytes   map[string][]byte
	corrupt map[string]bool
}

func newMemStore() *memStore {
	return &memStore{
		records: map[string]egg.Record{},
		bytes:   map[string][]byte{},
		corrupt: map[string]bool{},
	}
}

func (m *memStore) add(name, version string, build int, deps []string) (string, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	spec, err := zw.Create("EGG-INFO/spec/depend")
	if err != nil {
		return "", err
	}
	if _, err := spec.Write([]byte("")); err != nil {
		return "", err
	}
	payload, err := zw.Create("bin/" + name)
	if err != nil {
		return "", err
	}
	if _, err := payload.Write([]byte(name + " " + version)); err != nil {
		return "", err
	}
	if err := zw.Close(); err != nil {
		return "", err
	}

	data := buf.Bytes()
	sum := md5.Sum(data)
	rec := egg.Record{
		Name:     name,
		Version:  version,
		Build:    build,
		Packages: deps,
		MD5:      hex.EncodeToString(sum[:]),
		Size:     int64(len(data)),
	}
	m.records[rec.Filename()] = rec
	m.bytes[rec.Filename()] = data
	return rec.Filename(), nil
}

func (m *memStore) Name() string { return "mem" }

func (m *memStore) Connect(context.Context, store.Credentials) error { return nil }

func (m *memStore) Query(_ context.Context, f store.Filter) ([]store.Entry, error) {
	var entries []store.Entry
	for key, r := range m.records {
		if f.Name != "" && egg.CanonicalName(r.Name) != egg.CanonicalName(f.Name) {
			continue
		}
		entries = append(entries, store.Entry{Key: key, Record: r})
	}
	return entries, nil
}

func (m *memStore) GetMetadata(_ context.Context, key string) (egg.Record, error) {
	r, ok := m.records[key]
	if !ok {
		return egg.Record{}, &herrors.KeyNotFound{Key: key}
	}
	if m.corrupt[key] {
		r.MD5 = strings.Repeat("0", 32)
	}
	return r, nil
}

func (m *memStore) GetData(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := m.bytes[key]
	if !ok {
		return nil, &herrors.KeyNotFound{Key: key}
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memStore) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.records[key]
	return ok, nil
}

// --- setup steps ---

// aHookModeEnvironment rebuilds the scenario's Facade in Hook mode, so
// several versions of the same package name can be installed side by
// side instead of Plain mode's one-version-per-name replacement.
func aHookModeEnvironment(ctx context.Context) error {
	st := getState(ctx)
	cacheDir := filepath.Join(st.prefix, "LOCAL-REPO")
	r := resolver.New(st.store)
	col := collection.NewJoined(collection.New(st.prefix, collection.Hook))
	f := fetch.New(st.store, cacheDir)
	h := history.New(st.prefix)
	st.facade = facade.New(st.store, r, col, f, h, false, cacheDir)
	return nil
}

func aStoreEggWithNoDeps(ctx context.Context, name, version string, build int) error {
	_, err := getState(ctx).store.add(name, version, build, nil)
	return err
}

func aStoreEggDependingOn(ctx context.Context, name, version string, build int, dep string) error {
	_, err := getState(ctx).store.add(name, version, build, []string{dep})
	return err
}

func theStoreEggIsCorrupt(ctx context.Context, filename string) error {
	st := getState(ctx)
	if _, ok := st.store.records[filename]; !ok {
		return fmt.Errorf("no such store egg: %s", filename)
	}
	st.store.corrupt[filename] = true
	return nil
}

func packageIsAlreadyInstalled(ctx context.Context, name, version string, build int) error {
	st := getState(ctx)
	req := requirement.MustParse(fmt.Sprintf("%s %s %d", name, version, build))
	_, err := st.facade.Install(ctx, req, resolver.ModeRecur, false, false, nil)
	return err
}

// --- command steps ---

func iComputeInstallActionsFor(ctx context.Context, reqStr string) error {
	st := getState(ctx)
	req, err := requirement.Parse(reqStr)
	if err != nil {
		st.lastErr = err
		st.lastPlan = nil
		return nil
	}
	plan, _, err := st.facade.InstallActions(ctx, req, resolver.ModeRecur, false, false)
	st.lastPlan = plan
	st.lastErr = err
	return nil
}

func iInstallRequirement(ctx context.Context, reqStr string) error {
	st := getState(ctx)
	req, err := requirement.Parse(reqStr)
	if err != nil {
		st.lastErr = err
		return nil
	}
	_, err = st.facade.Install(ctx, req, resolver.ModeRecur, false, false, nil)
	st.lastErr = err
	return nil
}

func iRemoveRequirement(ctx context.Context, reqStr string) error {
	st := getState(ctx)
	req, err := requirement.Parse(reqStr)
	if err != nil {
		st.lastErr = err
		return nil
	}
	_, err = st.facade.Remove(ctx, req, nil)
	st.lastErr = err
	return nil
}

func iRecordTheInstalledSetAs(ctx context.Context, label string) error {
	st := getState(ctx)
	filenames, err := installedFilenames(ctx, st)
	if err != nil {
		return err
	}
	rev, _, err := st.facade.History.Record(filenames, time.Now())
	if err != nil {
		return err
	}
	st.snapshots[label] = snapshot{rev: rev.Rev, filenames: filenames}
	return nil
}

func iRevertTo(ctx context.Context, label string) error {
	st := getState(ctx)
	snap, ok := st.snapshots[label]
	if !ok {
		return fmt.Errorf("no snapshot recorded as %q", label)
	}
	st.lastErr = st.facade.Revert(ctx, strconv.Itoa(snap.rev))
	return nil
}

// --- assertion steps ---

func thePlanIs(ctx context.Context, table *godog.Table) error {
	st := getState(ctx)
	if st.lastErr != nil {
		return fmt.Errorf("expected a plan but the last command failed: %v", st.lastErr)
	}
	if len(st.lastPlan) != len(table.Rows)-1 {
		return fmt.Errorf("plan has %d steps, want %d: %v", len(st.lastPlan), len(table.Rows)-1, st.lastPlan)
	}
	for i, row := range table.Rows[1:] {
		wantAction := row.Cells[0].Value
		wantEgg := row.Cells[1].Value
		got := st.lastPlan[i]
		if string(got.Action) != wantAction || got.EggFilename != wantEgg {
			return fmt.Errorf("step %d = %q, want %q %q", i, got.String(), wantAction, wantEgg)
		}
	}
	return nil
}

func theErrorIs(ctx context.Context, kind string) error {
	st := getState(ctx)
	if st.lastErr == nil {
		return fmt.Errorf("expected an error of kind %s, got none", kind)
	}
	var matches bool
	switch kind {
	case "NoCandidate":
		_, matches = asError[*herrors.NoCandidate](st.lastErr)
	case "Ambiguous":
		_, matches = asError[*herrors.Ambiguous](st.lastErr)
	case "IntegrityError":
		_, matches = asError[*herrors.IntegrityError](st.lastErr)
	case "NotInstalled":
		_, matches = asError[*herrors.NotInstalled](st.lastErr)
	case "NoSuchRevision":
		_, matches = asError[*herrors.NoSuchRevision](st.lastErr)
	case "Conflict":
		_, matches = asError[*herrors.Conflict](st.lastErr)
	case "ParseError":
		_, matches = asError[*herrors.ParseError](st.lastErr)
	default:
		return fmt.Errorf("unknown error kind in step definition: %s", kind)
	}
	if !matches {
		return fmt.Errorf("expected error of kind %s, got %T: %v", kind, st.lastErr, st.lastErr)
	}
	return nil
}

func asError[T error](err error) (T, bool) {
	var target T
	if e, ok := err.(T); ok {
		target = e
		return target, true
	}
	return target, false
}

func thereIsNoError(ctx context.Context) error {
	st := getState(ctx)
	if st.lastErr != nil {
		return fmt.Errorf("expected no error, got: %v", st.lastErr)
	}
	return nil
}

func packageIsInstalledAssertion(ctx context.Context, name string) error {
	st := getState(ctx)
	records, err := st.facade.QueryInstalled(ctx, name)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("expected %q to be installed", name)
	}
	return nil
}

func packageIsNotInstalledAssertion(ctx context.Context, name string) error {
	st := getState(ctx)
	records, err := st.facade.QueryInstalled(ctx, name)
	if err != nil {
		return err
	}
	if len(records) != 0 {
		return fmt.Errorf("expected %q not to be installed, got %v", name, records)
	}
	return nil
}

func theInstalledSetEqualsRecordedAs(ctx context.Context, label string) error {
	st := getState(ctx)
	snap, ok := st.snapshots[label]
	if !ok {
		return fmt.Errorf("no snapshot recorded as %q", label)
	}
	current, err := installedFilenames(ctx, st)
	if err != nil {
		return err
	}
	want := append([]string{}, snap.filenames...)
	sort.Strings(want)
	sort.Strings(current)
	if len(current) != len(want) {
		return fmt.Errorf("installed set %v, want %v", current, want)
	}
	for i := range current {
		if current[i] != want[i] {
			return fmt.Errorf("installed set %v, want %v", current, want)
		}
	}
	return nil
}

func theDownloadCacheHasNoFileFor(ctx context.Context, filename string) error {
	st := getState(ctx)
	for _, candidate := range []string{filename, filename + ".part"} {
		path := filepath.Join(st.facade.SourceDir, candidate)
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("expected no cache file at %s", path)
		}
	}
	return nil
}

func installedFilenames(ctx context.Context, st *scenarioState) ([]string, error) {
	records, err := st.facade.QueryInstalled(ctx, "")
	if err != nil {
		return nil, err
	}
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Filename()
	}
	return out, nil
}
