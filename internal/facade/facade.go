// Package facade exposes the single surface CLI and programmatic
// clients drive: queries across remote and installed eggs, building
// and optionally executing install/remove plans, and reverting a
// prefix to a prior history revision.
package facade

import (
	"context"
	"fmt"
	"time"

	"github.com/hatchpm/hatch/internal/collection"
	"github.com/hatchpm/hatch/internal/egg"
	"github.com/hatchpm/hatch/internal/executor"
	"github.com/hatchpm/hatch/internal/fetch"
	"github.com/hatchpm/hatch/internal/herrors"
	"github.com/hatchpm/hatch/internal/history"
	"github.com/hatchpm/hatch/internal/log"
	"github.com/hatchpm/hatch/internal/requirement"
	"github.com/hatchpm/hatch/internal/resolver"
	"github.com/hatchpm/hatch/internal/store"
)

// Facade ties the resolver, joined store, joined collection, fetcher,
// executor, and history together behind the operations the CLI and
// any programmatic client need.
type Facade struct {
	Store      store.Store
	Resolver   *resolver.Resolver
	Collection *collection.JoinedCollection
	Fetcher    *fetch.Fetcher
	History    *history.History
	Plain      bool // true = Plain mode, false = Hook mode
	SourceDir  string
	Logger     log.Logger
}

// New wires a Facade from its already-constructed components. s and
// the resolver's store should be the same joined store; sourceDir is
// the fetch cache directory passed to every Collection.Install call.
func New(s store.Store, r *resolver.Resolver, c *collection.JoinedCollection, f *fetch.Fetcher, h *history.History, plain bool, sourceDir string) *Facade {
	return &Facade{Store: s, Resolver: r, Collection: c, Fetcher: f, History: h, Plain: plain, SourceDir: sourceDir, Logger: log.Default()}
}

// QueryRemote lists every record in the store matching name (empty
// matches everything).
func (f *Facade) QueryRemote(ctx context.Context, name string) ([]egg.Record, error) {
	entries, err := f.Store.Query(ctx, store.Filter{Name: name})
	if err != nil {
		return nil, err
	}
	records := make([]egg.Record, 0, len(entries))
	for _, e := range entries {
		records = append(records, e.Record)
	}
	return records, nil
}

// QueryInstalled lists installed eggs matching name (empty matches
// everything).
func (f *Facade) QueryInstalled(ctx context.Context, name string) ([]egg.Record, error) {
	return f.Collection.Query(ctx, name)
}

// Query unions remote and installed records for name, with the
// installed copy winning whenever a name appears in both.
func (f *Facade) Query(ctx context.Context, name string) ([]egg.Record, error) {
	installed, err := f.QueryInstalled(ctx, name)
	if err != nil {
		return nil, err
	}
	remote, err := f.QueryRemote(ctx, name)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(installed))
	out := make([]egg.Record, 0, len(installed)+len(remote))
	for _, r := range installed {
		seen[egg.CanonicalName(r.Name)] = true
		out = append(out, r)
	}
	for _, r := range remote {
		if seen[egg.CanonicalName(r.Name)] {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// InstallActions resolves arg under mode (root: just arg itself; recur:
// arg plus its full dependency closure) and builds the plan that would
// install it, without executing anything beyond the store connect the
// resolver's query requires.
func (f *Facade) InstallActions(ctx context.Context, arg requirement.Requirement, mode resolver.Mode, force, forceall bool) (executor.Plan, []string, error) {
	installSeq, err := f.Resolver.InstallSequence(ctx, arg, mode)
	if err != nil {
		return nil, nil, err
	}

	installedFilenames, installedByName, err := f.installedIndex(ctx)
	if err != nil {
		return nil, nil, err
	}

	plan := executor.BuildPlan(installSeq, installedFilenames, installedByName, f.Plain, force, forceall)
	return plan, installSeq, nil
}

// Install resolves arg, builds the plan, executes it, and records a
// new history revision if the installed set changed. It returns the
// count of steps that performed real work.
func (f *Facade) Install(ctx context.Context, arg requirement.Requirement, mode resolver.Mode, force, forceall bool, sink executor.Sink) (int, error) {
	plan, _, err := f.InstallActions(ctx, arg, mode, force, forceall)
	if err != nil {
		return 0, err
	}

	ex := executor.New(f.Fetcher, f.Collection, f.SourceDir)
	performed, err := ex.Execute(ctx, plan, sink, f.Logger)
	if err != nil {
		return performed, err
	}

	if err := f.snapshotHistory(ctx, time.Now()); err != nil {
		return performed, err
	}
	return performed, nil
}

// RemoveActions resolves req against the primary collection and
// returns the single-step plan that removes the matching egg. req
// must have strictness >= StrictnessName and, in either mode, must
// match exactly one installed egg (two or more is *herrors.Ambiguous).
func (f *Facade) RemoveActions(ctx context.Context, req requirement.Requirement) (executor.Plan, error) {
	if req.Strictness() < requirement.StrictnessName {
		return nil, &herrors.ParseError{Input: req.String(), Err: fmt.Errorf("remove requires a requirement naming at least a package name")}
	}

	installed, err := f.Collection.Primary.Query(ctx, req.Name)
	if err != nil {
		return nil, err
	}

	var matches []egg.Record
	for _, r := range installed {
		if req.Matches(r) {
			matches = append(matches, r)
		}
	}

	if len(matches) == 0 {
		return nil, &herrors.NotInstalled{EggFilename: req.String()}
	}
	// Plain mode's one-version-per-name invariant means len(matches) > 1
	// there only in pathological states; hook mode is where a bare-name
	// requirement routinely matches every installed version, and the
	// caller must disambiguate by version/build.
	if len(matches) > 1 {
		filenames := make([]string, len(matches))
		for i, m := range matches {
			filenames[i] = m.Filename()
		}
		return nil, &herrors.Ambiguous{Requirement: req.String(), Matches: filenames}
	}

	plan := executor.Plan{}
	for _, m := range matches {
		plan = append(plan, executor.Step{Action: executor.Remove, EggFilename: m.Filename()})
	}
	return plan, nil
}

// Remove resolves req, removes the matching egg(s), and records a new
// history revision if the installed set changed.
func (f *Facade) Remove(ctx context.Context, req requirement.Requirement, sink executor.Sink) (int, error) {
	plan, err := f.RemoveActions(ctx, req)
	if err != nil {
		return 0, err
	}

	ex := executor.New(f.Fetcher, f.Collection, f.SourceDir)
	performed, err := ex.Execute(ctx, plan, sink, f.Logger)
	if err != nil {
		return performed, err
	}

	if err := f.snapshotHistory(ctx, time.Now()); err != nil {
		return performed, err
	}
	return performed, nil
}

// Revert moves the primary collection's installed set to the state
// recorded at rev.
func (f *Facade) Revert(ctx context.Context, rev string) error {
	target, err := f.History.GetState(rev)
	if err != nil {
		return err
	}

	current, err := f.installedFilenameList(ctx)
	if err != nil {
		return err
	}

	if err := history.Revert(ctx, f.Fetcher, f.Collection, f.SourceDir, current, target); err != nil {
		return err
	}
	return f.snapshotHistory(ctx, time.Now())
}

func (f *Facade) snapshotHistory(ctx context.Context, now time.Time) error {
	current, err := f.installedFilenameList(ctx)
	if err != nil {
		return err
	}
	_, _, err = f.History.Record(current, now)
	return err
}

func (f *Facade) installedFilenameList(ctx context.Context) ([]string, error) {
	records, err := f.Collection.Primary.Query(ctx, "")
	if err != nil {
		return nil, err
	}
	filenames := make([]string, len(records))
	for i, r := range records {
		filenames[i] = r.Filename()
	}
	return filenames, nil
}

func (f *Facade) installedIndex(ctx context.Context) (filenames map[string]bool, byName map[string]string, err error) {
	records, err := f.Collection.Primary.Query(ctx, "")
	if err != nil {
		return nil, nil, err
	}
	filenames = make(map[string]bool, len(records))
	byName = make(map[string]string, len(records))
	for _, r := range records {
		filenames[r.Filename()] = true
		byName[egg.CanonicalName(r.Name)] = r.Filename()
	}
	return filenames, byName, nil
}
