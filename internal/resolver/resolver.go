// Package resolver computes an ordered install sequence for a requirement
// against a store: pick the latest matching egg, recurse into its
// dependencies, and emit the result in dependency-before-dependent order.
package resolver

import (
	"context"
	"fmt"
	"sort"

	"github.com/hatchpm/hatch/internal/egg"
	"github.com/hatchpm/hatch/internal/herrors"
	"github.com/hatchpm/hatch/internal/requirement"
	"github.com/hatchpm/hatch/internal/store"
)

// Mode controls whether dependencies are followed.
type Mode int

const (
	// ModeRoot resolves only the requested package, ignoring its dependencies.
	ModeRoot Mode = iota
	// ModeRecur resolves the requested package and its full dependency closure.
	ModeRecur
)

// Resolver computes install sequences against a single store.
type Resolver struct {
	store store.Store
}

// New returns a Resolver that queries the given store for candidates.
func New(s store.Store) *Resolver {
	return &Resolver{store: s}
}

// node is one package pinned during a single resolution run.
type node struct {
	req  requirement.Requirement
	rec  egg.Record
	deps []string // keys (Filename) of direct dependencies, for topo sort
}

// InstallSequence resolves req against the resolver's store and returns the
// ordered list of egg filenames to fetch/install, dependencies before
// dependents, with the originally requested egg last. In ModeRoot, the
// returned sequence always has exactly one element.
func (r *Resolver) InstallSequence(ctx context.Context, req requirement.Requirement, mode Mode) ([]string, error) {
	chosen := map[string]node{}  // name -> resolved node, keyed by canonical package name
	order := []string{}         // insertion order of names, post-order (deps before dependents)
	resolving := map[string]egg.Record{} // name -> record pinned so far, for cycle detection

	var resolve func(requirement.Requirement) (string, error)
	resolve = func(req requirement.Requirement) (string, error) {
		name := egg.CanonicalName(req.Name)

		if existing, ok := chosen[name]; ok {
			if !req.Matches(existing.rec) {
				return "", &herrors.Conflict{Name: name, V1: existing.rec.Version, V2: req.Version}
			}
			return existing.rec.Filename(), nil
		}
		if pinned, ok := resolving[name]; ok {
			if !req.Matches(pinned) {
				return "", &herrors.Conflict{Name: name, V1: pinned.Version, V2: req.Version}
			}
			return pinned.Filename(), nil
		}

		candidates, err := r.candidateSet(ctx, req)
		if err != nil {
			return "", err
		}
		if len(candidates) == 0 {
			return "", &herrors.NoCandidate{Requirement: req.String()}
		}
		best := pickLatest(candidates)
		key := best.Filename()
		resolving[name] = best

		var depKeys []string
		if mode == ModeRecur {
			for _, dep := range best.Packages {
				depReq, err := requirement.Parse(dep)
				if err != nil {
					return "", err
				}
				depKey, err := resolve(depReq)
				if err != nil {
					return "", err
				}
				depKeys = append(depKeys, depKey)
			}
		}

		delete(resolving, name)
		chosen[name] = node{req: req, rec: best, deps: depKeys}
		order = append(order, name)
		return key, nil
	}

	if _, err := resolve(req); err != nil {
		return nil, err
	}

	return topoSort(chosen, order, egg.CanonicalName(req.Name))
}

// candidateSet queries the store for every record matching req's name and
// filters to those satisfying req's full strictness.
func (r *Resolver) candidateSet(ctx context.Context, req requirement.Requirement) ([]egg.Record, error) {
	entries, err := r.store.Query(ctx, store.Filter{Name: egg.CanonicalName(req.Name)})
	if err != nil {
		return nil, err
	}
	var candidates []egg.Record
	for _, e := range entries {
		if req.Matches(e.Record) {
			candidates = append(candidates, e.Record)
		}
	}
	return candidates, nil
}

// pickLatest returns the candidate with the greatest (version, build),
// matching the latest-wins policy: no backtracking, no older-version pins.
func pickLatest(candidates []egg.Record) egg.Record {
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.CompareForLatest(best) > 0 {
			best = c
		}
	}
	return best
}

// topoSort orders the resolved node set dependency-before-dependent, ties
// broken by ASCII-lowercase name, with the originally requested egg forced
// last. The post-order insertion in `order` already satisfies the
// dependency-before-dependent constraint, so this is a stable re-sort that
// preserves that property while normalizing tie order for determinism.
func topoSort(chosen map[string]node, order []string, requestedName string) ([]string, error) {
	nameByKey := make(map[string]string, len(chosen))
	for name, n := range chosen {
		nameByKey[n.rec.Filename()] = name
	}

	visited := map[string]bool{}
	var result []string

	var visit func(name string) error
	visit = func(name string) error {
		if visited[name] {
			return nil
		}
		n, ok := chosen[name]
		if !ok {
			return fmt.Errorf("resolver: internal error, unresolved name %q", name)
		}
		visited[name] = true

		deps := make([]string, 0, len(n.deps))
		for _, key := range n.deps {
			if depName, ok := nameByKey[key]; ok && depName != name {
				deps = append(deps, depName)
			}
		}
		sort.Strings(deps)
		for _, d := range deps {
			if err := visit(d); err != nil {
				return err
			}
		}
		result = append(result, n.rec.Filename())
		return nil
	}

	names := make([]string, 0, len(order))
	for _, name := range order {
		if name != requestedName {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	if err := visit(requestedName); err != nil {
		return nil, err
	}

	return result, nil
}
