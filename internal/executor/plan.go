// Package executor drives an ordered sequence of fetch/remove/install
// actions against a prefix, binding every action in one batch to a
// single super-operation id so external observers can correlate the
// resulting progress events.
package executor

import (
	"fmt"

	"github.com/hatchpm/hatch/internal/egg"
)

// Action names one of the three operations a Step performs.
type Action string

const (
	Fetch   Action = "fetch"
	Remove  Action = "remove"
	Install Action = "install"
)

// Step is one (action, egg filename) tuple in a Plan.
type Step struct {
	Action      Action
	EggFilename string
}

func (s Step) String() string {
	return fmt.Sprintf("%s %s", s.Action, s.EggFilename)
}

// Plan is the ordered action sequence a facade hands to an Executor.
// Ordering guarantees (fetches before removes before installs of the
// same egg; removes in reverse dependency order; installs in forward
// dependency order) are the caller's responsibility to establish —
// the executor runs the steps exactly as given.
type Plan []Step

// BuildPlan assembles the canonical plan for installing installSeq (an
// already-resolved, dependency-ordered list of egg filenames, the
// originally requested egg last) into a prefix whose primary
// collection currently holds the names in installedByName, in plain
// mode. Per component H: fetch every egg in resolver order, then
// (plain mode only) remove any currently installed egg sharing a name
// with one being installed, in reverse resolver order, then install
// every egg in resolver order.
//
// Force semantics narrow which eggs actually get fetch/install steps:
// with force and forceall both false, an egg already present under its
// exact resolved filename (per installedFilenames) is skipped entirely;
// with force true the leaf (last, originally requested) egg is always
// included regardless; with forceall true every egg is included
// regardless of installed state. The superseded-version remove pass is
// unaffected by these flags — plain mode's one-version-per-name
// invariant holds even when the replacement step itself is skipped as
// already-satisfied.
func BuildPlan(installSeq []string, installedFilenames map[string]bool, installedByName map[string]string, plain, force, forceall bool) Plan {
	if len(installSeq) == 0 {
		return nil
	}
	leaf := installSeq[len(installSeq)-1]

	include := make(map[string]bool, len(installSeq))
	for _, filename := range installSeq {
		switch {
		case forceall:
			include[filename] = true
		case force && filename == leaf:
			include[filename] = true
		case !installedFilenames[filename]:
			include[filename] = true
		}
	}

	var plan Plan
	for _, filename := range installSeq {
		if include[filename] {
			plan = append(plan, Step{Action: Fetch, EggFilename: filename})
		}
	}

	if plain {
		for i := len(installSeq) - 1; i >= 0; i-- {
			filename := installSeq[i]
			name, _, _, err := egg.SplitEggName(filename)
			if err != nil {
				continue
			}
			if existing, ok := installedByName[egg.CanonicalName(name)]; ok && existing != filename {
				plan = append(plan, Step{Action: Remove, EggFilename: existing})
			}
		}
	}

	for _, filename := range installSeq {
		if include[filename] {
			plan = append(plan, Step{Action: Install, EggFilename: filename})
		}
	}
	return plan
}
