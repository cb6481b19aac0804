// Package requirement implements the "name [version [build]]" requirement
// grammar used throughout hatch to select egg records: from a resolver's
// dependency strings to a CLI argument naming what to install or remove.
package requirement

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hatchpm/hatch/internal/egg"
	"github.com/hatchpm/hatch/internal/herrors"
)

// Strictness is how many of (name, version, build) a requirement pins.
type Strictness int

const (
	// StrictnessNone means no name was given; only valid as a wildcard and
	// never matches a real record.
	StrictnessNone Strictness = 0
	// StrictnessName means only the name is pinned.
	StrictnessName Strictness = 1
	// StrictnessVersion means name and version are pinned.
	StrictnessVersion Strictness = 2
	// StrictnessBuild means name, version, and build are all pinned.
	StrictnessBuild Strictness = 3
)

// Requirement selects zero or more egg.Record values by name and, optionally,
// version and build. The level field records how many of those were
// actually given, so "foo" (name only) and a hypothetical "foo <unset> 0"
// never collide on the zero value of Build.
//
// Equality and hashing are structural on (Name, Version, Build, level); Key
// provides a canonical string usable as a map key.
type Requirement struct {
	Name    string // canonicalized lowercase; empty iff level == StrictnessNone
	Version string // meaningful iff level >= StrictnessVersion
	Build   int    // meaningful iff level >= StrictnessBuild

	level Strictness
}

// Parse splits s on whitespace into 0-3 tokens: name, version, build. Build,
// if present, must be a non-negative integer.
func Parse(s string) (Requirement, error) {
	fields := strings.Fields(s)
	if len(fields) > 3 {
		return Requirement{}, &herrors.ParseError{Input: s, Err: errTooManyTokens}
	}

	switch len(fields) {
	case 0:
		return Requirement{level: StrictnessNone}, nil
	case 1:
		return Requirement{Name: egg.CanonicalName(fields[0]), level: StrictnessName}, nil
	case 2:
		return Requirement{
			Name:    egg.CanonicalName(fields[0]),
			Version: fields[1],
			level:   StrictnessVersion,
		}, nil
	default:
		build, err := strconv.Atoi(fields[2])
		if err != nil || build < 0 {
			return Requirement{}, &herrors.ParseError{Input: s, Err: errBadBuild}
		}
		return Requirement{
			Name:    egg.CanonicalName(fields[0]),
			Version: fields[1],
			Build:   build,
			level:   StrictnessBuild,
		}, nil
	}
}

// MustParse is like Parse but panics on error; intended for literal
// requirement strings known at compile time, e.g. in tests.
func MustParse(s string) Requirement {
	r, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return r
}

// FromRecord builds a strictness-3 requirement that matches exactly rec.
func FromRecord(rec egg.Record) Requirement {
	return Requirement{
		Name:    egg.CanonicalName(rec.Name),
		Version: rec.Version,
		Build:   rec.Build,
		level:   StrictnessBuild,
	}
}

// Strictness reports how many fields this requirement pins.
func (r Requirement) Strictness() Strictness { return r.level }

// String renders the canonical "name version build" form, omitting trailing
// fields below the requirement's strictness.
func (r Requirement) String() string {
	switch r.level {
	case StrictnessName:
		return r.Name
	case StrictnessVersion:
		return fmt.Sprintf("%s %s", r.Name, r.Version)
	case StrictnessBuild:
		return fmt.Sprintf("%s %s %d", r.Name, r.Version, r.Build)
	default:
		return ""
	}
}

// AsDict returns the fields present at this requirement's strictness level,
// keyed the way index and history text formats name them.
func (r Requirement) AsDict() map[string]string {
	d := map[string]string{}
	if r.level >= StrictnessName {
		d["name"] = r.Name
	}
	if r.level >= StrictnessVersion {
		d["version"] = r.Version
	}
	if r.level >= StrictnessBuild {
		d["build"] = strconv.Itoa(r.Build)
	}
	return d
}

// Matches reports whether rec satisfies this requirement: the name matches
// case-insensitively and canonically, and every level-present field equals
// the record's corresponding field.
func (r Requirement) Matches(rec egg.Record) bool {
	if r.level == StrictnessNone {
		return false
	}
	if egg.CanonicalName(rec.Name) != r.Name {
		return false
	}
	if r.level >= StrictnessVersion && rec.Version != r.Version {
		return false
	}
	if r.level >= StrictnessBuild && rec.Build != r.Build {
		return false
	}
	return true
}

// Key returns a canonical string suitable for use as a map key, agreeing
// with structural equality: two requirements are Equal iff their Key is
// identical.
func (r Requirement) Key() string {
	return fmt.Sprintf("%d\x00%s\x00%s\x00%d", r.level, r.Name, r.Version, r.Build)
}

// Equal reports structural equality on (name, version, build, strictness).
func (r Requirement) Equal(other Requirement) bool {
	return r.Key() == other.Key()
}

var (
	errTooManyTokens = simpleErr("requirement accepts at most 3 tokens: name version build")
	errBadBuild      = simpleErr("build must be a non-negative integer")
)

type simpleErr string

func (e simpleErr) Error() string { return string(e) }
