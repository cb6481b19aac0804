// Package egg implements the egg filename and version algebra: parsing and
// validating "<name>-<version>-<build>.egg" filenames, canonicalizing names,
// and comparing versions with semver-aware and calver-tolerant fallback
// ordering.
package egg

import (
	"strconv"
	"strings"

	"github.com/hatchpm/hatch/internal/herrors"
)

// Suffix is the required egg archive file extension.
const Suffix = ".egg"

// CanonicalName lowercases an egg or package name using ASCII-only case
// folding, per the canonicalize-everywhere-to-lowercase rule.
func CanonicalName(name string) string {
	return strings.ToLower(name)
}

// IsValidEggName reports whether s has the shape
// "<name>-<version>-<build>.egg" where name and version contain no
// hyphens and build is a non-negative integer.
func IsValidEggName(s string) bool {
	_, _, _, err := SplitEggName(s)
	return err == nil
}

// SplitEggName parses an egg filename into its name, version, and build
// number. Returns a *herrors.ParseError if s does not match the required
// shape.
func SplitEggName(s string) (name, version string, build int, err error) {
	trimmed, ok := strings.CutSuffix(s, Suffix)
	if !ok {
		return "", "", 0, &herrors.ParseError{Input: s, Err: errNotEggSuffix}
	}

	parts := strings.Split(trimmed, "-")
	if len(parts) != 3 {
		return "", "", 0, &herrors.ParseError{Input: s, Err: errEggShape}
	}

	name, version, buildStr := parts[0], parts[1], parts[2]
	if name == "" || version == "" {
		return "", "", 0, &herrors.ParseError{Input: s, Err: errEggShape}
	}

	n, convErr := strconv.Atoi(buildStr)
	if convErr != nil || n < 0 {
		return "", "", 0, &herrors.ParseError{Input: s, Err: errEggBuild}
	}

	return name, version, n, nil
}

// FormatEggName is the inverse of SplitEggName.
func FormatEggName(name, version string, build int) string {
	return name + "-" + version + "-" + strconv.Itoa(build) + Suffix
}

var (
	errNotEggSuffix = simpleErr("missing .egg suffix")
	errEggShape     = simpleErr("expected name-version-build.egg")
	errEggBuild     = simpleErr("build must be a non-negative integer")
)

type simpleErr string

func (e simpleErr) Error() string { return string(e) }
