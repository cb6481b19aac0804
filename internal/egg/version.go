package egg

import (
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Version is a totally-preordered comparable version value. Strict semver
// strings ("1.2.3", "1.2.3-rc.1") are parsed with Masterminds/semver for
// exact precedence rules; anything else falls back to a calver/custom
// comparator adapted from the fallback heuristics a version-resolution
// engine needs when talking to registries that don't all speak semver.
type Version struct {
	raw    string
	semver *semver.Version
}

// ParseVersion builds a Version from a raw string. It never fails: a
// string that isn't valid semver is kept as a fallback-compared Version
// rather than rejected, since index records routinely carry calver or
// vendor-specific version strings.
func ParseVersion(s string) Version {
	if v, err := semver.NewVersion(s); err == nil {
		return Version{raw: s, semver: v}
	}
	return Version{raw: s}
}

// String returns the original version string.
func (v Version) String() string { return v.raw }

// Compare returns -1, 0, or 1 per the usual ordering contract. When both
// sides parse as strict semver, comparison uses semver precedence
// (including alpha/beta/rc prerelease ordering). Otherwise it falls back
// to compareFallback. When the fallback ties, two versions still compare
// equal if both normalized cores are purely numeric ("go1.21.0" and
// "1.21.0"); distinct strings with a non-numeric core are ordered by raw
// string, so a non-parseable version compares equal only to itself.
func (v Version) Compare(other Version) int {
	if v.semver != nil && other.semver != nil {
		return v.semver.Compare(other.semver)
	}
	if v.raw == other.raw {
		return 0
	}
	if c := compareFallback(v.raw, other.raw); c != 0 {
		return c
	}
	numericCore := func(s string) bool {
		core, _ := splitPrerelease(normalizeFallback(s))
		for _, p := range strings.Split(core, ".") {
			if _, err := strconv.Atoi(p); err != nil {
				return false
			}
		}
		return true
	}
	if !numericCore(v.raw) || !numericCore(other.raw) {
		return strings.Compare(v.raw, other.raw)
	}
	return 0
}

// compareFallback compares two version strings that aren't both strict
// semver: calver ("2024.01.15"), build-tagged ("go1.21.5",
// "Release_1_15_0"), or otherwise irregular strings.
func compareFallback(v1, v2 string) int {
	n1 := normalizeFallback(v1)
	n2 := normalizeFallback(v2)

	core1, pre1 := splitPrerelease(n1)
	core2, pre2 := splitPrerelease(n2)

	if c := compareCoreParts(core1, core2); c != 0 {
		return c
	}
	return comparePrereleases(pre1, pre2)
}

func normalizeFallback(version string) string {
	version = strings.TrimPrefix(version, "v")
	if idx := strings.LastIndex(version, "/"); idx != -1 {
		version = strings.TrimPrefix(version[idx+1:], "v")
	}
	if rest, ok := strings.CutPrefix(version, "Release_"); ok {
		version = strings.ReplaceAll(rest, "_", ".")
	}
	version = strings.TrimPrefix(version, "go")
	return version
}

func splitPrerelease(version string) (core, prerelease string) {
	if idx := strings.Index(version, "+"); idx != -1 {
		version = version[:idx]
	}
	if idx := strings.Index(version, "-"); idx != -1 {
		return version[:idx], version[idx+1:]
	}
	return version, ""
}

func compareCoreParts(v1, v2 string) int {
	parts1 := strings.Split(v1, ".")
	parts2 := strings.Split(v2, ".")

	maxLen := len(parts1)
	if len(parts2) > maxLen {
		maxLen = len(parts2)
	}

	for i := 0; i < maxLen; i++ {
		var p1, p2 int
		if i < len(parts1) {
			p1, _ = strconv.Atoi(parts1[i])
		}
		if i < len(parts2) {
			p2, _ = strconv.Atoi(parts2[i])
		}
		if p1 != p2 {
			if p1 > p2 {
				return 1
			}
			return -1
		}
	}
	return 0
}

func comparePrereleases(pre1, pre2 string) int {
	if pre1 == "" && pre2 == "" {
		return 0
	}
	if pre1 == "" {
		return 1 // stable beats prerelease
	}
	if pre2 == "" {
		return -1
	}
	return comparePrereleaseStrings(pre1, pre2)
}

func comparePrereleaseStrings(pre1, pre2 string) int {
	parts1 := strings.Split(pre1, ".")
	parts2 := strings.Split(pre2, ".")

	maxLen := len(parts1)
	if len(parts2) > maxLen {
		maxLen = len(parts2)
	}

	for i := 0; i < maxLen; i++ {
		var p1, p2 string
		if i < len(parts1) {
			p1 = parts1[i]
		}
		if i < len(parts2) {
			p2 = parts2[i]
		}
		if p1 == "" && p2 != "" {
			return -1
		}
		if p1 != "" && p2 == "" {
			return 1
		}
		if c := comparePrereleaseIdentifiers(p1, p2); c != 0 {
			return c
		}
	}
	return 0
}

func comparePrereleaseIdentifiers(id1, id2 string) int {
	n1, err1 := strconv.Atoi(id1)
	n2, err2 := strconv.Atoi(id2)
	isNum1, isNum2 := err1 == nil, err2 == nil

	if isNum1 && isNum2 {
		switch {
		case n1 > n2:
			return 1
		case n1 < n2:
			return -1
		default:
			return 0
		}
	}
	if isNum1 && !isNum2 {
		return -1 // numeric identifiers have lower precedence
	}
	if !isNum1 && isNum2 {
		return 1
	}

	order1, order2 := prereleaseOrder(id1), prereleaseOrder(id2)
	if order1 != order2 {
		if order1 > order2 {
			return 1
		}
		return -1
	}
	switch {
	case id1 > id2:
		return 1
	case id1 < id2:
		return -1
	default:
		return 0
	}
}

// prereleaseOrder ranks common prerelease identifiers; unknown ones sort
// after all recognized tags.
func prereleaseOrder(id string) int {
	switch strings.ToLower(id) {
	case "pre", "preview":
		return 0
	case "alpha", "a":
		return 1
	case "beta", "b":
		return 2
	case "rc", "cr":
		return 3
	default:
		return 100
	}
}
