// Package herrors defines hatch's error taxonomy: one exported struct per
// kind, each implementing error (and Unwrap where it wraps a cause) so
// callers can use errors.As to branch on failure mode instead of matching
// strings.
package herrors

import "fmt"

// ParseError indicates malformed input: a requirement string, an egg
// filename, or an index section that doesn't fit the bounded literal
// grammar.
type ParseError struct {
	Input string // the text that failed to parse
	Err   error  // underlying cause, if any
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %q: %v", e.Input, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// StoreUnavailable indicates a single store's connect or fetch transport
// failed. Recoverable at the joined-store level: other stores in the
// chain still get a chance to serve the request.
type StoreUnavailable struct {
	Store string // store name or URL
	Err   error
}

func (e *StoreUnavailable) Error() string {
	return fmt.Sprintf("store unavailable: %s: %v", e.Store, e.Err)
}

func (e *StoreUnavailable) Unwrap() error { return e.Err }

// KeyNotFound indicates no store in a chain held the requested egg key.
type KeyNotFound struct {
	Key string
}

func (e *KeyNotFound) Error() string {
	return fmt.Sprintf("key not found: %s", e.Key)
}

// NoCandidate indicates the resolver found no egg matching a requirement.
type NoCandidate struct {
	Requirement string
}

func (e *NoCandidate) Error() string {
	return fmt.Sprintf("no candidate for requirement: %s", e.Requirement)
}

// Conflict indicates the dependency graph demands incompatible versions
// of the same package.
type Conflict struct {
	Name string
	V1   string
	V2   string
}

func (e *Conflict) Error() string {
	return fmt.Sprintf("conflict: %s requires both %s and %s", e.Name, e.V1, e.V2)
}

// Ambiguous indicates a remove requirement matched more than one
// installed egg (only reachable in hook-mode collections).
type Ambiguous struct {
	Requirement string
	Matches     []string // matching egg filenames
}

func (e *Ambiguous) Error() string {
	return fmt.Sprintf("ambiguous requirement %s: matches %v", e.Requirement, e.Matches)
}

// NotInstalled indicates a remove was requested for an egg that isn't
// present in the collection.
type NotInstalled struct {
	EggFilename string
}

func (e *NotInstalled) Error() string {
	return fmt.Sprintf("not installed: %s", e.EggFilename)
}

// IntegrityError indicates an md5 mismatch after download.
type IntegrityError struct {
	Key      string
	Expected string
	Actual   string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity check failed for %s: expected md5 %s, got %s", e.Key, e.Expected, e.Actual)
}

// NoSuchRevision indicates a history lookup (by index or timestamp)
// missed.
type NoSuchRevision struct {
	Query string // the rev argument, as given by the caller
}

func (e *NoSuchRevision) Error() string {
	return fmt.Sprintf("no such revision: %s", e.Query)
}

// Fatal wraps an unclassified underlying failure, typically I/O, that
// doesn't fit any other named kind.
type Fatal struct {
	Op  string // operation being attempted, e.g. "io", "filesystem"
	Err error
}

func (e *Fatal) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Fatal) Unwrap() error { return e.Err }
