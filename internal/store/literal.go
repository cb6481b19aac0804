package store

import (
	"strconv"
	"strings"

	"github.com/hatchpm/hatch/internal/herrors"
)

// parseScalar parses a single non-list literal: a quoted string (single or
// double quotes), a decimal integer, or the bare word None. Anything else
// is rejected — this is the entire grammar the index format is allowed to
// express, deliberately excluding any form of code evaluation.
func parseScalar(raw string) (interface{}, error) {
	s := strings.TrimSpace(raw)
	if s == "None" {
		return nil, nil
	}
	if lit, ok := unquote(s); ok {
		return lit, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	return nil, &herrors.ParseError{Input: raw, Err: errNotALiteral}
}

// unquote strips matching single or double quotes from s. It does not
// interpret escape sequences beyond a literal backslash-quote, since index
// values never need more than that.
func unquote(s string) (string, bool) {
	if len(s) < 2 {
		return "", false
	}
	quote := s[0]
	if (quote != '\'' && quote != '"') || s[len(s)-1] != quote {
		return "", false
	}
	inner := s[1 : len(s)-1]
	inner = strings.ReplaceAll(inner, "\\"+string(quote), string(quote))
	return inner, true
}

// splitListItems splits the interior of a "[...]" literal into its quoted
// string elements. Items are comma-separated; a trailing comma is allowed.
func splitListItems(inner string) ([]string, error) {
	inner = strings.TrimSpace(inner)
	if inner == "" {
		return nil, nil
	}
	var items []string
	for _, part := range strings.Split(inner, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		s, ok := unquote(part)
		if !ok {
			return nil, &herrors.ParseError{Input: part, Err: errNotAQuotedString}
		}
		items = append(items, s)
	}
	return items, nil
}

var (
	errNotALiteral       = simpleErr("not a valid literal: expected a quoted string, an integer, or None")
	errNotAQuotedString  = simpleErr("list elements must be quoted strings")
	errExpectedHeader    = simpleErr("expected a \"==> <eggfile> <==\" section header")
	errExpectedAssign    = simpleErr("expected a \"key = value\" assignment")
	errUnterminatedList  = simpleErr("list literal not terminated by \"]\"")
	errMissingRequired   = simpleErr("section is missing a required key")
)

type simpleErr string

func (e simpleErr) Error() string { return string(e) }
