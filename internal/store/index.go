package store

import (
	"regexp"
	"sort"
	"strings"

	"github.com/hatchpm/hatch/internal/egg"
	"github.com/hatchpm/hatch/internal/herrors"
)

var sectionHeaderRe = regexp.MustCompile(`^==>\s(.+)\s<==\s*$`)

// ParseIndexText parses an index-depend body: a stream of sections headed by
// "==> <eggfile>.egg <==", each containing "key = value" assignments. Only
// the bounded literal grammar (quoted strings, integers, None, flat string
// lists) is accepted; anything else is a *herrors.ParseError. This is the
// sole entry point into index contents — it never evaluates the input as
// code.
func ParseIndexText(data string) (map[string]egg.Record, error) {
	lines := strings.Split(data, "\n")
	records := make(map[string]egg.Record)

	i := 0
	for i < len(lines) {
		if strings.TrimSpace(lines[i]) == "" {
			i++
			continue
		}

		m := sectionHeaderRe.FindStringSubmatch(strings.TrimRight(lines[i], "\r"))
		if m == nil {
			return nil, &herrors.ParseError{Input: lines[i], Err: errExpectedHeader}
		}
		filename := m[1]
		i++

		fields, next, err := parseSectionBody(lines, i)
		if err != nil {
			return nil, err
		}
		i = next

		rec, err := recordFromSection(filename, fields, true)
		if err != nil {
			return nil, err
		}
		records[filename] = rec
	}

	return records, nil
}

// ParseEggSpec parses the content of an egg archive's EGG-INFO/spec/depend
// member: a single section body with no "==>" header and no md5/size keys.
func ParseEggSpec(data string) (map[string]interface{}, error) {
	lines := strings.Split(data, "\n")
	fields, _, err := parseSectionBody(lines, 0)
	return fields, err
}

// parseSectionBody consumes key = value lines starting at lines[start],
// stopping at the next section header or end of input.
func parseSectionBody(lines []string, start int) (map[string]interface{}, int, error) {
	fields := make(map[string]interface{})
	i := start

	for i < len(lines) {
		line := strings.TrimRight(lines[i], "\r")
		if strings.TrimSpace(line) == "" {
			i++
			continue
		}
		if sectionHeaderRe.MatchString(line) {
			break
		}

		key, value, ok := splitAssignment(line)
		if !ok {
			return nil, 0, &herrors.ParseError{Input: line, Err: errExpectedAssign}
		}

		trimmedValue := strings.TrimSpace(value)
		switch {
		case trimmedValue == "[":
			items, next, err := parseMultilineList(lines, i+1)
			if err != nil {
				return nil, 0, err
			}
			fields[key] = items
			i = next
		case strings.HasPrefix(trimmedValue, "[") && strings.HasSuffix(trimmedValue, "]"):
			items, err := splitListItems(strings.TrimSuffix(strings.TrimPrefix(trimmedValue, "["), "]"))
			if err != nil {
				return nil, 0, err
			}
			fields[key] = items
			i++
		default:
			lit, err := parseScalar(trimmedValue)
			if err != nil {
				return nil, 0, err
			}
			fields[key] = lit
			i++
		}
	}

	return fields, i, nil
}

func parseMultilineList(lines []string, start int) ([]string, int, error) {
	var items []string
	i := start
	for i < len(lines) {
		item := strings.TrimSpace(strings.TrimRight(lines[i], "\r"))
		if item == "]" {
			return items, i + 1, nil
		}
		if item == "" {
			i++
			continue
		}
		item = strings.TrimSuffix(item, ",")
		s, ok := unquote(strings.TrimSpace(item))
		if !ok {
			return nil, 0, &herrors.ParseError{Input: lines[i], Err: errNotAQuotedString}
		}
		items = append(items, s)
		i++
	}
	return nil, 0, &herrors.ParseError{Input: strings.Join(lines[start:], "\n"), Err: errUnterminatedList}
}

// splitAssignment splits "key = value" on the first " = " separator.
func splitAssignment(line string) (key, value string, ok bool) {
	idx := strings.Index(line, " = ")
	if idx < 0 {
		return "", "", false
	}
	return strings.TrimSpace(line[:idx]), line[idx+3:], true
}

// recordFromSection builds an egg.Record from a section's fields. The name,
// version, and build always come from the eggFilename (the primary key),
// never from a same-named field inside the body, so a forged field can't
// override the filename the index or archive actually stored it under.
func recordFromSection(eggFilename string, fields map[string]interface{}, requireMD5Size bool) (egg.Record, error) {
	name, version, build, err := egg.SplitEggName(eggFilename)
	if err != nil {
		return egg.Record{}, err
	}

	rec := egg.Record{
		Name:    egg.CanonicalName(name),
		Version: version,
		Build:   build,
	}

	if v, ok := fields["arch"].(string); ok {
		rec.Arch = v
	}
	if v, ok := fields["platform"].(string); ok {
		rec.Platform = v
	}
	if v, ok := fields["osdist"].(string); ok {
		rec.OSDist = v
	}
	if v, ok := fields["python"].(string); ok {
		rec.Python = v
	}
	if v, ok := fields["packages"].([]string); ok {
		rec.Packages = v
	}
	if v, ok := fields["repo_dispname"].(string); ok {
		rec.RepoDispname = v
	}

	if md5, ok := fields["md5"].(string); ok {
		rec.MD5 = md5
	} else if requireMD5Size {
		return egg.Record{}, &herrors.ParseError{Input: eggFilename, Err: errMissingRequired}
	}

	if size, ok := fields["size"].(int64); ok {
		rec.Size = size
	} else if requireMD5Size {
		return egg.Record{}, &herrors.ParseError{Input: eggFilename, Err: errMissingRequired}
	}

	return rec, nil
}

// sortedEntries returns records as Entry values sorted by key, giving
// every store variant the same deterministic query order.
func sortedEntries(records map[string]egg.Record, f Filter) []Entry {
	entries := make([]Entry, 0, len(records))
	for key, rec := range records {
		if f.Name != "" && rec.Name != f.Name {
			continue
		}
		entries = append(entries, Entry{Key: key, Record: rec})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries
}
