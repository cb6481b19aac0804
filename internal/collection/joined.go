package collection

import (
	"context"

	"github.com/hatchpm/hatch/internal/egg"
)

// JoinedCollection aggregates a primary (writable) prefix collection with
// zero or more read-only secondary collections. Writes always go to the
// primary; reads see the union, with the primary's copy of a package
// taking precedence over any secondary.
type JoinedCollection struct {
	Primary     *Collection
	Secondaries []*Collection
}

// NewJoined returns a JoinedCollection writing to primary and reading
// primary plus secondaries, in that precedence order.
func NewJoined(primary *Collection, secondaries ...*Collection) *JoinedCollection {
	return &JoinedCollection{Primary: primary, Secondaries: secondaries}
}

func (j *JoinedCollection) Install(ctx context.Context, eggFilename, sourceDir string, extraInfo map[string]interface{}) error {
	return j.Primary.Install(ctx, eggFilename, sourceDir, extraInfo)
}

func (j *JoinedCollection) Remove(ctx context.Context, eggFilename string) error {
	return j.Primary.Remove(ctx, eggFilename)
}

func (j *JoinedCollection) Find(ctx context.Context, eggFilename string) (egg.Record, bool, error) {
	if rec, ok, err := j.Primary.Find(ctx, eggFilename); err != nil || ok {
		return rec, ok, err
	}
	for _, c := range j.Secondaries {
		if rec, ok, err := c.Find(ctx, eggFilename); err != nil || ok {
			return rec, ok, err
		}
	}
	return egg.Record{}, false, nil
}

// Query lists the union of installed eggs across the primary and every
// secondary, with the primary's record winning when a package name
// appears in more than one collection.
func (j *JoinedCollection) Query(ctx context.Context, name string) ([]egg.Record, error) {
	seen := map[string]bool{}
	var out []egg.Record

	primaryRecords, err := j.Primary.Query(ctx, name)
	if err != nil {
		return nil, err
	}
	for _, r := range primaryRecords {
		seen[egg.CanonicalName(r.Name)] = true
		out = append(out, r)
	}

	for _, c := range j.Secondaries {
		records, err := c.Query(ctx, name)
		if err != nil {
			return nil, err
		}
		for _, r := range records {
			if seen[egg.CanonicalName(r.Name)] {
				continue
			}
			seen[egg.CanonicalName(r.Name)] = true
			out = append(out, r)
		}
	}
	return out, nil
}
