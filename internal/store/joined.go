package store

import (
	"context"
	"errors"
	"io"

	"github.com/hatchpm/hatch/internal/egg"
	"github.com/hatchpm/hatch/internal/herrors"
	"github.com/hatchpm/hatch/internal/log"
)

// Joined is an ordered union of child stores. Query returns entries from
// every child in order, first-write-wins on duplicate keys. GetMetadata and
// GetData consult children in order and return the first hit. A child that
// fails to Connect is demoted to empty for the rest of the session rather
// than aborting the chain.
type Joined struct {
	children []Store
	failed   []bool
	logger   log.Logger
}

// NewJoined builds a Joined store over children, queried in the given
// order. logger may be nil, in which case demotions are silent.
func NewJoined(logger log.Logger, children ...Store) *Joined {
	return &Joined{
		children: children,
		failed:   make([]bool, len(children)),
		logger:   logger,
	}
}

func (j *Joined) Name() string { return "joined" }

// Connect calls Connect on every child. A child's failure demotes it
// instead of propagating; Joined.Connect only returns an error if every
// child failed, since a fully empty joined store can't serve any query.
func (j *Joined) Connect(ctx context.Context, creds Credentials) error {
	activeCount := 0
	for i, child := range j.children {
		if err := child.Connect(ctx, creds); err != nil {
			j.failed[i] = true
			if j.logger != nil {
				j.logger.Warn("store unavailable, continuing without it", "store", child.Name(), "error", err)
			}
			continue
		}
		activeCount++
	}
	if activeCount == 0 && len(j.children) > 0 {
		return &herrors.StoreUnavailable{Store: j.Name(), Err: errAllChildrenFailed}
	}
	return nil
}

func (j *Joined) Query(ctx context.Context, f Filter) ([]Entry, error) {
	seen := make(map[string]bool)
	var combined []Entry

	for i, child := range j.children {
		if j.failed[i] {
			continue
		}
		entries, err := child.Query(ctx, f)
		if err != nil {
			j.failed[i] = true
			continue
		}
		for _, e := range entries {
			if seen[e.Key] {
				continue
			}
			seen[e.Key] = true
			combined = append(combined, e)
		}
	}
	return combined, nil
}

func (j *Joined) GetMetadata(ctx context.Context, key string) (egg.Record, error) {
	for i, child := range j.children {
		if j.failed[i] {
			continue
		}
		rec, err := child.GetMetadata(ctx, key)
		if err == nil {
			return rec, nil
		}
		var notFound *herrors.KeyNotFound
		if !errors.As(err, &notFound) {
			j.failed[i] = true
		}
	}
	return egg.Record{}, &herrors.KeyNotFound{Key: key}
}

func (j *Joined) GetData(ctx context.Context, key string) (io.ReadCloser, error) {
	for i, child := range j.children {
		if j.failed[i] {
			continue
		}
		data, err := child.GetData(ctx, key)
		if err == nil {
			return data, nil
		}
		var notFound *herrors.KeyNotFound
		if !errors.As(err, &notFound) {
			j.failed[i] = true
		}
	}
	return nil, &herrors.KeyNotFound{Key: key}
}

func (j *Joined) Exists(ctx context.Context, key string) (bool, error) {
	for i, child := range j.children {
		if j.failed[i] {
			continue
		}
		ok, err := child.Exists(ctx, key)
		if err != nil {
			j.failed[i] = true
			continue
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

var errAllChildrenFailed = simpleErr("every child store failed to connect")
