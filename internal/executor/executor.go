package executor

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hatchpm/hatch/internal/herrors"
	"github.com/hatchpm/hatch/internal/log"
)

// Fetcher retrieves an egg archive into the local cache directory so a
// subsequent Install step can find it at sourceDir.
type Fetcher interface {
	FetchEgg(ctx context.Context, key string, force bool, progress func(key string, written, total int64)) error
}

// Installer is the subset of collection.Collection an Executor drives.
type Installer interface {
	Install(ctx context.Context, eggFilename, sourceDir string, extraInfo map[string]interface{}) error
	Remove(ctx context.Context, eggFilename string) error
}

// Event is one progress notification emitted during Execute. SuperOpID
// is the same UUID v4 for every event in a single Execute call, letting
// external observers correlate a whole batch.
type Event struct {
	SuperOpID string
	Index     int
	Total     int
	Step      Step
	Err       error
}

// Sink receives progress events during Execute. It must not initiate
// new facade operations (see the concurrency model's cancellation and
// suspension-point rules).
type Sink func(Event)

// Executor drives a Plan's steps against a Fetcher and an Installer.
type Executor struct {
	Fetcher   Fetcher
	Installer Installer
	SourceDir string
}

// New returns an Executor that fetches into sourceDir via f and
// installs/removes via the given Installer.
func New(f Fetcher, i Installer, sourceDir string) *Executor {
	return &Executor{Fetcher: f, Installer: i, SourceDir: sourceDir}
}

// Execute runs plan's steps in order, binding a fresh super-operation
// id to the whole batch. It stops at the first fatal error, leaving
// already-completed steps committed; a remove of an egg that was never
// installed is tolerated. It returns the count of steps that performed
// real work (a remove that found nothing installed does not count).
func (e *Executor) Execute(ctx context.Context, plan Plan, sink Sink, logger log.Logger) (int, error) {
	if logger == nil {
		logger = log.Default()
	}
	opID := uuid.New().String()
	performed := 0

	for i, step := range plan {
		if err := ctx.Err(); err != nil {
			return performed, &herrors.Fatal{Op: "executor.execute", Err: err}
		}

		var stepErr error
		switch step.Action {
		case Fetch:
			stepErr = e.Fetcher.FetchEgg(ctx, step.EggFilename, false, nil)
			if stepErr == nil {
				performed++
			}
		case Remove:
			stepErr = e.Installer.Remove(ctx, step.EggFilename)
			if _, notInstalled := stepErr.(*herrors.NotInstalled); notInstalled {
				logger.Debug("remove of uninstalled egg tolerated", "egg", step.EggFilename, "super_op", opID)
				stepErr = nil
			} else if stepErr == nil {
				performed++
			}
		case Install:
			stepErr = e.Installer.Install(ctx, step.EggFilename, e.SourceDir, nil)
			if stepErr == nil {
				performed++
			}
		default:
			stepErr = &herrors.Fatal{Op: "executor.execute", Err: fmt.Errorf("unknown action %q", step.Action)}
		}

		if sink != nil {
			sink(Event{SuperOpID: opID, Index: i, Total: len(plan), Step: step, Err: stepErr})
		}

		if stepErr != nil {
			logger.Error("plan step failed", "step", step.String(), "super_op", opID, "error", stepErr)
			return performed, stepErr
		}
	}

	return performed, nil
}
