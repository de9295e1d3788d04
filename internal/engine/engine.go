// Package engine provides the lifecycle hooks that drive a patch run.
//
// The engine package is the orchestration layer between the CLI (or any
// host) and the lower-level overlay, guard and cleanup packages. A host calls
// Preflight and then Postflight for a lifecycle event; Run does both.
//
// Key components:
//   - Engine: holds the run guard, counters and collaborators for one process
//   - Preflight: version gate, enumeration and patch application
//   - Postflight: one-time summary and conditional self-cleanup
package engine

import (
	"github.com/rs/zerolog"

	"github.com/danieljhkim/filepatcher/internal/cleanup"
	"github.com/danieljhkim/filepatcher/internal/fsops"
	"github.com/danieljhkim/filepatcher/internal/guard"
	"github.com/danieljhkim/filepatcher/internal/hash"
	"github.com/danieljhkim/filepatcher/internal/logging"
	"github.com/danieljhkim/filepatcher/internal/overlay"
	"github.com/danieljhkim/filepatcher/internal/report"
)

// Roots locates the source and target trees of a run.
type Roots struct {
	// Source is the folder of replacement files. It may not exist.
	Source string

	// Target is the root of the live installation.
	Target string
}

// Engine orchestrates a patch run.
// It is the main API surface called by the CLI.
type Engine struct {
	guard   *guard.Guard
	walker  *overlay.Walker
	applier *overlay.Applier
	counter overlay.Counter
	cleaner *cleanup.Cleaner
	sink    report.Sink
	roots   Roots
	logger  zerolog.Logger

	results []overlay.Result
}

// New creates a new Engine with the given dependencies. cleaner may be nil to
// disable self-cleanup entirely. The guard should be created once per process.
func New(
	fs fsops.FS,
	g *guard.Guard,
	hasher hash.Hasher,
	cleaner *cleanup.Cleaner,
	sink report.Sink,
	roots Roots,
) *Engine {
	if sink == nil {
		sink = report.Discard
	}
	return &Engine{
		guard:   g,
		walker:  overlay.NewWalker(fs),
		applier: overlay.NewApplier(fs, hasher, sink),
		cleaner: cleaner,
		sink:    sink,
		roots:   roots,
		logger:  logging.GetLogger("engine"),
	}
}

// Counts returns the counters of the current run.
func (e *Engine) Counts() overlay.Counts {
	return e.counter.Snapshot()
}

// Results returns the per-file results of the current run.
func (e *Engine) Results() []overlay.Result {
	out := make([]overlay.Result, len(e.results))
	copy(out, e.results)
	return out
}
