// Package guard enforces that a patch run happens at most once.
//
// A Guard is created once per process and passed to the engine, so the
// run-once state lives in an explicit value rather than a package global.
// The same Guard also remembers whether the completion summary has been
// reported, so repeated postflight hooks stay quiet.
package guard

import (
	"slices"
	"sync"
)

// State is the run state of a Guard.
type State int

const (
	NotRun State = iota
	Ran
)

func (s State) String() string {
	if s == Ran {
		return "ran"
	}
	return "not-run"
}

// Decision is the result of Enter.
type Decision int

const (
	// Proceed means the caller owns the run and must perform it.
	Proceed Decision = iota
	// Abort means the host version is unsupported; nothing changed.
	Abort
	// AlreadyRan means a previous call proceeded; treat as success.
	AlreadyRan
)

func (d Decision) String() string {
	switch d {
	case Proceed:
		return "proceed"
	case Abort:
		return "abort"
	case AlreadyRan:
		return "already-ran"
	default:
		return "unknown"
	}
}

// Guard tracks RunState for one process. Safe for concurrent use; the second
// of two concurrent callers always observes Ran.
type Guard struct {
	mu        sync.Mutex
	supported []string
	state     State
	reported  bool
}

// New creates a Guard accepting exactly the given versions.
func New(supportedVersions []string) *Guard {
	return &Guard{supported: slices.Clone(supportedVersions)}
}

// Enter decides whether a run may proceed on currentVersion.
// Version matching is exact string equality.
func (g *Guard) Enter(currentVersion string) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == Ran {
		return AlreadyRan
	}
	if !slices.Contains(g.supported, currentVersion) {
		return Abort
	}
	g.state = Ran
	return Proceed
}

// State returns the current run state.
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Supported returns the accepted versions.
func (g *Guard) Supported() []string {
	return slices.Clone(g.supported)
}

// MarkReported returns true the first time it is called after the guard has
// entered Ran, and false on every later call or before any run.
func (g *Guard) MarkReported() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != Ran || g.reported {
		return false
	}
	g.reported = true
	return true
}

// MarshalText renders the decision by name.
func (d Decision) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}
