package overlay

import "errors"

var (
	// ErrSourceAbsent indicates the source root is missing or not a directory.
	ErrSourceAbsent = errors.New("source root not found")

	// ErrOutsideSource indicates a patch file path is not under the source root.
	ErrOutsideSource = errors.New("patch file is not under source root")
)

// Outcome is the result of applying one patch file.
type Outcome string

const (
	// Applied means the destination existed and was overwritten.
	Applied Outcome = "applied"
	// Failed means the destination existed (or was rejected) but could not be overwritten.
	Failed Outcome = "failed"
	// Missing means there was no destination file; nothing was created.
	Missing Outcome = "missing"
)

// PatchFile is a replacement file found under the source root.
type PatchFile struct {
	// Path is the absolute path of the file in the source tree.
	Path string `json:"path"`

	// RelPath is Path relative to the source root, slash separated.
	RelPath string `json:"relPath"`
}

// Result describes what happened to a single patch file.
type Result struct {
	RelPath     string  `json:"relPath"`
	Destination string  `json:"destination,omitempty"`
	Outcome     Outcome `json:"outcome"`

	// Checksum is the SHA-256 of the destination after an Applied outcome.
	Checksum string `json:"checksum,omitempty"`

	// Err is set for Failed outcomes.
	Err error `json:"-"`

	// Error is Err rendered for JSON output.
	Error string `json:"error,omitempty"`
}

// Counts is a snapshot of a Counter.
type Counts struct {
	Applied int `json:"applied"`
	Failed  int `json:"failed"`
	Missing int `json:"missing"`
}

// Total returns the number of recorded outcomes.
func (c Counts) Total() int {
	return c.Applied + c.Failed + c.Missing
}

// Counter aggregates outcomes for one run. Not safe for concurrent use.
type Counter struct {
	counts Counts
}

// Record increments the counter matching outcome.
func (c *Counter) Record(outcome Outcome) {
	switch outcome {
	case Applied:
		c.counts.Applied++
	case Failed:
		c.counts.Failed++
	case Missing:
		c.counts.Missing++
	}
}

// Snapshot returns the current counts.
func (c *Counter) Snapshot() Counts {
	return c.counts
}

// Reset zeroes all counts.
func (c *Counter) Reset() {
	c.counts = Counts{}
}
