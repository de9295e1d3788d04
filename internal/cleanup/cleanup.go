// Package cleanup removes filepatcher's own registration after a run.
//
// Cleanup is best effort and isolated per record: one record failing to be
// removed, even by panicking, never stops the others. Every record yields a
// RecordResult so callers can inspect exactly what happened.
package cleanup

import (
	"errors"
	"fmt"
	"slices"

	"github.com/rs/zerolog"

	"github.com/danieljhkim/filepatcher/internal/fsops"
	"github.com/danieljhkim/filepatcher/internal/lifecycle"
	"github.com/danieljhkim/filepatcher/internal/logging"
	"github.com/danieljhkim/filepatcher/internal/registry"
	"github.com/danieljhkim/filepatcher/internal/report"
)

var (
	// ErrPanic wraps a panic recovered while removing a record.
	ErrPanic = errors.New("unexpected fault")

	// ErrManifestRemoval indicates the manifest directory could not be deleted.
	ErrManifestRemoval = errors.New("failed to remove manifest folder")
)

// Identity is the stable (element, type) pair of this patcher in the registry.
type Identity struct {
	Name    string
	Element string
	Type    string
}

// Query returns the registry lookup for id.
func (id Identity) Query() registry.Query {
	return registry.Query{Element: id.Element, Type: id.Type}
}

// Policy decides when cleanup runs.
type Policy struct {
	// AutoUninstall enables cleanup at all.
	AutoUninstall bool

	// Lifecycles lists the lifecycle types that trigger cleanup.
	Lifecycles []lifecycle.Type
}

// Allows reports whether cleanup should run for t.
func (p Policy) Allows(t lifecycle.Type) bool {
	return p.AutoUninstall && slices.Contains(p.Lifecycles, t)
}

// RecordResult is the outcome of removing one registration record.
type RecordResult struct {
	Record          registry.Record `json:"record"`
	RecordDeleted   bool            `json:"recordDeleted"`
	ManifestDir     string          `json:"manifestDir,omitempty"`
	ManifestRemoved bool            `json:"manifestRemoved"`
	Err             error           `json:"-"`
	Error           string          `json:"error,omitempty"`
}

// OK reports whether the record was fully removed.
func (r RecordResult) OK() bool {
	return r.Err == nil
}

// Report summarizes a Cleanup call.
type Report struct {
	// Ran is false when the policy skipped cleanup.
	Ran bool `json:"ran"`

	// NotFound is true when no record matched the identity.
	NotFound bool `json:"notFound,omitempty"`

	// LookupError is set when the registry could not be queried.
	LookupError string `json:"lookupError,omitempty"`

	Results []RecordResult `json:"results,omitempty"`
}

// Failed returns the results that did not fully succeed.
func (r *Report) Failed() []RecordResult {
	var out []RecordResult
	for _, res := range r.Results {
		if !res.OK() {
			out = append(out, res)
		}
	}
	return out
}

// Cleaner removes this patcher's registration records and manifest folders.
type Cleaner struct {
	registry      registry.Registry
	fs            fsops.FS
	manifestsRoot string
	identity      Identity
	policy        Policy
	sink          report.Sink
	logger        zerolog.Logger
}

// New creates a Cleaner.
func New(reg registry.Registry, fs fsops.FS, manifestsRoot string, identity Identity, policy Policy, sink report.Sink) *Cleaner {
	if sink == nil {
		sink = report.Discard
	}
	return &Cleaner{
		registry:      reg,
		fs:            fs,
		manifestsRoot: manifestsRoot,
		identity:      identity,
		policy:        policy,
		sink:          sink,
		logger:        logging.GetLogger("cleanup"),
	}
}

// Cleanup removes every registration record matching the identity, if the
// policy allows it for t. It never returns an error; failures are reported
// to the sink and recorded in the Report.
func (c *Cleaner) Cleanup(t lifecycle.Type) *Report {
	rep := &Report{}
	if !c.policy.Allows(t) {
		c.logger.Debug().Str("lifecycle", string(t)).Bool("autoUninstall", c.policy.AutoUninstall).Msg("Cleanup skipped by policy")
		return rep
	}
	rep.Ran = true

	records, err := c.registry.Select(c.identity.Query())
	if err != nil {
		rep.LookupError = err.Error()
		c.sink.Report(report.SeverityWarning, fmt.Sprintf("Patch cleanup skipped. Registry lookup failed: %v", err))
		return rep
	}
	if len(records) == 0 {
		rep.NotFound = true
		c.sink.Report(report.SeverityWarning, "Patch cleanup skipped. Extension record was not found.")
		return rep
	}

	for _, rec := range records {
		res := c.removeRecord(rec)
		rep.Results = append(rep.Results, res)

		name := displayName(rec)
		switch {
		case res.OK():
			c.sink.Report(report.SeveritySuccess, fmt.Sprintf("%s has successfully cleaned itself up after installation.", name))
		case errors.Is(res.Err, ErrManifestRemoval):
			c.sink.Report(report.SeverityWarning, fmt.Sprintf("Patch cleanup warning for %s. Failed to remove manifest folder: %s", name, res.ManifestDir))
		default:
			c.sink.Report(report.SeverityWarning, fmt.Sprintf("%s could not be removed automatically. Please uninstall manually. Error: %v", name, res.Err))
		}
	}

	return rep
}

// removeRecord deletes one registry row and its manifest directory.
// A panic is recovered into the result.
func (c *Cleaner) removeRecord(rec registry.Record) (res RecordResult) {
	res.Record = rec
	defer func() {
		if p := recover(); p != nil {
			res.Err = fmt.Errorf("%w: %v", ErrPanic, p)
		}
		if res.Err != nil {
			res.Error = res.Err.Error()
			c.logger.Warn().Err(res.Err).Int64("id", rec.ID).Msg("Failed to remove registration record")
		}
	}()

	if err := c.registry.Delete(rec.ID); err != nil {
		res.Err = fmt.Errorf("failed to delete registration record %d: %w", rec.ID, err)
		return res
	}
	res.RecordDeleted = true

	if err := fsops.ValidateIdentifier(rec.Element); err != nil {
		res.Err = fmt.Errorf("refusing to derive manifest folder: %w", err)
		return res
	}

	dir := rec.ManifestDir(c.manifestsRoot)
	res.ManifestDir = dir

	isDir, err := c.fs.IsDir(dir)
	if err != nil {
		res.Err = fmt.Errorf("%w: %s: %v", ErrManifestRemoval, dir, err)
		return res
	}
	if !isDir {
		return res
	}

	if err := c.fs.RemoveAll(dir); err != nil {
		res.Err = fmt.Errorf("%w: %s: %v", ErrManifestRemoval, dir, err)
		return res
	}
	res.ManifestRemoved = true

	return res
}

func displayName(rec registry.Record) string {
	name := rec.Name
	if name == "" {
		name = rec.Element
	}
	return fmt.Sprintf("%s (id %d)", name, rec.ID)
}
