package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/danieljhkim/filepatcher/internal/guard"
	"github.com/danieljhkim/filepatcher/internal/logging"
	"github.com/danieljhkim/filepatcher/internal/overlay"
	"github.com/danieljhkim/filepatcher/internal/report"
)

// Preflight runs the patch overlay for a host lifecycle event.
// It returns ErrUnsupportedVersion (with a non-nil result) when the host
// version is unsupported and ErrNilRequest when req is nil; every other
// problem is reported and counted.
//
// Algorithm steps:
// 1. Enter the run guard; a repeat call is a no-op success
// 2. Reset counters
// 3. Enumerate patch files; an absent source is an empty overlay
// 4. Apply each file in order, recording its outcome
func (e *Engine) Preflight(ctx context.Context, req *PreflightRequest) (*PreflightResult, error) {
	if req == nil {
		return nil, fmt.Errorf("preflight: %w", ErrNilRequest)
	}
	result := &PreflightResult{HostVersion: req.HostVersion}

	result.Decision = e.guard.Enter(req.HostVersion)
	switch result.Decision {
	case guard.AlreadyRan:
		e.logger.Debug().Str("lifecycle", string(req.Lifecycle)).Msg("Preflight already ran in this process")
		result.Counts = e.counter.Snapshot()
		return result, nil
	case guard.Abort:
		e.sink.Report(report.SeverityWarning, fmt.Sprintf(
			"Patch run skipped. Unsupported host version detected: %s. Supported versions: %s.",
			req.HostVersion, strings.Join(e.guard.Supported(), ", ")))
		return result, fmt.Errorf("%w: %s", ErrUnsupportedVersion, req.HostVersion)
	}

	done := e.logOperation("preflight")
	defer done()

	e.counter.Reset()
	e.results = nil

	files, err := e.walker.Enumerate(e.roots.Source)
	if err != nil {
		if errors.Is(err, overlay.ErrSourceAbsent) {
			result.SourceAbsent = true
			e.sink.Report(report.SeverityWarning, "No patch files folder found in the installation package.")
		} else {
			e.sink.Report(report.SeverityError, fmt.Sprintf("Unable to read patch files: %v", err))
		}
		result.Counts = e.counter.Snapshot()
		return result, nil
	}

	for _, file := range files {
		res := e.applier.Apply(file, e.roots.Source, e.roots.Target)
		e.counter.Record(res.Outcome)
		e.results = append(e.results, res)
	}

	result.Counts = e.counter.Snapshot()
	result.Results = e.Results()
	return result, nil
}

func (e *Engine) logOperation(name string) func() {
	return logging.LogOperationStart(e.logger, name)
}
