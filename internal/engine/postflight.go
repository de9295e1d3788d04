package engine

import (
	"context"
	"fmt"

	"github.com/danieljhkim/filepatcher/internal/guard"
	"github.com/danieljhkim/filepatcher/internal/overlay"
	"github.com/danieljhkim/filepatcher/internal/report"
)

// Postflight reports the run summary once per process and then, if a cleaner
// is configured, removes the patcher's registration when policy allows.
// It does nothing when no run has proceeded in this process.
func (e *Engine) Postflight(ctx context.Context, req *PostflightRequest) (*PostflightResult, error) {
	if req == nil {
		return nil, fmt.Errorf("postflight: %w", ErrNilRequest)
	}
	result := &PostflightResult{Counts: e.counter.Snapshot()}

	if e.guard.State() != guard.Ran {
		e.logger.Debug().Msg("Postflight skipped: no run in this process")
		return result, nil
	}
	if !e.guard.MarkReported() {
		e.logger.Debug().Msg("Postflight skipped: summary already reported")
		return result, nil
	}

	result.Reported = true
	result.Summary = Summary(result.Counts)

	severity := report.SeverityInfo
	if result.Counts.Failed > 0 {
		severity = report.SeverityWarning
	}
	e.sink.Report(severity, result.Summary)

	if e.cleaner != nil {
		result.Cleanup = e.cleaner.Cleanup(req.Lifecycle)
	}

	return result, nil
}

// Run calls Preflight and, unless it aborted, Postflight.
func (e *Engine) Run(ctx context.Context, req *RunRequest) (*RunResult, error) {
	if req == nil {
		return nil, fmt.Errorf("run: %w", ErrNilRequest)
	}
	pre, err := e.Preflight(ctx, &PreflightRequest{Lifecycle: req.Lifecycle, HostVersion: req.HostVersion})
	result := &RunResult{Preflight: pre}
	if err != nil {
		return result, err
	}

	post, err := e.Postflight(ctx, &PostflightRequest{Lifecycle: req.Lifecycle})
	if err != nil {
		return result, fmt.Errorf("postflight failed: %w", err)
	}
	result.Postflight = post
	return result, nil
}

// Summary renders the completion message for counts.
func Summary(c overlay.Counts) string {
	return fmt.Sprintf("Patch run completed. Applied: %d, Failed: %d, Missing: %d.", c.Applied, c.Failed, c.Missing)
}
