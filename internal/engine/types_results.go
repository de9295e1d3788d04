package engine

import (
	"github.com/danieljhkim/filepatcher/internal/cleanup"
	"github.com/danieljhkim/filepatcher/internal/guard"
	"github.com/danieljhkim/filepatcher/internal/overlay"
)

// PreflightResult represents the result of a preflight call.
type PreflightResult struct {
	// Decision is the run guard's verdict
	Decision guard.Decision `json:"decision"`

	// HostVersion is the version that was checked
	HostVersion string `json:"hostVersion"`

	// SourceAbsent is true when there was no source folder to patch from
	SourceAbsent bool `json:"sourceAbsent,omitempty"`

	// Counts are the run counters after preflight
	Counts overlay.Counts `json:"counts"`

	// Results holds one entry per enumerated patch file (empty unless Decision is Proceed)
	Results []overlay.Result `json:"results,omitempty"`
}

// PostflightResult represents the result of a postflight call.
type PostflightResult struct {
	// Reported is false when the summary was already reported or no run happened
	Reported bool `json:"reported"`

	// Summary is the completion message
	Summary string `json:"summary,omitempty"`

	// Counts are the final run counters
	Counts overlay.Counts `json:"counts"`

	// Cleanup is nil when no cleanup was attempted
	Cleanup *cleanup.Report `json:"cleanup,omitempty"`
}

// RunResult combines both hooks.
type RunResult struct {
	Preflight  *PreflightResult  `json:"preflight"`
	Postflight *PostflightResult `json:"postflight,omitempty"`
}
