package engine

import "github.com/danieljhkim/filepatcher/internal/lifecycle"

// PreflightRequest represents the host's preflight hook call.
type PreflightRequest struct {
	// Lifecycle is the host event being processed
	Lifecycle lifecycle.Type

	// HostVersion is the running host version, matched exactly
	HostVersion string
}

// PostflightRequest represents the host's postflight hook call.
type PostflightRequest struct {
	// Lifecycle is the host event being processed
	Lifecycle lifecycle.Type
}

// RunRequest drives preflight and postflight in one call.
type RunRequest struct {
	Lifecycle   lifecycle.Type
	HostVersion string
}
