package engine

import "errors"

var (
	// ErrUnsupportedVersion indicates the host version is not in the
	// supported set. It is the only error that aborts a host install.
	ErrUnsupportedVersion = errors.New("unsupported host version")

	// ErrNilRequest indicates a hook was called without a request.
	ErrNilRequest = errors.New("request is required")
)
