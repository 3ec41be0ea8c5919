package client

import "errors"

var (
	// ErrDaemonNotRunning means the socket is missing or nobody listens on it.
	ErrDaemonNotRunning = errors.New("soccerbot daemon not running")

	// ErrPermissionDenied means the socket exists but the caller may not open it.
	// The daemon only opens its socket to non-root users when allowNonRootAccess is set.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound is returned for a 404, usually an endpoint an older daemon lacks.
	ErrNotFound = errors.New("404 not found")
)
