package model

import "errors"

var (
	// ErrUnknownBackend is returned when a request names a remote backend
	// that is not part of the configured mapping.
	ErrUnknownBackend = errors.New("invalid remote backend")

	// ErrBackendUnavailable is returned when the remote backend cannot be
	// reached at all.
	ErrBackendUnavailable = errors.New("processing backend unavailable")

	// ErrDeployFailed is returned when deploying an application package to
	// a remote backend does not yield a runnable process.
	ErrDeployFailed = errors.New("process deployment failed")
)
