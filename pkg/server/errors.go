package server

import "errors"

// Error kinds returned by the server. Build errors wrap both the kind and
// the underlying cause, so errors.Is works for either.
var (
	// ErrConfiguration means the configuration was rejected before anything
	// was bound: no handler, TLS without readable cert/key, bad port.
	ErrConfiguration = errors.New("invalid server configuration")

	// ErrBind means the listening socket could not be created.
	ErrBind = errors.New("failed to bind server socket")

	// ErrTLSCredential means the certificate/key pair could not be resolved.
	ErrTLSCredential = errors.New("failed to resolve TLS credentials")

	// ErrStop is reported through StopHandle.Err when teardown fails.
	ErrStop = errors.New("server stop failed")
)
