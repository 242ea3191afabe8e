package renderer

import "errors"

// Sentinel errors for renderer operations.
var (
	// ErrAlreadyInitialised indicates InitDescription was called twice.
	ErrAlreadyInitialised = errors.New("renderer: description already initialised")

	// ErrNotInitialised indicates an operation that needs the description ran before it.
	ErrNotInitialised = errors.New("renderer: description not initialised")

	// ErrNoServices indicates the description lists no AVTransport or
	// RenderingControl service to subscribe to.
	ErrNoServices = errors.New("renderer: no subscribable services")

	// ErrSubscribeFailed indicates at least one service subscription failed.
	ErrSubscribeFailed = errors.New("renderer: subscription failed")

	// ErrMalformedEvent indicates an event payload could not be parsed.
	ErrMalformedEvent = errors.New("renderer: malformed event")
)
