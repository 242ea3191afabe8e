package controller

import "errors"

// Sentinel errors for controller operations.
var (
	// ErrNoControlURL indicates the renderer exposes no AVTransport control URL.
	ErrNoControlURL = errors.New("controller: renderer has no AVTransport control URL")
)
