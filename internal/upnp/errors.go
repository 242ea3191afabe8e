package upnp

import "errors"

// Sentinel errors for UPnP transport operations.
//
//	if errors.Is(err, upnp.ErrSubscribeRejected) {
//	    // device refused the subscription
//	}
var (
	// ErrNotStarted indicates Start has not been called, so no callback
	// listener exists for GENA subscriptions.
	ErrNotStarted = errors.New("upnp: client not started")

	// ErrInvalidDescription indicates a device description could not be parsed.
	ErrInvalidDescription = errors.New("upnp: invalid device description")

	// ErrUnexpectedStatus indicates a device answered with a non-200 status.
	ErrUnexpectedStatus = errors.New("upnp: unexpected HTTP status")

	// ErrSubscribeRejected indicates a SUBSCRIBE response without a usable SID.
	ErrSubscribeRejected = errors.New("upnp: subscription rejected")

	// ErrUnknownSubscription indicates an operation on a SID this client does not hold.
	ErrUnknownSubscription = errors.New("upnp: unknown subscription")

	// ErrSOAPFault indicates a control request returned a SOAP fault.
	ErrSOAPFault = errors.New("upnp: SOAP fault")
)
