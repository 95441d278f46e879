package authorized

import "errors"

// These sentinels name the Receive rejection cases. Receive itself reports
// every rejection as a false return and does not return these errors.
var (
	// ErrNoMessageContext names a buffer arriving on an endpoint that
	// carries no registered security context.
	ErrNoMessageContext = errors.New("authorized: endpoint has no message context")

	// ErrMalformedBuffer names a buffer from which neither a Platform nor
	// an Application parcel can be peeked.
	ErrMalformedBuffer = errors.New("authorized: buffer is neither a platform nor application parcel")

	// ErrDestinationMismatch mirrors internal/exchange's destination
	// enforcement (§4.3 step 4), relaxed only for a destination-less
	// Handshake parcel as §4.5 step 3 names.
	ErrDestinationMismatch = errors.New("authorized: destination does not name this node")
)
