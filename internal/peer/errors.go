package peer

import "errors"

var (
	// ErrUnknownEndpoint is returned by Request when no registration
	// exists for the given endpoint identifier. ScheduleSend reports the
	// same case as a false return.
	ErrUnknownEndpoint = errors.New("peer: unknown endpoint")

	// ErrNoSink names the case of a receive arriving before any sink has
	// been installed. ScheduleReceive reports it as a false return and
	// does not return this error.
	ErrNoSink = errors.New("peer: no message sink installed")

	// ErrSendFailed is returned by Request when the endpoint's send
	// closure reports failure after the parcel was successfully staged
	// and encoded.
	ErrSendFailed = errors.New("peer: send closure rejected the message")

	// ErrNoSecuredContext is returned by Request when the endpoint has no
	// encryptor installed yet (the handshake hasn't completed), since
	// Application parcels are always encrypted.
	ErrNoSecuredContext = errors.New("peer: endpoint has no secured context")
)
