package route

import "errors"

var (
	// ErrInvalidRoute is returned by Register when a route fails the path
	// grammar (§4.6).
	ErrInvalidRoute = errors.New("route: path fails the route grammar")

	// ErrNoHandler names the case of no registered route matching the
	// parcel's route. Dispatch reports it as a false return and does not
	// return this error.
	ErrNoHandler = errors.New("route: no handler registered for this route")

	// ErrNotAwaitableRequest is returned by Next.Defer when the inbound
	// parcel carries no Awaitable(Request) extension to correlate a
	// response against. Next.Respond reports the same case as a false
	// return.
	ErrNotAwaitableRequest = errors.New("route: inbound parcel carries no awaitable request extension")
)
