package await

import "errors"

var (
	// ErrBuilderInvalid is returned when StageRequest's caller-supplied
	// builder fails validated_build once the Awaitable(Request) extension
	// is stamped onto it.
	ErrBuilderInvalid = errors.New("await: request builder failed validation")

	// ErrUnknownTracker names a response arriving for a key the service
	// never staged or has already completed. HandleResponse reports that
	// case by returning false and does not return this error.
	ErrUnknownTracker = errors.New("await: no tracker registered for key")

	// ErrDuplicateTracker is returned when Defer is called with a key that
	// already names a live tracker.
	ErrDuplicateTracker = errors.New("await: tracker already registered for key")
)
