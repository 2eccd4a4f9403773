package vacation

import "errors"

var (
	// ErrNotFound means the geocoder had no match for the requested city.
	ErrNotFound = errors.New("location not found")
	// ErrUpstream means a third-party call failed, timed out, or was refused by an open breaker.
	ErrUpstream = errors.New("upstream failure")
	// ErrDataAccess means the packing store could not be queried.
	ErrDataAccess = errors.New("data access failure")
	// ErrMalformedResponse means an upstream body did not have the expected shape.
	ErrMalformedResponse = errors.New("malformed upstream response")
)

// Outcome names the error kind for logs and metric labels.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed"
	case errors.Is(err, ErrUpstream):
		return "upstream"
	case errors.Is(err, ErrDataAccess):
		return "data_access"
	default:
		return "error"
	}
}
