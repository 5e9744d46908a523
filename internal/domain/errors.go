package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCredentials is returned when no oracle API key is configured.
	// Scans still complete, degraded to a zero price.
	ErrMissingCredentials = errors.New("recognition service credentials not configured")

	// ErrDecodeFailed is returned when a single uploaded image cannot be decoded.
	// The image is skipped; sibling images in the batch continue.
	ErrDecodeFailed = errors.New("image decode failed")

	// ErrOracleRequestFailed is returned on network-level failures (including
	// timeouts) talking to the recognition service.
	ErrOracleRequestFailed = errors.New("recognition service request failed")

	// ErrInvalidOutput is returned when the oracle response cannot be parsed
	// into a candidate even after salvage.
	ErrInvalidOutput = errors.New("invalid structured output from recognition service")

	// ErrNoValidImages is returned when a scan request contains no decodable
	// images. This is the only failure surfaced to the client as a 400.
	ErrNoValidImages = errors.New("no valid images in request")

	// ErrInvalidRequest is returned when request parameters are invalid.
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheMiss is returned when data is not found in cache.
	ErrCacheMiss = errors.New("cache miss")
)

// OracleHTTPError carries the status code and a truncated body of a non-2xx
// response from the recognition service, so callers can degrade gracefully
// instead of handling an unstructured failure.
type OracleHTTPError struct {
	Status int
	Body   string // truncated to 800 bytes
}

func (e *OracleHTTPError) Error() string {
	return fmt.Sprintf("recognition service returned status %d: %s", e.Status, e.Body)
}
