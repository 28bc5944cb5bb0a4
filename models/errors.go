package models

import "errors"

// Common error types used throughout mini-ipam.
// Address engine failures (invalid CIDR, overlap, containment) are defined in
// pkg/cidr; the errors below cover request shape, lookup and storage.

var (
	// ErrNotFound indicates the requested resource does not exist.
	// HTTP equivalent: 404 Not Found
	ErrNotFound = errors.New("resource not found")

	// ErrCollectionNotFound indicates the referenced collection does not exist.
	// HTTP equivalent: 404 Not Found on direct access, 400 Bad Request when a
	// node refers to it
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrNodeNotFound indicates the requested node does not exist.
	// HTTP equivalent: 404 Not Found
	ErrNodeNotFound = errors.New("node not found")

	// ErrUnauthorized indicates the request lacks valid authentication credentials.
	// HTTP equivalent: 401 Unauthorized
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidToken indicates the API token is malformed or unknown.
	// HTTP equivalent: 401 Unauthorized
	ErrInvalidToken = errors.New("invalid authentication token")

	// ErrInvalidRequest indicates the request body or parameters are invalid.
	// HTTP equivalent: 400 Bad Request
	ErrInvalidRequest = errors.New("invalid request")

	// ErrMissingCollectionFields indicates name or cidr was omitted.
	// HTTP equivalent: 400 Bad Request
	ErrMissingCollectionFields = errors.New("name and cidr required")

	// ErrMissingNodeFields indicates ip_address or port was omitted.
	// HTTP equivalent: 400 Bad Request
	ErrMissingNodeFields = errors.New("ip_address and port required")

	// ErrInvalidPort indicates the port is not an integer in [0, 65535].
	// HTTP equivalent: 400 Bad Request
	ErrInvalidPort = errors.New("port must be integer between 0 and 65535")

	// ErrCollectionHasStrayNodes indicates a CIDR change would leave assigned
	// nodes outside the collection.
	// HTTP equivalent: 409 Conflict
	ErrCollectionHasStrayNodes = errors.New("collection has nodes outside the new CIDR")

	// ErrTokenExists indicates an API token with the same name already exists.
	// HTTP equivalent: 409 Conflict
	ErrTokenExists = errors.New("token name already exists")

	// ErrTokenNotFound indicates the named API token does not exist.
	// HTTP equivalent: 404 Not Found
	ErrTokenNotFound = errors.New("token not found")

	// ErrPayloadTooLarge indicates the request body exceeds size limits.
	// HTTP equivalent: 413 Payload Too Large
	ErrPayloadTooLarge = errors.New("payload too large")

	// ErrRateLimitExceeded indicates too many requests from this client.
	// HTTP equivalent: 429 Too Many Requests
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrInternalError indicates an unexpected server-side error.
	// HTTP equivalent: 500 Internal Server Error
	ErrInternalError = errors.New("internal server error")

	// ErrServiceUnavailable indicates the service is temporarily unavailable.
	// HTTP equivalent: 503 Service Unavailable
	ErrServiceUnavailable = errors.New("service unavailable")
)

// ErrorResponse represents a standardized API error response.
type ErrorResponse struct {
	// Error is the human-readable error message
	Error string `json:"error"`

	// Code is an optional error code for programmatic handling
	// Examples: "INVALID_CIDR", "CIDR_OVERLAP", "NOT_FOUND"
	Code string `json:"code,omitempty"`

	// RequestID correlates the response with server logs
	RequestID string `json:"request_id,omitempty"`
}
