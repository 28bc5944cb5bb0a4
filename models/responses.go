package models

// ListResponse wraps list endpoints: {"data": [...]}.
type ListResponse[T any] struct {
	Data []T `json:"data"`
}

// MutationResponse is returned by create, update and delete endpoints.
// Message is "success", "updated" or "deleted".
type MutationResponse[T any] struct {
	Message string `json:"message"`
	Data    *T     `json:"data,omitempty"`
	Changes *int64 `json:"changes,omitempty"`
}

// ItemResponse wraps single-resource reads: {"data": {...}}.
type ItemResponse[T any] struct {
	Data T `json:"data"`
}

// LookupResponse reports the most specific collection containing IP.
// Match is null when no collection contains it.
type LookupResponse struct {
	IP    string      `json:"ip"`
	Match *Collection `json:"match"`
}

// Mutation messages.
const (
	MessageSuccess = "success"
	MessageUpdated = "updated"
	MessageDeleted = "deleted"
)
