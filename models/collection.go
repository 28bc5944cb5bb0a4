package models

import "strings"

// Collection is a named IPv4 block. Collections never overlap each other and
// always lie inside one of the RFC1918 private ranges.
type Collection struct {
	// ID is the database-assigned identifier
	ID int64 `json:"id" db:"id"`

	// Name is a free-form label (e.g., "office-lan", "k8s-pods")
	Name string `json:"name" db:"name"`

	// CIDR is the block in canonical "<network>/<prefix>" form; host bits
	// supplied by the client are dropped on write
	CIDR string `json:"cidr" db:"cidr"`
}

// CollectionRequest represents the request body for creating or replacing a
// collection.
type CollectionRequest struct {
	// Name is the collection label (required)
	Name string `json:"name"`

	// CIDR is the IPv4 block in "a.b.c.d/p" notation (required)
	CIDR string `json:"cidr"`
}

// Normalize trims surrounding whitespace and reports ErrMissingCollectionFields
// when either field is empty.
func (r *CollectionRequest) Normalize() error {
	r.Name = strings.TrimSpace(r.Name)
	r.CIDR = strings.TrimSpace(r.CIDR)
	if r.Name == "" || r.CIDR == "" {
		return ErrMissingCollectionFields
	}
	return nil
}

// CollectionInfo is returned by the collection info endpoint.
type CollectionInfo struct {
	Collection

	Network     string `json:"network"`
	Netmask     string `json:"netmask"`
	Prefix      int    `json:"prefix"`
	Broadcast   string `json:"broadcast"`
	FirstUsable string `json:"first_usable"`
	LastUsable  string `json:"last_usable"`
	TotalIPs    uint64 `json:"total_ips"`
	UsableIPs   uint64 `json:"usable_ips"`

	// NodeCount is the number of nodes currently assigned to the collection
	NodeCount int `json:"node_count"`
}
