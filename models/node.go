package models

import "strings"

// Node is an address and port record. A node may belong to at most one
// collection, in which case its IP lies inside that collection's CIDR.
type Node struct {
	// ID is the database-assigned identifier
	ID int64 `json:"id" db:"id"`

	// IPAddress is the IPv4 address in canonical dotted-quad form
	IPAddress string `json:"ip_address" db:"ip_address"`

	// Port is the service port, 0 through 65535
	Port int `json:"port" db:"port"`

	// CollectionID is the owning collection, or null when unassigned.
	// Deleting a collection does not clear it.
	CollectionID *int64 `json:"collection_id" db:"collection_id"`

	// Name is an optional label
	Name *string `json:"name" db:"name"`

	// Notes is optional free text
	Notes *string `json:"notes" db:"notes"`
}

// NodeRequest represents the request body for creating or replacing a node.
type NodeRequest struct {
	// IPAddress is the IPv4 address (required)
	IPAddress string `json:"ip_address"`

	// Port is required and must be an integer in [0, 65535]
	Port FlexInt `json:"port"`

	// CollectionID assigns the node to a collection. Null, "" and 0 mean none.
	CollectionID FlexInt `json:"collection_id"`

	// Name is an optional label; empty means null
	Name string `json:"name,omitempty"`

	// Notes is optional free text; empty means null
	Notes string `json:"notes,omitempty"`

	// AutoAssign asks the server to pick the most specific containing
	// collection when CollectionID is empty
	AutoAssign bool `json:"auto_assign,omitempty"`
}

// NodeFields is a NodeRequest after shape checks.
type NodeFields struct {
	IPAddress    string
	Port         int
	CollectionID *int64
	Name         *string
	Notes        *string
	AutoAssign   bool
}

// MaxPort is the largest valid port number.
const MaxPort = 65535

// Normalize checks required fields and the port range and converts the loose
// request shape into NodeFields. The IP address is trimmed but not parsed.
func (r NodeRequest) Normalize() (NodeFields, error) {
	ip := strings.TrimSpace(r.IPAddress)
	if ip == "" || !r.Port.Present {
		return NodeFields{}, ErrMissingNodeFields
	}

	port, ok := r.Port.Int()
	if !ok || port < 0 || port > MaxPort {
		return NodeFields{}, ErrInvalidPort
	}

	fields := NodeFields{
		IPAddress:  ip,
		Port:       int(port),
		Name:       optionalString(r.Name),
		Notes:      optionalString(r.Notes),
		AutoAssign: r.AutoAssign,
	}

	if !r.CollectionID.Empty() {
		id, ok := r.CollectionID.Int()
		if !ok || id < 0 {
			return NodeFields{}, ErrInvalidRequest
		}
		if id != 0 {
			fields.CollectionID = &id
		}
	}

	return fields, nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
