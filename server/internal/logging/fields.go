// Package logging provides structured logging utilities for the mini-ipam server.
package logging

import "go.uber.org/zap"

// Standard field names for consistent logging across the application.
const (
	// FieldCollectionID is the identifier of a collection.
	FieldCollectionID = "collection_id"

	// FieldNodeID is the identifier of a node.
	FieldNodeID = "node_id"

	// FieldCIDR is a CIDR block in a.b.c.d/p notation.
	FieldCIDR = "cidr"

	// FieldIP is an IPv4 address.
	FieldIP = "ip"

	// FieldReason names why a write was rejected.
	FieldReason = "reason"

	// FieldRequestID is a unique identifier for each HTTP request.
	FieldRequestID = "request_id"

	// FieldDuration is the duration of an operation in milliseconds.
	FieldDuration = "duration_ms"

	// FieldStatusCode is the HTTP status code of a response.
	FieldStatusCode = "status_code"

	// FieldMethod is the HTTP method of a request.
	FieldMethod = "method"

	// FieldPath is the URL path of an HTTP request.
	FieldPath = "path"

	// FieldRemoteAddr is the client's remote address.
	FieldRemoteAddr = "remote_addr"

	// FieldUserAgent is the client's user agent string.
	FieldUserAgent = "user_agent"

	// FieldComponent identifies the component or service generating the log.
	FieldComponent = "component"

	// FieldOperation identifies the specific operation being performed.
	FieldOperation = "operation"
)

// CollectionID returns a zap field for a collection identifier.
func CollectionID(id int64) zap.Field { return zap.Int64(FieldCollectionID, id) }

// NodeID returns a zap field for a node identifier.
func NodeID(id int64) zap.Field { return zap.Int64(FieldNodeID, id) }

// CIDR returns a zap field for a CIDR block.
func CIDR(cidr string) zap.Field { return zap.String(FieldCIDR, cidr) }

// IP returns a zap field for an IPv4 address.
func IP(ip string) zap.Field { return zap.String(FieldIP, ip) }

// Component returns a zap field naming the emitting component.
func Component(name string) zap.Field { return zap.String(FieldComponent, name) }
