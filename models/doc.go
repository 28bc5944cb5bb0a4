// Package models provides shared data structures for mini-ipam.
//
// The types here are used by the API server, the client SDK and the CLI, so
// they live outside server/ to avoid import cycles.
//
// The models in this package represent:
//   - Collections: named RFC1918 IPv4 blocks that never overlap each other
//   - Nodes: IP address and port records, optionally assigned to a collection
//
// Request payloads accept the loose shapes sent by web forms (numbers encoded
// as strings, empty strings meaning "none") and normalize them on decode.
package models
