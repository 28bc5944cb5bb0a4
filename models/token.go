package models

import "time"

// APIToken is a stored API token. The plaintext token is only ever returned
// once, at creation, and is never persisted.
type APIToken struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	TokenHash  string     `json:"-"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at"`
}
