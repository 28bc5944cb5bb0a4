// Package util holds the checks applied to server settings at startup.
package util

import (
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/google/uuid"
)

// MinSecretLength is the shortest accepted HMAC secret in bytes.
const MinSecretLength = 32

// ValidateUUID checks if a string is a valid UUID.
//
// Example:
//
//	if err := util.ValidateUUID(config.InstanceID); err != nil {
//	    return fmt.Errorf("invalid instance ID format: %w", err)
//	}
func ValidateUUID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid UUID format: %w", err)
	}
	return nil
}

// ValidateListenAddr checks a host:port listen address. The host may be
// empty to listen on every interface; port 0 picks a free port.
func ValidateListenAddr(addr string) error {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid listen address %q: %w", addr, err)
	}
	if host != "" && host != "localhost" && net.ParseIP(host) == nil {
		return fmt.Errorf("invalid listen host %q", host)
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 0 || n > 65535 {
		return fmt.Errorf("listen port must be between 0 and 65535, got %q", port)
	}
	return nil
}

// ValidateSecret checks an HMAC secret. An empty secret is allowed and
// disables token checks.
func ValidateSecret(secret string) error {
	if secret != "" && len(secret) < MinSecretLength {
		return fmt.Errorf("HMAC secret must be at least %d bytes (got %d)", MinSecretLength, len(secret))
	}
	return nil
}

// ValidateOrigins checks CORS origins. Each must be "*" or an http(s)
// origin without a path.
func ValidateOrigins(origins []string) error {
	for _, origin := range origins {
		if origin == "*" {
			continue
		}
		u, err := url.Parse(origin)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid CORS origin %q", origin)
		}
		if u.Path != "" && u.Path != "/" {
			return fmt.Errorf("CORS origin %q must not include a path", origin)
		}
	}
	return nil
}
