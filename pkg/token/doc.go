// Package token generates, hashes and checks mini-ipam API tokens.
//
// A token is the prefix "mipam_" followed by unpadded base64url random bytes:
//
//	tok, err := token.Generate()
//	// mipam_Jx3...  (49 characters)
//
// Only the HMAC-SHA256 of a token is stored. The server secret keys the hash,
// so a leaked api_tokens table cannot be replayed against a server with a
// different secret:
//
//	hash := token.Hash(tok, secret)
//	ok := token.Validate(provided, secret, hash)
//
// Fingerprint gives a short, non-reversible tag that is safe to log.
package token
