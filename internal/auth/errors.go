package auth

import "errors"

// Sentinel errors for credential validation.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrTokenInvalid indicates the token was rejected: bad signature,
	// expired, or structurally malformed.
	ErrTokenInvalid = errors.New("auth: token invalid")

	// ErrTokenUnparseable indicates the token verified but no principal
	// could be resolved from its claims.
	ErrTokenUnparseable = errors.New("auth: token has no resolvable principal")
)
