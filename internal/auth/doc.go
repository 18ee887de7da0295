// Package auth validates the bearer credentials carried by inbound
// telemetry messages.
//
// The pipeline depends only on the TokenValidator interface: a single
// synchronous call per message that yields the authenticated identity
// or a typed failure. No retries happen here; the caller treats any
// failure as terminal for that message.
//
// The concrete validator verifies HMAC-signed JWTs locally. Swapping
// in a remote identity provider means implementing TokenValidator,
// nothing else changes.
//
// Two failures are distinguished: ErrTokenInvalid when the token is
// rejected (bad signature, expired, malformed), and ErrTokenUnparseable
// when the token verifies but carries no resolvable principal.
package auth
