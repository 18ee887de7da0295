package message

import "errors"

// ErrMalformedMessage indicates an inbound payload that could not be
// parsed or is missing a required field (app_name, token, data).
// Use errors.Is() to check for it in calling code.
var ErrMalformedMessage = errors.New("message: malformed message")
