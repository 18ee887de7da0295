package transform

import "errors"

// ErrUnknownTopic indicates no transformer is registered for a topic.
// Use errors.Is() to check for it in calling code.
var ErrUnknownTopic = errors.New("transform: unknown topic")
