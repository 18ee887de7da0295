package transform

import (
	"fmt"
	"sync"

	"github.com/fathomgrid/ingest-relay/internal/message"
)

// Transformer is a pure payload transformation. Implementations must
// not mutate their input.
type Transformer func(message.Payload) message.Payload

// Registry maps ingest topics to their transformers.
//
// Registration happens at startup; lookups run on every message.
type Registry struct {
	mu           sync.RWMutex
	transformers map[string]Transformer
}

// NewRegistry creates an empty transformer registry.
func NewRegistry() *Registry {
	return &Registry{
		transformers: make(map[string]Transformer),
	}
}

// Register binds a transformer to a topic, replacing any previous
// binding.
func (r *Registry) Register(topic string, t Transformer) {
	r.mu.Lock()
	r.transformers[topic] = t
	r.mu.Unlock()
}

// Transform applies the topic's transformer to a payload.
//
// Parameters:
//   - topic: The ingest topic the message arrived on
//   - p: The raw payload
//
// Returns:
//   - message.Payload: The sanitized payload
//   - error: Wrapped ErrUnknownTopic when no transformer is registered
func (r *Registry) Transform(topic string, p message.Payload) (message.Payload, error) {
	r.mu.RLock()
	t, ok := r.transformers[topic]
	r.mu.RUnlock()

	if !ok {
		return message.Payload{}, fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
	}

	return t(p), nil
}

// DefaultRegistry wires the standard topic bindings: the canonical
// ingest topic sanitizes, the legacy topic passes through.
func DefaultRegistry(ingestTopic, legacyTopic string) *Registry {
	r := NewRegistry()
	r.Register(ingestTopic, Sanitize)
	if legacyTopic != "" {
		r.Register(legacyTopic, Passthrough)
	}
	return r
}
