package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/fathomgrid/ingest-relay/internal/auth"
	"github.com/fathomgrid/ingest-relay/internal/infrastructure/logging"
	"github.com/fathomgrid/ingest-relay/internal/message"
	"github.com/fathomgrid/ingest-relay/internal/transform"
)

// Publisher sends a JSON payload to a topic. Satisfied by mqtt.Client.
type Publisher interface {
	PublishJSON(topic string, payload []byte) error
}

// AppResolver resolves credentials to an application id. Satisfied by
// identity.Resolver.
type AppResolver interface {
	ResolveApp(ctx context.Context, username, appName string) (int64, error)
}

// MetricEnsurer registers a message's metric names. Satisfied by
// identity.Registrar.
type MetricEnsurer interface {
	EnsureMetrics(ctx context.Context, appID int64, names []string) error
}

// Options collects the pipeline's collaborators.
type Options struct {
	Validator    auth.TokenValidator
	Resolver     AppResolver
	Transformers *transform.Registry
	Publisher    Publisher
	Registrar    MetricEnsurer
	OutputTopic  string
	Logger       *logging.Logger
}

// Pipeline processes inbound telemetry messages.
type Pipeline struct {
	validator    auth.TokenValidator
	resolver     AppResolver
	transformers *transform.Registry
	publisher    Publisher
	registrar    MetricEnsurer
	outputTopic  string
	logger       *logging.Logger

	processed atomic.Uint64
	dropped   atomic.Uint64
}

// New creates a pipeline from its collaborators.
func New(opts Options) *Pipeline {
	return &Pipeline{
		validator:    opts.Validator,
		resolver:     opts.Resolver,
		transformers: opts.Transformers,
		publisher:    opts.Publisher,
		registrar:    opts.Registrar,
		outputTopic:  opts.OutputTopic,
		logger:       opts.Logger.With("component", "pipeline"),
	}
}

// Handle processes one inbound message. It matches mqtt.MessageHandler
// so it can be subscribed directly.
//
// Failures before publication drop the message: the error is logged
// with message context and returned. Metric registration failures
// after publication are logged but the message still counts as
// processed.
//
// Parameters:
//   - topic: The ingest topic the message arrived on
//   - payload: The raw message payload
//
// Returns:
//   - error: The failure that dropped the message, nil when published
func (p *Pipeline) Handle(topic string, payload []byte) error {
	ctx := context.Background()
	log := p.logger.With("message_id", uuid.NewString(), "topic", topic)

	in, err := message.Parse(payload)
	if err != nil {
		p.dropped.Add(1)
		log.Error("dropping malformed message", "error", err, "payload", string(payload))
		return err
	}
	log = log.With("app_name", in.AppName)

	identity, err := p.validator.Validate(ctx, in.Token)
	if err != nil {
		p.dropped.Add(1)
		log.Error("dropping unauthenticated message", "error", err)
		return err
	}
	log = log.With("username", identity.Username)

	appID, err := p.resolver.ResolveApp(ctx, identity.Username, in.AppName)
	if err != nil {
		p.dropped.Add(1)
		log.Error("dropping message, identity resolution failed", "error", err)
		return err
	}

	sanitized, err := p.transformers.Transform(topic, in.Data)
	if err != nil {
		p.dropped.Add(1)
		log.Error("dropping message, transformation failed", "error", err)
		return err
	}
	// Downstream consumers key on the app name inside the payload.
	sanitized.AppName = in.AppName

	out := message.Outbound{AppID: appID, Data: sanitized}
	raw, err := json.Marshal(out)
	if err != nil {
		p.dropped.Add(1)
		log.Error("dropping message, encoding failed", "error", err)
		return fmt.Errorf("encoding outbound message: %w", err)
	}

	if err := p.publisher.PublishJSON(p.outputTopic, raw); err != nil {
		p.dropped.Add(1)
		log.Error("dropping message, publish failed", "error", err)
		return err
	}

	p.processed.Add(1)

	// Best-effort bookkeeping after publication. A failure here leaves
	// the metric unregistered until its next occurrence.
	if err := p.registrar.EnsureMetrics(ctx, appID, sanitized.FieldNames()); err != nil {
		log.Warn("metric registration incomplete", "app_id", appID, "error", err)
	}

	return nil
}

// Stats reports how many messages were published and dropped since
// startup.
func (p *Pipeline) Stats() (processed, dropped uint64) {
	return p.processed.Load(), p.dropped.Load()
}
