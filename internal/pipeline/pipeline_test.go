package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/fathomgrid/ingest-relay/internal/auth"
	"github.com/fathomgrid/ingest-relay/internal/infrastructure/logging"
	"github.com/fathomgrid/ingest-relay/internal/message"
	"github.com/fathomgrid/ingest-relay/internal/pipeline"
	"github.com/fathomgrid/ingest-relay/internal/transform"
)

// fakeValidator accepts a single token and maps it to a username.
type fakeValidator struct {
	token    string
	username string
	calls    int
}

func (v *fakeValidator) Validate(_ context.Context, token string) (*auth.Identity, error) {
	v.calls++
	if token != v.token {
		return nil, auth.ErrTokenInvalid
	}
	return &auth.Identity{Username: v.username}, nil
}

// fakeResolver hands out sequential ids per (username, app_name) pair.
type fakeResolver struct {
	mu    sync.Mutex
	ids   map[string]int64
	next  int64
	calls int
	err   error
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{ids: make(map[string]int64), next: 1}
}

func (r *fakeResolver) ResolveApp(_ context.Context, username, appName string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return 0, r.err
	}
	key := username + "/" + appName
	if id, ok := r.ids[key]; ok {
		return id, nil
	}
	id := r.next
	r.next++
	r.ids[key] = id
	return id, nil
}

// fakePublisher captures published payloads.
type fakePublisher struct {
	mu       sync.Mutex
	topics   []string
	payloads [][]byte
	err      error
}

func (p *fakePublisher) PublishJSON(topic string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, payload)
	return nil
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.payloads)
}

// fakeRegistrar records EnsureMetrics invocations.
type fakeRegistrar struct {
	mu     sync.Mutex
	appIDs []int64
	names  [][]string
	err    error
}

func (r *fakeRegistrar) EnsureMetrics(_ context.Context, appID int64, names []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appIDs = append(r.appIDs, appID)
	r.names = append(r.names, names)
	return r.err
}

func (r *fakeRegistrar) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.appIDs)
}

const (
	ingestTopic = "data/ingest"
	outputTopic = "data/authenticated"
)

type fixture struct {
	validator *fakeValidator
	resolver  *fakeResolver
	publisher *fakePublisher
	registrar *fakeRegistrar
	pipe      *pipeline.Pipeline
}

func newFixture() *fixture {
	f := &fixture{
		validator: &fakeValidator{token: "valid", username: "alice"},
		resolver:  newFakeResolver(),
		publisher: &fakePublisher{},
		registrar: &fakeRegistrar{},
	}
	f.pipe = pipeline.New(pipeline.Options{
		Validator:    f.validator,
		Resolver:     f.resolver,
		Transformers: transform.DefaultRegistry(ingestTopic, "data/ingest/clean"),
		Publisher:    f.publisher,
		Registrar:    f.registrar,
		OutputTopic:  outputTopic,
		Logger:       logging.Default(),
	})
	return f
}

const firstSightRaw = `{
	"app_name": "dev1",
	"token": "valid",
	"data": {
		"time": "2024-01-01T00:00:00Z",
		"metadata": {"loc": "bldg-1"},
		"payload_fields": {
			"power (kW)": {"value": 4.17, "displayName": "power", "unit": "kW"}
		}
	}
}`

func TestHandle_FirstSight(t *testing.T) {
	f := newFixture()

	if err := f.pipe.Handle(ingestTopic, []byte(firstSightRaw)); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	if f.publisher.count() != 1 {
		t.Fatalf("publishes = %d, want 1", f.publisher.count())
	}
	if f.publisher.topics[0] != outputTopic {
		t.Errorf("published to %q, want %q", f.publisher.topics[0], outputTopic)
	}

	var out message.Outbound
	if err := json.Unmarshal(f.publisher.payloads[0], &out); err != nil {
		t.Fatalf("decoding published payload: %v", err)
	}
	if out.AppID != 1 {
		t.Errorf("app_id = %d, want 1", out.AppID)
	}
	if out.Data.AppName != "dev1" {
		t.Errorf("data.app_name = %q, want %q", out.Data.AppName, "dev1")
	}
	if out.Data.Time != "2024-01-01T00:00:00Z" {
		t.Errorf("data.time = %q", out.Data.Time)
	}
	if out.Data.Metadata["loc"] != "bldg_1" {
		t.Errorf("metadata loc = %q, want %q", out.Data.Metadata["loc"], "bldg_1")
	}
	field, ok := out.Data.PayloadFields["power_kW_"]
	if !ok {
		t.Fatalf("published fields = %v, want key %q", out.Data.FieldNames(), "power_kW_")
	}
	if field.Value != 4.17 {
		t.Errorf("field value = %v, want 4.17", field.Value)
	}

	if f.registrar.count() != 1 {
		t.Fatalf("EnsureMetrics calls = %d, want 1", f.registrar.count())
	}
	if f.registrar.appIDs[0] != 1 {
		t.Errorf("EnsureMetrics app_id = %d, want 1", f.registrar.appIDs[0])
	}
	if len(f.registrar.names[0]) != 1 || f.registrar.names[0][0] != "power_kW_" {
		t.Errorf("EnsureMetrics names = %v, want [power_kW_]", f.registrar.names[0])
	}

	processed, dropped := f.pipe.Stats()
	if processed != 1 || dropped != 0 {
		t.Errorf("Stats() = %d, %d; want 1, 0", processed, dropped)
	}
}

func TestHandle_InvalidToken(t *testing.T) {
	f := newFixture()
	raw := `{"app_name":"dev1","token":"wrong","data":{"time":"2024-01-01T00:00:00Z"}}`

	err := f.pipe.Handle(ingestTopic, []byte(raw))
	if !errors.Is(err, auth.ErrTokenInvalid) {
		t.Fatalf("Handle() error = %v, want ErrTokenInvalid", err)
	}

	if f.resolver.calls != 0 {
		t.Error("invalid token must never reach identity resolution")
	}
	if f.publisher.count() != 0 {
		t.Error("invalid token must never publish downstream")
	}
	if f.registrar.count() != 0 {
		t.Error("invalid token must never register metrics")
	}

	processed, dropped := f.pipe.Stats()
	if processed != 0 || dropped != 1 {
		t.Errorf("Stats() = %d, %d; want 0, 1", processed, dropped)
	}
}

func TestHandle_Malformed(t *testing.T) {
	f := newFixture()

	err := f.pipe.Handle(ingestTopic, []byte(`{"token":"valid"}`))
	if !errors.Is(err, message.ErrMalformedMessage) {
		t.Fatalf("Handle() error = %v, want ErrMalformedMessage", err)
	}
	if f.validator.calls != 0 {
		t.Error("malformed message must never reach the validator")
	}
	if f.publisher.count() != 0 {
		t.Error("malformed message must never publish downstream")
	}
}

func TestHandle_UnknownTopic(t *testing.T) {
	f := newFixture()

	err := f.pipe.Handle("data/other", []byte(firstSightRaw))
	if !errors.Is(err, transform.ErrUnknownTopic) {
		t.Fatalf("Handle() error = %v, want ErrUnknownTopic", err)
	}
	if f.publisher.count() != 0 {
		t.Error("unknown topic must never publish downstream")
	}
}

func TestHandle_ResolverFailure(t *testing.T) {
	f := newFixture()
	f.resolver.err = errors.New("store down")

	if err := f.pipe.Handle(ingestTopic, []byte(firstSightRaw)); err == nil {
		t.Fatal("Handle() should fail when resolution fails")
	}
	if f.publisher.count() != 0 {
		t.Error("failed resolution must never publish downstream")
	}
}

func TestHandle_PublishFailure(t *testing.T) {
	f := newFixture()
	f.publisher.err = errors.New("broker gone")

	if err := f.pipe.Handle(ingestTopic, []byte(firstSightRaw)); err == nil {
		t.Fatal("Handle() should fail when publish fails")
	}
	if f.registrar.count() != 0 {
		t.Error("failed publish must not trigger metric registration")
	}
}

func TestHandle_RegistrarFailureStillSucceeds(t *testing.T) {
	f := newFixture()
	f.registrar.err = errors.New("registry down")

	if err := f.pipe.Handle(ingestTopic, []byte(firstSightRaw)); err != nil {
		t.Fatalf("Handle() error = %v; registration failure must not fail the message", err)
	}
	if f.publisher.count() != 1 {
		t.Error("message should have been published despite registration failure")
	}

	processed, _ := f.pipe.Stats()
	if processed != 1 {
		t.Errorf("processed = %d, want 1", processed)
	}
}

func TestHandle_LegacyTopicPassthrough(t *testing.T) {
	f := newFixture()
	raw := `{"app_name":"dev1","token":"valid","data":{
		"time":"2024-01-01T00:00:00Z",
		"payload_fields":{"power_kW_":{"value":4.17,"displayName":"power","unit":"kW"}}
	}}`

	if err := f.pipe.Handle("data/ingest/clean", []byte(raw)); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	var out message.Outbound
	if err := json.Unmarshal(f.publisher.payloads[0], &out); err != nil {
		t.Fatalf("decoding published payload: %v", err)
	}
	if _, ok := out.Data.PayloadFields["power_kW_"]; !ok {
		t.Errorf("legacy topic fields = %v", out.Data.FieldNames())
	}
}

func TestHandle_IndependentMessages(t *testing.T) {
	f := newFixture()

	// A failed message does not affect the next one.
	if err := f.pipe.Handle(ingestTopic, []byte(`garbage`)); err == nil {
		t.Fatal("Handle() should fail for garbage input")
	}
	if err := f.pipe.Handle(ingestTopic, []byte(firstSightRaw)); err != nil {
		t.Fatalf("Handle() error = %v after a prior failure", err)
	}

	processed, dropped := f.pipe.Stats()
	if processed != 1 || dropped != 1 {
		t.Errorf("Stats() = %d, %d; want 1, 1", processed, dropped)
	}
}
