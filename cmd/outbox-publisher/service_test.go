package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pawpantry/storefront-api/pkg/config"
	"github.com/pawpantry/storefront-api/pkg/db/models"
	"github.com/pawpantry/storefront-api/pkg/enums"
	"github.com/pawpantry/storefront-api/pkg/logger"
	"github.com/pawpantry/storefront-api/pkg/outbox"
)

func TestProcessBatchContinuesAfterFailure(t *testing.T) {
	first := orderEvent(t, 0)
	second := orderEvent(t, 0)
	repo := &fakeRepo{events: []models.OutboxEvent{first, second}}
	pub := &fakePublisher{results: []publishResult{
		fakePublishResult{err: errors.New("transient")},
		fakePublishResult{},
	}}
	counters := &fakeMetrics{}
	svc := newTestService(t, repo, pub, counters, 5)

	handled, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if handled != 2 {
		t.Fatalf("expected 2 handled, got %d", handled)
	}
	if len(repo.failed) != 1 || repo.failed[0] != first.ID {
		t.Fatalf("expected first event marked failed, got %v", repo.failed)
	}
	if len(repo.published) != 1 || repo.published[0] != second.ID {
		t.Fatalf("expected second event published, got %v", repo.published)
	}
	if counters.published != 1 || counters.failed != 1 {
		t.Fatalf("unexpected metrics %+v", counters)
	}
}

func TestProcessBatchAttachesAttributes(t *testing.T) {
	event := orderEvent(t, 0)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	pub := &fakePublisher{results: []publishResult{fakePublishResult{}}}

	if _, err := newTestService(t, repo, pub, nil, 5).processBatch(context.Background()); err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if len(pub.messages) != 1 {
		t.Fatalf("expected one message, got %d", len(pub.messages))
	}
	attrs := pub.messages[0].Attributes
	if attrs["event_type"] != "order.created" || attrs["aggregate_id"] != event.AggregateID.String() || attrs["event_id"] == "" {
		t.Fatalf("unexpected attributes %v", attrs)
	}
	if string(pub.messages[0].Data) != event.Payload {
		t.Fatalf("expected envelope to be published verbatim")
	}
}

func TestProcessBatchTerminalOnMaxAttempts(t *testing.T) {
	event := orderEvent(t, 4)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	pub := &fakePublisher{results: []publishResult{fakePublishResult{err: errors.New("still down")}}}

	if _, err := newTestService(t, repo, pub, nil, 5).processBatch(context.Background()); err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if len(repo.terminal) != 1 || repo.terminal[0] != event.ID {
		t.Fatalf("expected terminal mark, got %v", repo.terminal)
	}
	if len(repo.failed) != 0 {
		t.Fatalf("terminal events should not be marked for retry")
	}
}

func TestProcessBatchTerminalOnBadEnvelope(t *testing.T) {
	event := orderEvent(t, 0)
	event.Payload = `{"not":"an envelope"}`
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	pub := &fakePublisher{}

	if _, err := newTestService(t, repo, pub, nil, 5).processBatch(context.Background()); err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if len(repo.terminal) != 1 {
		t.Fatalf("expected terminal mark for malformed payload")
	}
	if len(pub.messages) != 0 {
		t.Fatalf("malformed payload must not be published")
	}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	if _, err := NewService(ServiceParams{}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	svc := newTestService(t, &fakeRepo{}, &fakePublisher{}, nil, 5)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := svc.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestRunFailsWhenBrokerDown(t *testing.T) {
	svc := newTestService(t, &fakeRepo{}, &fakePublisher{}, nil, 5)
	svc.broker = fakeBroker{err: errors.New("no topic")}

	if err := svc.Run(context.Background()); err == nil {
		t.Fatalf("expected readiness error")
	}
}

func TestNextBackoffCaps(t *testing.T) {
	if got := nextBackoff(time.Second, time.Second, 3*time.Second); got != 2*time.Second {
		t.Fatalf("expected doubling, got %s", got)
	}
	if got := nextBackoff(2*time.Second, time.Second, 3*time.Second); got != 3*time.Second {
		t.Fatalf("expected cap, got %s", got)
	}
}

func newTestService(t *testing.T, repo outboxRepository, pub publisher, counters publishMetrics, maxAttempts int) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Config:     &config.Config{Outbox: config.OutboxConfig{BatchSize: 10, PollIntervalMS: 10, MaxAttempts: maxAttempts}},
		Logger:     logger.New(logger.Options{ServiceName: "outbox-test", Output: io.Discard}),
		DB:         fakeDB{},
		Broker:     fakeBroker{},
		Repository: repo,
		Publisher:  pub,
		Metrics:    counters,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func orderEvent(t *testing.T, attempts int) models.OutboxEvent {
	t.Helper()
	data, err := json.Marshal(map[string]any{"order_number": "ORD-20260101-000001"})
	if err != nil {
		t.Fatalf("marshal data: %v", err)
	}
	payload, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		EventType:  enums.EventOrderCreated.String(),
		OccurredAt: time.Now().UTC(),
		Data:       data,
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       string(payload),
		AttemptCount:  attempts,
	}
}

type fakeRepo struct {
	events    []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
	terminal  []uuid.UUID
}

func (f *fakeRepo) FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error) {
	return f.events, nil
}

func (f *fakeRepo) MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error {
	f.published = append(f.published, id)
	return nil
}

func (f *fakeRepo) MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error {
	f.failed = append(f.failed, id)
	return nil
}

func (f *fakeRepo) MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, maxAttempts int) error {
	f.terminal = append(f.terminal, id)
	return nil
}

type fakeDB struct{}

func (fakeDB) Ping(context.Context) error {
	return nil
}

func (fakeDB) WithTx(_ context.Context, fn func(*gorm.DB) error) error {
	return fn(nil)
}

type fakeBroker struct {
	err error
}

func (f fakeBroker) Ping(context.Context) error {
	return f.err
}

type fakePublisher struct {
	results  []publishResult
	messages []*gcppubsub.Message
}

func (f *fakePublisher) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	f.messages = append(f.messages, msg)
	if len(f.results) == 0 {
		return fakePublishResult{}
	}
	result := f.results[0]
	f.results = f.results[1:]
	return result
}

type fakePublishResult struct {
	err error
}

func (f fakePublishResult) Get(context.Context) (string, error) {
	return "server-id", f.err
}

type fakeMetrics struct {
	published int
	failed    int
}

func (f *fakeMetrics) IncPublished(string) { f.published++ }

func (f *fakeMetrics) IncFailed(string) { f.failed++ }
