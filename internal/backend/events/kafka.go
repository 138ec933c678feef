package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	dErrors "veriflow/pkg/domain-errors"
)

// KafkaPublisher writes feed events to a Kafka topic, keyed by session id
// so per-session ordering survives partitioning.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
	mu     sync.RWMutex
	closed bool
}

// NewKafkaPublisher connects to the given brokers (comma separated).
func NewKafkaPublisher(brokers, topic string, logger *slog.Logger) (*KafkaPublisher, error) {
	if brokers == "" {
		return nil, fmt.Errorf("kafka brokers not configured")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka topic not configured")
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(strings.Split(brokers, ",")...),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.RecordRetries(3),
		kgo.ProducerLinger(5*time.Millisecond),
		kgo.RecordDeliveryTimeout(10*time.Second),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	return &KafkaPublisher{
		client: client,
		topic:  topic,
		logger: logger,
	}, nil
}

// Publish produces one event synchronously.
func (p *KafkaPublisher) Publish(ctx context.Context, ev Event) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return dErrors.New(dErrors.CodeInternal, "event publisher is closed")
	}
	p.mu.RUnlock()

	value, err := json.Marshal(ev)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "marshal event")
	}

	rec := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(ev.SessionID),
		Value: value,
	}
	if err := p.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		p.logger.Error("event publish failed",
			slog.String("type", ev.Type),
			slog.String("session_id", ev.SessionID),
			slog.String("error", err.Error()))
		return dErrors.Wrap(err, dErrors.CodeInternal, "produce event")
	}
	return nil
}

// Close flushes pending records and releases the client.
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.client.Flush(ctx); err != nil {
		p.logger.Warn("kafka flush on close", slog.String("error", err.Error()))
	}
	p.client.Close()
	return nil
}
