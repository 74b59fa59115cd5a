// Package events provides event publishing functionality.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"interview-emotion-engine/internal/observability/metrics"
	"interview-emotion-engine/internal/schema"
)

// Publisher publishes live session events to separate Kafka topics, one
// for window emissions and one for completed utterances. With Kafka
// disabled it degrades to log-only mode, which keeps the recording
// pipeline independent of broker availability.
type Publisher struct {
	writerEmission  *kafka.Writer
	writerUtterance *kafka.Writer
	principal       string
	topicEmission   string
	topicUtterance  string
	enabled         bool
	validator       *schema.Validator
	metrics         *metrics.Metrics
}

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers        []string
	TopicEmission  string
	TopicUtterance string
	Principal      string
	Enabled        bool
}

// New creates an event publisher. A nil config, a disabled flag or an
// empty broker list all yield log-only mode.
func New(cfg *Config) *Publisher {
	m := metrics.DefaultMetrics
	v := schema.New()

	if cfg == nil {
		log.Info().Msg("Kafka disabled (nil config), using log-only mode")
		return &Publisher{enabled: false, validator: v, metrics: m}
	}

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("Kafka disabled, using log-only mode")
		return &Publisher{
			principal:      cfg.Principal,
			topicEmission:  cfg.TopicEmission,
			topicUtterance: cfg.TopicUtterance,
			enabled:        false,
			validator:      v,
			metrics:        m,
		}
	}

	// Longer dial timeouts for DNS resolution in Kubernetes.
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}
	transport := &kafka.Transport{
		Dial: dialer.DialFunc,
	}

	newWriter := func(topic string) *kafka.Writer {
		return &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 10 * time.Millisecond,
			WriteTimeout: 10 * time.Second,
			RequiredAcks: kafka.RequireOne,
			Transport:    transport,
		}
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topicEmission", cfg.TopicEmission).
		Str("topicUtterance", cfg.TopicUtterance).
		Str("principal", cfg.Principal).
		Msg("Kafka publisher initialized")

	return &Publisher{
		writerEmission:  newWriter(cfg.TopicEmission),
		writerUtterance: newWriter(cfg.TopicUtterance),
		principal:       cfg.Principal,
		topicEmission:   cfg.TopicEmission,
		topicUtterance:  cfg.TopicUtterance,
		enabled:         true,
		validator:       v,
		metrics:         m,
	}
}

// PublishEmission publishes a window emission event keyed by session.
func (p *Publisher) PublishEmission(ctx context.Context, sessionID string, event any) error {
	return p.publish(ctx, p.writerEmission, p.topicEmission, "emission", sessionID, event)
}

// PublishUtterance publishes a completed-utterance event keyed by
// session.
func (p *Publisher) PublishUtterance(ctx context.Context, sessionID string, event any) error {
	return p.publish(ctx, p.writerUtterance, p.topicUtterance, "utterance", sessionID, event)
}

// publish is the internal method that writes to a specific Kafka writer.
func (p *Publisher) publish(ctx context.Context, writer *kafka.Writer, topic, eventType, key string, event any) error {
	start := time.Now()

	if err := p.validator.Validate(event); err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Event failed validation")
		return err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Failed to marshal event")
		return err
	}

	log.Debug().
		Str("principal", p.principal).
		Str("topic", topic).
		Str("key", key).
		RawJSON("payload", payload).
		Msg("Publishing event")

	// If Kafka is disabled, just log
	if !p.enabled || writer == nil {
		p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(eventType)},
			{Key: "principal", Value: []byte(p.principal)},
		},
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		log.Error().
			Err(err).
			Str("topic", topic).
			Str("key", key).
			Msg("Failed to write to Kafka")
		p.metrics.RecordKafkaPublish(topic, eventType, err, time.Since(start).Seconds())
		return err
	}

	p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
	return nil
}

// Close closes both Kafka writers.
func (p *Publisher) Close() error {
	var err error
	if p.writerEmission != nil {
		if e := p.writerEmission.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing emission writer")
			err = e
		}
	}
	if p.writerUtterance != nil {
		if e := p.writerUtterance.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing utterance writer")
			err = e
		}
	}
	return err
}
