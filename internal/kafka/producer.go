package kafka

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"

	"github.com/krystal-project/powermap/internal/config"
)

// Producer publishes analysis lifecycle events. A nil Producer is
// valid and publishes nothing, which is how the service runs when no
// brokers are configured.
type Producer struct {
	producer sarama.SyncProducer
	topic    string
	logger   *slog.Logger
}

// AnalysisCompletedEvent is published after each successful analysis.
type AnalysisCompletedEvent struct {
	JobID             string    `json:"job_id"`
	EntityCount       int       `json:"entity_count"`
	RelationshipCount int       `json:"relationship_count"`
	CommunityCount    int       `json:"community_count"`
	DurationMillis    int64     `json:"duration_ms"`
	CompletedAt       time.Time `json:"completed_at"`
}

// NewProducer creates a Kafka producer, or nil when publishing is not
// configured.
func NewProducer(cfg config.KafkaConfig, logger *slog.Logger) (*Producer, error) {
	if !cfg.Enabled() {
		return nil, nil
	}

	kafkaConfig := sarama.NewConfig()
	kafkaConfig.Producer.RequiredAcks = sarama.WaitForAll
	kafkaConfig.Producer.Retry.Max = 5
	kafkaConfig.Producer.Return.Successes = true
	kafkaConfig.Producer.Partitioner = sarama.NewRandomPartitioner

	producer, err := sarama.NewSyncProducer(cfg.Brokers, kafkaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}

	return &Producer{
		producer: producer,
		topic:    cfg.AnalysisCompletedTopic,
		logger:   logger,
	}, nil
}

// PublishAnalysisCompleted publishes an analysis.completed event keyed
// by job id.
func (p *Producer) PublishAnalysisCompleted(event *AnalysisCompletedEvent) error {
	if p == nil {
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.JobID),
		Value: sarama.ByteEncoder(payload),
	})
	if err != nil {
		return fmt.Errorf("failed to publish analysis event: %w", err)
	}

	p.logger.Debug("Published analysis event",
		"topic", p.topic,
		"partition", partition,
		"offset", offset,
		"job_id", event.JobID)
	return nil
}

// Topic returns the configured event topic.
func (p *Producer) Topic() string {
	if p == nil {
		return ""
	}
	return p.topic
}

// Close shuts the underlying producer down.
func (p *Producer) Close() error {
	if p == nil {
		return nil
	}
	return p.producer.Close()
}
