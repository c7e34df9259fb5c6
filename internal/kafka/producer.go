package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/trogers1052/ticker-watch/internal/models"
)

// EventJobSucceeded is emitted after a job's result has been committed.
const EventJobSucceeded = "JOB_SUCCEEDED"

// Producer handles publishing job events to Kafka
type Producer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer creates a new Kafka producer
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}

	return &Producer{
		writer: writer,
		topic:  topic,
	}
}

// PublishJobSucceeded publishes a job success event
func (p *Producer) PublishJobSucceeded(ctx context.Context, job *models.Job) error {
	event := models.JobEvent{
		EventType: EventJobSucceeded,
		JobID:     job.ID,
		Name:      job.Name,
		StockID:   job.StockID,
		Result:    job.Result,
		Timestamp: time.Now(),
	}
	return p.publish(ctx, job.ID, event)
}

func (p *Producer) publish(ctx context.Context, key string, event models.JobEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	return nil
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	return p.writer.Close()
}
