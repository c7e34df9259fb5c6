package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/trogers1052/ticker-watch/internal/models"
)

// Enqueuer schedules a follow-up job.
type Enqueuer interface {
	Enqueue(ctx context.Context, name string, stockID int64) (string, error)
}

// Chainer consumes job success events and enqueues the follow-up job
// declared in the chain table. Keeping the dependency here, instead of
// inside the job bodies, means a job never knows what runs after it.
type Chainer struct {
	reader   *kafka.Reader
	enqueuer Enqueuer
	chain    map[string]string
}

// NewChainer creates a Kafka consumer that applies the given chain table
// (job name -> follow-up job name).
func NewChainer(brokers []string, topic, groupID string, enqueuer Enqueuer, chain map[string]string) *Chainer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		StartOffset:    kafka.FirstOffset,
		CommitInterval: time.Second,
	})

	return &Chainer{
		reader:   reader,
		enqueuer: enqueuer,
		chain:    chain,
	}
}

// Start begins consuming messages from Kafka
func (c *Chainer) Start(ctx context.Context) error {
	log.Printf("starting job chainer for topic: %s", c.reader.Config().Topic)
	defer c.reader.Close()

	for {
		select {
		case <-ctx.Done():
			log.Println("job chainer shutting down...")
			return nil
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil // Context cancelled, normal shutdown
				}
				log.Printf("error reading message: %v", err)
				continue
			}

			if err := c.processMessage(ctx, msg); err != nil {
				log.Printf("error processing message: %v", err)
				// Continue processing other messages
			}
		}
	}
}

// processMessage handles a single Kafka message
func (c *Chainer) processMessage(ctx context.Context, msg kafka.Message) error {
	var event models.JobEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal job event: %w", err)
	}

	if event.EventType != EventJobSucceeded {
		return nil
	}

	next, ok := c.chain[event.Name]
	if !ok {
		return nil
	}

	// Jobs that finished with a terminal result such as not_found still
	// count as succeeded but must not trigger the follow-up.
	var result struct {
		Status string `json:"status"`
	}
	if len(event.Result) > 0 {
		if err := json.Unmarshal(event.Result, &result); err != nil {
			return fmt.Errorf("failed to unmarshal job result: %w", err)
		}
	}
	if result.Status != "ok" {
		log.Printf("not chaining %s -> %s for stock %d: result status %q",
			event.Name, next, event.StockID, result.Status)
		return nil
	}

	jobID, err := c.enqueuer.Enqueue(ctx, next, event.StockID)
	if err != nil {
		return fmt.Errorf("failed to enqueue %s for stock %d: %w", next, event.StockID, err)
	}

	log.Printf("chained %s -> %s for stock %d (job %s)", event.Name, next, event.StockID, jobID)
	return nil
}
