package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// SyncStream carries pending order reconciliation jobs.
	SyncStream = "orders:sync"
)

// SyncJob is one reconciliation request for a single order against one
// external system.
type SyncJob struct {
	OrderID       string `json:"order_id"`
	System        string `json:"system"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

type StreamProducer struct {
	client *redis.Client
}

func NewStreamProducer(client *redis.Client) *StreamProducer {
	return &StreamProducer{client: client}
}

// PublishSyncJob enqueues a reconciliation job.
func (p *StreamProducer) PublishSyncJob(ctx context.Context, job SyncJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal sync job: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: SyncStream,
		Values: map[string]any{
			"order_id":  job.OrderID,
			"system":    job.System,
			"payload":   string(payload),
			"timestamp": time.Now().Unix(),
		},
	}

	if _, err := p.client.XAdd(ctx, args).Result(); err != nil {
		return fmt.Errorf("failed to publish sync job: %w", err)
	}
	return nil
}

// Enqueue adapts the producer to the service layer's job queue port.
func (p *StreamProducer) Enqueue(ctx context.Context, orderID, system, correlationID string) error {
	return p.PublishSyncJob(ctx, SyncJob{
		OrderID:       orderID,
		System:        system,
		CorrelationID: correlationID,
	})
}

// ParseSyncJob decodes a sync job from a stream message.
func ParseSyncJob(msg redis.XMessage) (SyncJob, error) {
	raw, ok := msg.Values["payload"].(string)
	if !ok {
		return SyncJob{}, fmt.Errorf("sync job message %s has no payload", msg.ID)
	}
	var job SyncJob
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return SyncJob{}, fmt.Errorf("failed to decode sync job: %w", err)
	}
	return job, nil
}

type StreamConsumer struct {
	client        *redis.Client
	stream        string
	group         string
	consumer      string
	batchSize     int64
	blockDuration time.Duration
}

func NewStreamConsumer(
	client *redis.Client,
	stream string,
	group string,
	consumer string,
	batchSize int64,
	blockDuration time.Duration,
) *StreamConsumer {
	return &StreamConsumer{
		client:        client,
		stream:        stream,
		group:         group,
		consumer:      consumer,
		batchSize:     batchSize,
		blockDuration: blockDuration,
	}
}

func (c *StreamConsumer) CreateGroup(ctx context.Context) error {
	// Create stream if it doesn't exist
	const busyGroupMsg = "BUSYGROUP"
	err := c.client.XGroupCreateMkStream(ctx, c.stream, c.group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), busyGroupMsg) {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}
	return nil
}

func (c *StreamConsumer) Read(ctx context.Context) ([]redis.XStream, error) {
	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.group,
		Consumer: c.consumer,
		Streams:  []string{c.stream, ">"},
		Count:    c.batchSize,
		Block:    c.blockDuration,
	}).Result()

	if err != nil {
		if err == redis.Nil {
			// No new messages
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read from stream: %w", err)
	}

	return streams, nil
}

func (c *StreamConsumer) Ack(ctx context.Context, messageID string) error {
	if err := c.client.XAck(ctx, c.stream, c.group, messageID).Err(); err != nil {
		return fmt.Errorf("failed to ack message: %w", err)
	}
	return nil
}
