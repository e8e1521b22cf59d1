package assets

import (
	"context"
	"encoding/json"

	"github.com/code/app-dub-agpl/pkg/mq"
	"github.com/code/app-dub-agpl/prometheus"

	"github.com/segmentio/kafka-go"
)

// Task describes one object to remove from the asset store
type Task struct {
	WorkspaceID string `json:"workspace_id"`
	Key         string `json:"key"`
}

// Queue accepts cleanup tasks for background processing. Handlers enqueue
// replaced or orphaned logo objects here instead of deleting them inline.
type Queue interface {
	Enqueue(ctx context.Context, task Task) error
}

// KafkaQueue publishes cleanup tasks onto the cleanup topic, keyed by
// workspace so tasks for one workspace stay ordered
type KafkaQueue struct {
	writer *kafka.Writer
}

// NewKafkaQueue creates a queue publishing to the given writer
func NewKafkaQueue(writer *kafka.Writer) *KafkaQueue {
	return &KafkaQueue{writer: writer}
}

// Enqueue publishes a single cleanup task
func (q *KafkaQueue) Enqueue(ctx context.Context, task Task) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}
	if err := mq.ProduceMessage(ctx, q.writer, []byte(task.WorkspaceID), payload); err != nil {
		return err
	}

	prometheus.AssetCleanupQueuedCounter.Inc()
	return nil
}
