package assets

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/code/app-dub-agpl/prometheus"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Deleter removes a stored object
type Deleter interface {
	Delete(ctx context.Context, key string) error
}

// Worker consumes cleanup tasks and deletes the referenced objects from the
// asset store. Deletion is best effort: failures are logged and the message
// is committed anyway, so a broken object never blocks the topic.
type Worker struct {
	reader  *kafka.Reader
	store   Deleter
	log     *zap.Logger
	wg      sync.WaitGroup
	stopped atomic.Bool
}

// NewWorker creates a cleanup worker consuming from the given reader
func NewWorker(reader *kafka.Reader, store Deleter, log *zap.Logger) *Worker {
	return &Worker{
		reader: reader,
		store:  store,
		log:    log,
	}
}

// Start begins consuming the cleanup topic. This is a long-running method;
// call Stop for a graceful shutdown.
func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.log.Info("Asset cleanup worker started",
			zap.String("topic", w.reader.Config().Topic))

		for {
			if w.stopped.Load() {
				return
			}

			// FetchMessage instead of ReadMessage so the offset is only
			// committed after the task ran
			msg, err := w.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil || w.stopped.Load() {
					w.log.Info("Asset cleanup worker shutting down")
					return
				}
				w.log.Error("Failed to fetch cleanup message", zap.Error(err))
				time.Sleep(1 * time.Second)
				continue
			}

			w.process(ctx, msg)

			if err := w.reader.CommitMessages(ctx, msg); err != nil {
				w.log.Error("Failed to commit cleanup message", zap.Error(err))
			}
		}
	}()
}

// Stop gracefully stops the worker
func (w *Worker) Stop() {
	w.stopped.Store(true)
	w.reader.Close()
	w.wg.Wait()
}

// process decodes and runs a single cleanup task
func (w *Worker) process(ctx context.Context, msg kafka.Message) {
	var task Task
	if err := json.Unmarshal(msg.Value, &task); err != nil {
		w.log.Error("Failed to decode cleanup task, skipping message", zap.Error(err))
		return
	}
	if task.Key == "" {
		w.log.Warn("Cleanup task without object key, skipping",
			zap.String("workspace_id", task.WorkspaceID))
		return
	}

	if err := w.store.Delete(ctx, task.Key); err != nil {
		prometheus.RecordAssetCleanup("failed")
		w.log.Error("Failed to delete asset",
			zap.String("workspace_id", task.WorkspaceID),
			zap.String("key", task.Key),
			zap.Error(err))
		return
	}

	prometheus.RecordAssetCleanup("deleted")
	w.log.Info("Deleted asset",
		zap.String("workspace_id", task.WorkspaceID),
		zap.String("key", task.Key))
}
