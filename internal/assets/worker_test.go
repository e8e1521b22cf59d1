package assets

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/code/app-dub-agpl/pkg/config"
	"github.com/code/app-dub-agpl/prometheus"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMain(m *testing.M) {
	cfg, _ := config.Load()
	prometheus.InitMetrics(cfg)
	os.Exit(m.Run())
}

type fakeDeleter struct {
	deleted []string
	err     error
}

func (f *fakeDeleter) Delete(ctx context.Context, key string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, key)
	return nil
}

func taskMessage(t *testing.T, task Task) kafka.Message {
	t.Helper()
	payload, err := json.Marshal(task)
	require.NoError(t, err)
	return kafka.Message{Key: []byte(task.WorkspaceID), Value: payload}
}

func TestProcessDeletesObject(t *testing.T) {
	store := &fakeDeleter{}
	w := NewWorker(nil, store, zap.NewNop())

	w.process(context.Background(), taskMessage(t, Task{
		WorkspaceID: "ws1",
		Key:         "workspaces/ws_ws1/logo_old",
	}))

	assert.Equal(t, []string{"workspaces/ws_ws1/logo_old"}, store.deleted)
}

func TestProcessLogsDeletionFailure(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	store := &fakeDeleter{err: errors.New("store unavailable")}
	w := NewWorker(nil, store, zap.New(core))

	w.process(context.Background(), taskMessage(t, Task{WorkspaceID: "ws1", Key: "k"}))

	failures := logs.FilterMessage("Failed to delete asset").All()
	require.Len(t, failures, 1)
	assert.Equal(t, "ws1", failures[0].ContextMap()["workspace_id"])
	assert.Equal(t, "k", failures[0].ContextMap()["key"])
}

func TestProcessSkipsMalformedTask(t *testing.T) {
	store := &fakeDeleter{}
	w := NewWorker(nil, store, zap.NewNop())

	w.process(context.Background(), kafka.Message{Value: []byte("{not json")})

	assert.Empty(t, store.deleted)
}

func TestProcessSkipsTaskWithoutKey(t *testing.T) {
	store := &fakeDeleter{}
	w := NewWorker(nil, store, zap.NewNop())

	w.process(context.Background(), taskMessage(t, Task{WorkspaceID: "ws1"}))

	assert.Empty(t, store.deleted)
}
