package opsrv

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Abraxas-365/bastion/operatelog"
	"github.com/Abraxas-365/bastion/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memQueue struct {
	mu       sync.Mutex
	logs     []operatelog.ErrorLog
	enqueued chan struct{}
	failing  bool
}

func newMemQueue() *memQueue {
	return &memQueue{enqueued: make(chan struct{}, 16)}
}

func (q *memQueue) Enqueue(ctx context.Context, log operatelog.ErrorLog) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.failing {
		q.enqueued <- struct{}{}
		return operatelog.ErrQueueUnavailable()
	}
	q.logs = append(q.logs, log)
	q.enqueued <- struct{}{}
	return nil
}

func (q *memQueue) Drain(ctx context.Context, max int) ([]operatelog.ErrorLog, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := max
	if n > len(q.logs) {
		n = len(q.logs)
	}
	out := q.logs[:n]
	q.logs = q.logs[n:]
	return out, nil
}

type memRepo struct {
	mu      sync.Mutex
	saved   [][]operatelog.ErrorLog
	failing bool
}

func (r *memRepo) SaveBatch(ctx context.Context, logs []operatelog.ErrorLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing {
		return errors.New("db down")
	}
	r.saved = append(r.saved, logs)
	return nil
}

func testOperateLogCfg() config.OperateLogConfig {
	return config.OperateLogConfig{
		QueueKey:  "test:queue",
		FlushSpec: "@every 1h",
		FlushMax:  10,
	}
}

func waitEnqueued(t *testing.T, q *memQueue) {
	t.Helper()
	select {
	case <-q.enqueued:
	case <-time.After(time.Second):
		t.Fatal("submit never reached the queue")
	}
}

func TestSubmitEnqueuesWithoutBlocking(t *testing.T) {
	queue := newMemQueue()
	svc := NewErrorLogService(queue, &memRepo{}, testOperateLogCfg())

	start := time.Now()
	svc.Submit(operatelog.ErrorLog{TraceID: "t1", Msg: "boom"})
	assert.Less(t, time.Since(start), 50*time.Millisecond)

	waitEnqueued(t, queue)
	queue.mu.Lock()
	defer queue.mu.Unlock()
	require.Len(t, queue.logs, 1)
	assert.Equal(t, "t1", queue.logs[0].TraceID)
}

func TestSubmitSwallowsQueueFailure(t *testing.T) {
	queue := newMemQueue()
	queue.failing = true
	svc := NewErrorLogService(queue, &memRepo{}, testOperateLogCfg())

	assert.NotPanics(t, func() {
		svc.Submit(operatelog.ErrorLog{TraceID: "t2"})
	})
	waitEnqueued(t, queue)
}

func TestFlushPersistsDrainedBatch(t *testing.T) {
	queue := newMemQueue()
	repo := &memRepo{}
	svc := NewErrorLogService(queue, repo, testOperateLogCfg())

	svc.Submit(operatelog.ErrorLog{TraceID: "a"})
	svc.Submit(operatelog.ErrorLog{TraceID: "b"})
	waitEnqueued(t, queue)
	waitEnqueued(t, queue)

	svc.flushOnce()

	repo.mu.Lock()
	defer repo.mu.Unlock()
	require.Len(t, repo.saved, 1)
	assert.Len(t, repo.saved[0], 2)
}

func TestFlushWithEmptyQueueDoesNothing(t *testing.T) {
	repo := &memRepo{}
	svc := NewErrorLogService(newMemQueue(), repo, testOperateLogCfg())

	svc.flushOnce()

	repo.mu.Lock()
	defer repo.mu.Unlock()
	assert.Empty(t, repo.saved)
}

func TestFlushSurvivesStoreFailure(t *testing.T) {
	queue := newMemQueue()
	repo := &memRepo{failing: true}
	svc := NewErrorLogService(queue, repo, testOperateLogCfg())

	svc.Submit(operatelog.ErrorLog{TraceID: "c"})
	waitEnqueued(t, queue)

	assert.NotPanics(t, svc.flushOnce)
}

func TestStartFlusherRejectsBadSpec(t *testing.T) {
	cfg := testOperateLogCfg()
	cfg.FlushSpec = "not a cron spec"
	svc := NewErrorLogService(newMemQueue(), &memRepo{}, cfg)

	assert.Error(t, svc.StartFlusher())
}
