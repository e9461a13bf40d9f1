package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Abraxas-365/bastion/pkg/result"
	"github.com/Abraxas-365/bastion/remote"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordCapture captura los registros enviados al canal de auditoría. El
// envío es fire-and-forget en otra goroutine, así que los tests esperan
// en recorded.
type recordCapture struct {
	mu       sync.Mutex
	entries  []remote.OperateLogEntry
	recorded chan struct{}
}

func newRecordCapture() *recordCapture {
	return &recordCapture{recorded: make(chan struct{}, 8)}
}

func (r *recordCapture) Record(ctx context.Context, entry remote.OperateLogEntry) (bool, error) {
	r.mu.Lock()
	r.entries = append(r.entries, entry)
	r.mu.Unlock()
	r.recorded <- struct{}{}
	return true, nil
}

func (r *recordCapture) wait(t *testing.T) remote.OperateLogEntry {
	t.Helper()
	select {
	case <-r.recorded:
	case <-time.After(2 * time.Second):
		t.Fatal("no access log entry recorded")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries[len(r.entries)-1]
}

func newAccessLogApp(capture *recordCapture, opts DispatcherOptions) *fiber.App {
	d := NewDispatcher(opts)
	app := fiber.New(fiber.Config{ErrorHandler: d.ErrorHandler()})
	New().
		Register(NewRequestContextFilter()).
		Register(NewAccessLogFilter(capture, time.Second, d)).
		Apply(app)
	return app
}

func TestAccessLogEntryCarriesEnvelopeCodeOnFailure(t *testing.T) {
	capture := newRecordCapture()
	app := newAccessLogApp(capture, DispatcherOptions{Log: &logRecorder{}})
	app.Get("/denied", func(c *fiber.Ctx) error {
		return result.NewCodeError(result.CodeForbidden)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/denied", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	entry := capture.wait(t)
	assert.Equal(t, result.CodeForbidden, entry.Code)
	assert.Equal(t, http.StatusForbidden, entry.Status)
	assert.NotEmpty(t, entry.ErrorMsg)
	assert.NotEmpty(t, entry.TraceID)
}

func TestAccessLogEntryCarriesEnvelopeCodeOnSuccess(t *testing.T) {
	capture := newRecordCapture()
	app := newAccessLogApp(capture, DispatcherOptions{Log: &logRecorder{}})
	app.Get("/ok", func(c *fiber.Ctx) error {
		return JSON(c, result.Success(map[string]string{"id": "u1"}))
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ok", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	entry := capture.wait(t)
	assert.Equal(t, result.CodeSuccess, entry.Code)
	assert.Empty(t, entry.ErrorMsg)
}

func TestAccessLogClassificationIsNotAuditedTwice(t *testing.T) {
	capture := newRecordCapture()
	sink := &sinkRecorder{}
	app := newAccessLogApp(capture, DispatcherOptions{Log: &logRecorder{}, Sink: sink})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New("pq: connection reset by peer")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	// el filtro clasifica durante el unwind y el ErrorHandler reutiliza
	// esa clasificación: un solo registro persistente para el fallo
	entry := capture.wait(t)
	assert.Equal(t, result.CodeInternalError, entry.Code)
	assert.Len(t, sink.entries, 1)
}
