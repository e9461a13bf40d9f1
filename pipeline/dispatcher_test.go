package pipeline

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/Abraxas-365/bastion/pkg/result"
	"github.com/Abraxas-365/craftable/errx"
	"github.com/gofiber/fiber/v2"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sinkRecorder struct {
	entries []ErrorLogEntry
}

func (s *sinkRecorder) SubmitErrorLog(entry ErrorLogEntry) {
	s.entries = append(s.entries, entry)
}

type logRecorder struct {
	warns  []string
	errors []string
}

func (l *logRecorder) Warn(format string, args ...any) {
	l.warns = append(l.warns, fmt.Sprintf(format, args...))
}

func (l *logRecorder) Error(format string, args ...any) {
	l.errors = append(l.errors, fmt.Sprintf(format, args...))
}

func newDispatcherApp(opts DispatcherOptions) *fiber.App {
	d := NewDispatcher(opts)
	app := fiber.New(fiber.Config{ErrorHandler: d.ErrorHandler()})
	New().Register(NewBodyCacheFilter(testExcludedPrefixes)).Apply(app)
	return app
}

func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return req
}

func TestDispatchBusinessFaultKeepsDeclaredCode(t *testing.T) {
	app := newDispatcherApp(DispatcherOptions{Log: &logRecorder{}})
	app.Get("/quota", func(c *fiber.Ctx) error {
		return result.NewError("A1001", "quota exceeded for plan {}", "free")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/quota", nil))
	require.NoError(t, err)

	r := decodeEnvelope(t, resp)
	assert.Equal(t, "A1001", r.Code)
	assert.Equal(t, "quota exceeded for plan free", r.Msg)
	// domain codes outside the registry answer envelope-first with 200
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDispatchRegisteredBusinessFaultUsesItsStatus(t *testing.T) {
	app := newDispatcherApp(DispatcherOptions{Log: &logRecorder{}})
	app.Get("/denied", func(c *fiber.Ctx) error {
		return result.NewCodeError(result.CodeForbidden)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/denied", nil))
	require.NoError(t, err)

	r := decodeEnvelope(t, resp)
	assert.Equal(t, result.CodeForbidden, r.Code)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestDispatchFieldTypeMismatchNamesFieldAndRawValue(t *testing.T) {
	app := newDispatcherApp(DispatcherOptions{Log: &logRecorder{}})
	app.Post("/users", func(c *fiber.Ctx) error {
		var body struct {
			Name string `json:"name"`
			Age  int    `json:"age"`
		}
		if err := c.BodyParser(&body); err != nil {
			return err
		}
		return JSON(c, result.Success(body))
	})

	resp, err := app.Test(postJSON("/users", `{"name":"ada","age":"not-a-number"}`))
	require.NoError(t, err)

	r := decodeEnvelope(t, resp)
	assert.Equal(t, result.CodeParamType, r.Code)
	assert.Contains(t, r.Msg, "age")
	assert.Contains(t, r.Msg, "not-a-number")
}

func TestDispatchMalformedBody(t *testing.T) {
	app := newDispatcherApp(DispatcherOptions{Log: &logRecorder{}})
	app.Post("/users", func(c *fiber.Ctx) error {
		var body map[string]any
		if err := c.BodyParser(&body); err != nil {
			return err
		}
		return JSON(c, result.Success(body))
	})

	resp, err := app.Test(postJSON("/users", `{"name":`))
	require.NoError(t, err)
	r := decodeEnvelope(t, resp)
	assert.Equal(t, result.CodeBadRequest, r.Code)
}

func TestDispatchAbsentBody(t *testing.T) {
	app := newDispatcherApp(DispatcherOptions{Log: &logRecorder{}})
	app.Post("/users", func(c *fiber.Ctx) error {
		var body map[string]any
		if err := c.BodyParser(&body); err != nil {
			return err
		}
		return JSON(c, result.Success(body))
	})

	resp, err := app.Test(postJSON("/users", ""))
	require.NoError(t, err)
	r := decodeEnvelope(t, resp)
	assert.Equal(t, result.CodeBadRequest, r.Code)
	assert.Contains(t, r.Msg, "required")
}

func TestDispatchQueryParamTypeMismatch(t *testing.T) {
	app := newDispatcherApp(DispatcherOptions{Log: &logRecorder{}})
	app.Get("/list", func(c *fiber.Ctx) error {
		n, err := strconv.Atoi(c.Query("page"))
		if err != nil {
			return err
		}
		return JSON(c, result.Success(n))
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/list?page=abc", nil))
	require.NoError(t, err)
	r := decodeEnvelope(t, resp)
	assert.Equal(t, result.CodeParamType, r.Code)
	assert.Contains(t, r.Msg, "abc")
}

func TestDispatchUnknownRoute(t *testing.T) {
	app := newDispatcherApp(DispatcherOptions{Log: &logRecorder{}})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/no/such/route", nil))
	require.NoError(t, err)
	r := decodeEnvelope(t, resp)
	assert.Equal(t, result.CodeNotFound, r.Code)
	assert.Contains(t, r.Msg, "/no/such/route")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDispatchMethodNotAllowed(t *testing.T) {
	app := newDispatcherApp(DispatcherOptions{Log: &logRecorder{}})
	app.Post("/only-post", func(c *fiber.Ctx) error { return JSON(c, result.Success(nil)) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/only-post", nil))
	require.NoError(t, err)
	r := decodeEnvelope(t, resp)
	assert.Equal(t, result.CodeMethodNotAllowed, r.Code)
	assert.Contains(t, r.Msg, "GET")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestDispatchErrxTypes(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"validation", errx.New("bad field", errx.TypeValidation), result.CodeValidation},
		{"authorization", errx.New("no permission", errx.TypeAuthorization), result.CodeForbidden},
		{"not found", errx.New("missing row", errx.TypeNotFound), result.CodeNotFound},
		{"external", errx.New("upstream down", errx.TypeExternal), result.CodeUpstreamError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newDispatcherApp(DispatcherOptions{Log: &logRecorder{}})
			app.Get("/x", func(c *fiber.Ctx) error { return tc.err })

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/x", nil))
			require.NoError(t, err)
			r := decodeEnvelope(t, resp)
			assert.Equal(t, tc.wantCode, r.Code)
		})
	}
}

func TestDispatchUnprovisionedRelationNamesModule(t *testing.T) {
	app := newDispatcherApp(DispatcherOptions{Log: &logRecorder{}})
	app.Get("/logs", func(c *fiber.Ctx) error {
		return &pq.Error{Code: pqUndefinedTable, Message: `relation "error_logs" does not exist`}
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/logs", nil))
	require.NoError(t, err)
	r := decodeEnvelope(t, resp)
	assert.Equal(t, result.CodeModuleMissing, r.Code)
	assert.Contains(t, r.Msg, "error-log")
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
}

func TestDispatchWrappedBusinessFaultOneLevel(t *testing.T) {
	app := newDispatcherApp(DispatcherOptions{Log: &logRecorder{}})
	app.Get("/cached", func(c *fiber.Ctx) error {
		return fmt.Errorf("loader failed: %w", result.NewError("A1002", "stale entry"))
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/cached", nil))
	require.NoError(t, err)
	r := decodeEnvelope(t, resp)
	assert.Equal(t, "A1002", r.Code)
	assert.Equal(t, "stale entry", r.Msg)
}

func TestDispatchDeeplyWrappedBusinessFaultIsInternal(t *testing.T) {
	sink := &sinkRecorder{}
	app := newDispatcherApp(DispatcherOptions{Log: &logRecorder{}, Sink: sink})
	app.Get("/deep", func(c *fiber.Ctx) error {
		inner := result.NewError("A1003", "too deep")
		return fmt.Errorf("outer: %w", fmt.Errorf("inner: %w", inner))
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/deep", nil))
	require.NoError(t, err)
	r := decodeEnvelope(t, resp)
	assert.Equal(t, result.CodeInternalError, r.Code)
	assert.Len(t, sink.entries, 1)
}

func TestDispatchUnhandledErrorNeverLeaksDetails(t *testing.T) {
	sink := &sinkRecorder{}
	log := &logRecorder{}
	app := newDispatcherApp(DispatcherOptions{Log: log, Sink: sink})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New("pq: connection reset by peer")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.NoError(t, err)
	r := decodeEnvelope(t, resp)

	assert.Equal(t, result.CodeInternalError, r.Code)
	assert.NotContains(t, r.Msg, "connection reset")

	// audited: both the log line and the sink carry the real cause
	require.Len(t, sink.entries, 1)
	assert.Contains(t, sink.entries[0].Msg, "connection reset")
	require.Len(t, log.errors, 1)
}

func TestDispatchFrameworkServerErrorIsInternal(t *testing.T) {
	d := NewDispatcher(DispatcherOptions{Log: &logRecorder{}})
	app := fiber.New(fiber.Config{ErrorHandler: d.ErrorHandler()})
	app.Get("/broken", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusBadGateway, "upstream hiccup")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/broken", nil))
	require.NoError(t, err)
	r := decodeEnvelope(t, resp)
	assert.Equal(t, result.CodeInternalError, r.Code)
	assert.NotContains(t, r.Msg, "hiccup")
}

func TestNoisyBusinessFaultsAreNotLogged(t *testing.T) {
	log := &logRecorder{}
	app := newDispatcherApp(DispatcherOptions{
		Log:           log,
		NoisyMessages: []string{"invalid refresh token"},
	})
	app.Get("/noisy", func(c *fiber.Ctx) error {
		return result.NewError("A1004", "invalid refresh token")
	})
	app.Get("/loud", func(c *fiber.Ctx) error {
		return result.NewError("A1004", "unexpected state")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/noisy", nil))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Empty(t, log.warns)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/loud", nil))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Len(t, log.warns, 1)
}
