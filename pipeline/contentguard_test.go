package pipeline

import (
	"net/http"
	"testing"

	"github.com/Abraxas-365/bastion/pkg/result"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContentGuardApp(invoked *bool) *fiber.App {
	d := NewDispatcher(DispatcherOptions{Log: &logRecorder{}})
	app := fiber.New(fiber.Config{ErrorHandler: d.ErrorHandler()})
	New().
		Register(NewBodyCacheFilter(testExcludedPrefixes)).
		Register(NewContentGuardFilter()).
		Apply(app)
	app.Post("/users", func(c *fiber.Ctx) error {
		*invoked = true
		return JSON(c, result.Success(nil))
	})
	return app
}

func TestContentGuardRejectsScriptMarkup(t *testing.T) {
	var invoked bool
	app := newContentGuardApp(&invoked)

	resp, err := app.Test(postJSON("/users", `{"bio":"<SCRIPT>alert(1)</SCRIPT>"}`))
	require.NoError(t, err)

	r := decodeEnvelope(t, resp)
	assert.Equal(t, result.CodeValidation, r.Code)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.False(t, invoked)
}

func TestContentGuardAllowsCleanBodies(t *testing.T) {
	var invoked bool
	app := newContentGuardApp(&invoked)

	resp, err := app.Test(postJSON("/users", `{"bio":"plain text"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.True(t, invoked)
}

func TestContentGuardSkipsEmptyBodies(t *testing.T) {
	var invoked bool
	app := newContentGuardApp(&invoked)

	// zero bytes cached: nothing to inspect
	resp, err := app.Test(postJSON("/users", ""))
	require.NoError(t, err)
	resp.Body.Close()
	assert.True(t, invoked)
}
