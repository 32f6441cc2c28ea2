package telemetry

import (
	"errors"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitSentry_EmptyDSNDisables(t *testing.T) {
	require.NoError(t, InitSentry("", "test", "dev"))
	// capturing without a client must be a no-op
	CaptureError(errors.New("boom"), map[string]string{"operation": "test"})
	CaptureError(nil, nil)
	CaptureMessage("unresolved webhook", nil)
}

func TestScrubSecrets(t *testing.T) {
	event := &sentry.Event{
		Request: &sentry.Request{
			Headers: map[string]string{
				"Authorization":                 "Bearer secret",
				"X-Square-Hmacsha256-Signature": "sig",
				"Content-Type":                  "application/json",
			},
			Cookies: "session=abc",
		},
	}

	out := scrubSecrets(event)
	assert.Equal(t, "[Filtered]", out.Request.Headers["Authorization"])
	assert.Equal(t, "[Filtered]", out.Request.Headers["X-Square-Hmacsha256-Signature"])
	assert.Equal(t, "application/json", out.Request.Headers["Content-Type"])
	assert.Empty(t, out.Request.Cookies)

	assert.Nil(t, scrubSecrets(nil))
}
