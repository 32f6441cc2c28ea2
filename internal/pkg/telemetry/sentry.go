// Package telemetry wires Sentry error reporting into FilmPass.
//
// Usage in main.go:
//
//	if err := telemetry.InitSentry(cfg.Ops.SentryDSN, cfg.App.Env, cfg.App.Release); err != nil { ... }
//	defer telemetry.Flush()
package telemetry

import (
	"fmt"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2/log"
)

const serviceName = "filmpass"

// InitSentry initializes the Sentry SDK. An empty dsn disables reporting.
func InitSentry(dsn, environment, release string) error {
	if dsn == "" {
		log.Info("[Telemetry] SENTRY_DSN not set, Sentry disabled")
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		Release:          release,
		AttachStacktrace: true,
		Tags: map[string]string{
			"service": serviceName,
		},
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			return scrubSecrets(event)
		},
	})
	if err != nil {
		return fmt.Errorf("sentry.Init: %w", err)
	}
	return nil
}

// CaptureError sends an error to Sentry with optional context tags.
// Safe to call when Sentry is disabled.
func CaptureError(err error, tags map[string]string) {
	if err == nil {
		return
	}

	sentry.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		sentry.CaptureException(err)
	})
}

// CaptureMessage sends a warning-level message, used for webhook deliveries
// that need operator follow-up.
func CaptureMessage(message string, tags map[string]string) {
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(sentry.LevelWarning)
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		sentry.CaptureMessage(message)
	})
}

// Flush waits for buffered events to be sent
func Flush() {
	sentry.Flush(2 * time.Second)
}

// scrubSecrets drops credentials that may ride along on request data
func scrubSecrets(event *sentry.Event) *sentry.Event {
	if event == nil || event.Request == nil {
		return event
	}
	for key := range event.Request.Headers {
		switch strings.ToLower(key) {
		case "authorization", "cookie", "x-square-hmacsha256-signature":
			event.Request.Headers[key] = "[Filtered]"
		}
	}
	event.Request.Cookies = ""
	return event
}
