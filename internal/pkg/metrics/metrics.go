// Package metrics holds the Prometheus collectors for FilmPass business
// events. Handler exposes them together with the Go runtime collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Checkouts counts checkout attempts by result (created, already_owned, error).
var Checkouts = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "filmpass_checkouts_total",
	Help: "Checkout attempts by result.",
}, []string{"result"})

// WebhookOutcomes counts Square webhook deliveries by outcome.
var WebhookOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "filmpass_webhook_events_total",
	Help: "Square webhook deliveries by outcome.",
}, []string{"outcome"})

// EntitlementGrants counts successful entitlement upserts.
var EntitlementGrants = promauto.NewCounter(prometheus.CounterOpts{
	Name: "filmpass_entitlement_grants_total",
	Help: "Entitlement grants applied, redeliveries included.",
})

// PlaybackMints counts minted playback credential sets.
var PlaybackMints = promauto.NewCounter(prometheus.CounterOpts{
	Name: "filmpass_playback_mints_total",
	Help: "Playback credential sets issued.",
})

// DownloadMints counts minted download links by quality tier.
var DownloadMints = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "filmpass_download_mints_total",
	Help: "Download links issued by quality tier.",
}, []string{"quality"})

// Handler returns the Prometheus scrape handler for the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
