// drift - per-project workspace orchestration for the niri compositor
// Copyright 2026 0xPD33
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/0xPD33/drift

// Package metrics holds the daemon's Prometheus instrumentation. The
// exporter is optional and binds to the configured listen address (loopback
// by default); nothing in drift depends on it being reachable.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/0xPD33/drift/internal/logging"
)

var (
	// EventsIngested counts events accepted by the state owner, by source
	// loop.
	EventsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "drift_events_ingested_total",
		Help: "Events accepted by the daemon state owner.",
	}, []string{"origin"})

	// SubscribersActive gauges currently connected subscribers.
	SubscribersActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "drift_subscribers_active",
		Help: "Currently connected subscribe-socket clients.",
	})

	// SubscribersDropped counts subscribers dropped for failed writes.
	SubscribersDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "drift_subscribers_dropped_total",
		Help: "Subscribers dropped after a failed or timed-out write.",
	})

	// NotificationsSent counts desktop notifications by urgency.
	NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "drift_notifications_sent_total",
		Help: "Desktop notifications dispatched, by urgency.",
	}, []string{"urgency"})

	// EventsDroppedFanout counts events lost because the fan-out channel
	// was full.
	EventsDroppedFanout = promauto.NewCounter(prometheus.CounterOpts{
		Name: "drift_events_dropped_fanout_total",
		Help: "Events dropped because the subscriber fan-out channel was full.",
	})

	// EventsInvalid counts unparseable lines on the emit socket.
	EventsInvalid = promauto.NewCounter(prometheus.CounterOpts{
		Name: "drift_events_invalid_total",
		Help: "Emit-socket lines dropped as invalid JSON.",
	})
)

// Serve starts the exporter on addr in a background goroutine. Failure to
// bind is logged and swallowed: metrics are an observability extra, never a
// reason for the daemon to stop.
func Serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Warn().Err(err).Str("addr", addr).Msg("metrics exporter stopped")
		}
	}()
	logging.Info().Str("addr", addr).Msg("metrics exporter listening")
}
