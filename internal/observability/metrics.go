package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	eventsAppended = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "timetracker",
		Subsystem: "events",
		Name:      "appended_total",
		Help:      "Number of lifecycle events appended to the event store, by action.",
	}, []string{"action"})

	storeErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "timetracker",
		Subsystem: "store",
		Name:      "errors_total",
		Help:      "Number of failed event store operations, by operation.",
	}, []string{"operation"})

	logins = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "timetracker",
		Subsystem: "auth",
		Name:      "logins_total",
		Help:      "Login attempts grouped by outcome.",
	}, []string{"outcome"})

	lastEventGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "timetracker",
		Subsystem: "events",
		Name:      "last_appended_timestamp_seconds",
		Help:      "Unix timestamp of the most recent appended event.",
	})

	purges = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "timetracker",
		Subsystem: "store",
		Name:      "purges_total",
		Help:      "Admin resets, by scope (item or all).",
	}, []string{"scope"})
)

func init() {
	prometheus.MustRegister(eventsAppended, storeErrors, logins, lastEventGauge, purges)
}

// RecordAppend counts a stored event and moves the watermark gauge.
func RecordAppend(action string, ts time.Time) {
	eventsAppended.WithLabelValues(action).Inc()
	if ts.IsZero() {
		return
	}
	lastEventGauge.Set(float64(ts.Unix()))
}

// RecordStoreError counts a failed store operation.
func RecordStoreError(operation string) {
	storeErrors.WithLabelValues(operation).Inc()
}

// RecordLogin counts a login attempt.
func RecordLogin(success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	logins.WithLabelValues(outcome).Inc()
}

// RecordPurge counts an admin reset.
func RecordPurge(scope string) {
	purges.WithLabelValues(scope).Inc()
}
