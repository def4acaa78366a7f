// Package metrics records request pipeline and session telemetry with Prometheus.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	talent "github.com/goliatone/go-talent-session"
	"github.com/goliatone/go-talent-session/apiclient"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the client metrics
type Collector struct {
	requests      *prometheus.CounterVec
	latency       prometheus.Histogram
	forcedLogouts prometheus.Counter
	sessions      *prometheus.CounterVec
}

// NewCollector creates the collectors and registers them with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "talent_api_requests_total",
			Help: "API requests by method and response status",
		}, []string{"method", "status"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "talent_api_request_duration_seconds",
			Help:    "API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		forcedLogouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "talent_forced_logouts_total",
			Help: "Sessions torn down after a rejected or expired credential",
		}),
		sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "talent_session_events_total",
			Help: "Session activity events by type",
		}, []string{"event"}),
	}

	reg.MustRegister(
		c.requests,
		c.latency,
		c.forcedLogouts,
		c.sessions,
	)

	return c
}

// RecordRequest records one API call. Status 0 means a transport error.
func (c *Collector) RecordRequest(method string, status int, d time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	c.requests.WithLabelValues(method, label).Inc()
	c.latency.Observe(d.Seconds())
}

// RecordForcedLogout increments the forced logout counter
func (c *Collector) RecordForcedLogout() {
	c.forcedLogouts.Inc()
}

// Middleware measures every call that passes through the pipeline.
func (c *Collector) Middleware() apiclient.Middleware {
	return func(next apiclient.Handler) apiclient.Handler {
		return func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next(req)
			status := 0
			if err == nil && resp != nil {
				status = resp.StatusCode
			}
			c.RecordRequest(req.Method, status, time.Since(start))
			return resp, err
		}
	}
}

// ActivitySink counts session activity events and forced logouts.
func (c *Collector) ActivitySink() talent.ActivitySink {
	return talent.ActivitySinkFunc(func(_ context.Context, event talent.ActivityEvent) error {
		c.sessions.WithLabelValues(string(event.EventType)).Inc()
		if event.EventType == talent.ActivityEventForcedLogout {
			c.RecordForcedLogout()
		}
		return nil
	})
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
