package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eduhere", Name: "requests_total", Help: "Logical API requests by outcome",
	}, []string{"method", "outcome"})
	RequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "eduhere", Name: "request_duration_seconds", Help: "Logical API request latency, retries included",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})
	Refreshes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eduhere", Name: "token_refreshes_total", Help: "Access token refresh attempts",
	}, []string{"result"})
	Retries = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "eduhere", Name: "request_retries_total", Help: "Requests re-issued after a refresh",
	})
	WSState = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "eduhere", Name: "ws_state", Help: "Attendance socket: 0 disconnected, 1 connecting, 2 connected",
	})
	WSReconnects = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "eduhere", Name: "ws_reconnects_total", Help: "Attendance socket reconnect attempts",
	})
	WSEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eduhere", Name: "ws_events_total", Help: "Attendance updates received by normalized status",
	}, []string{"status"})
	DroppedEvents = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "eduhere", Name: "ws_dropped_events_total", Help: "Updates dropped for slow listeners",
	})
	StorePing = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "eduhere", Name: "token_store_ping_seconds", Help: "Token store health check latency",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(Requests, RequestDuration, Refreshes, Retries,
		WSState, WSReconnects, WSEvents, DroppedEvents, StorePing)
}

func Handler() http.Handler { return promhttp.Handler() }

func ObserveRequest(method, outcome string, d time.Duration) {
	Requests.WithLabelValues(method, outcome).Inc()
	RequestDuration.WithLabelValues(method).Observe(d.Seconds())
}

func ObserveStorePing(d time.Duration) { StorePing.Observe(d.Seconds()) }
