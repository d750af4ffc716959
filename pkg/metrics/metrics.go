package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// WatchdogTicklesTotal counts every successful tickle the inquisitor
	// has issued since it armed the device.
	WatchdogTicklesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sbd_watchdog_tickles_total",
			Help: "Total number of watchdog tickles issued",
		},
	)

	// WatchdogArmed is 1 once the hardware watchdog has been opened and
	// programmed, 0 otherwise.
	WatchdogArmed = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sbd_watchdog_armed",
			Help: "Whether the hardware watchdog is currently armed (1) or not (0)",
		},
	)

	// QuorumSize is the majority-of-configured-disks threshold this
	// inquisitor requires before it will tickle the watchdog.
	QuorumSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sbd_quorum_size",
			Help: "Number of disks that must report liveness to satisfy quorum",
		},
	)

	// ServantsReporting is how many configured disks reported liveness
	// within the current loop window.
	ServantsReporting = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sbd_servants_reporting",
			Help: "Number of servants that reported liveness in the most recent loop window",
		},
	)

	// ServantLoopLatency tracks, per disk, how long one servant loop
	// iteration took — the same quantity compared against
	// timeout_watchdog_warn to decide whether to log a latency warning.
	ServantLoopLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sbd_servant_loop_latency_seconds",
			Help:    "Duration of one servant mailbox-read loop iteration, by device",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"device"},
	)

	// ServantExitsTotal counts servant process exits, labeled by device
	// and reason (exit, killed, crashed).
	ServantExitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sbd_servant_exits_total",
			Help: "Total number of servant process exits, by device and reason",
		},
		[]string{"device", "reason"},
	)

	// DeliveriesTotal counts ping/message deliveries, by disk and outcome.
	DeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sbd_deliveries_total",
			Help: "Total number of message/ping deliveries, by device and outcome",
		},
		[]string{"device", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		WatchdogTicklesTotal,
		WatchdogArmed,
		QuorumSize,
		ServantsReporting,
		ServantLoopLatency,
		ServantExitsTotal,
		DeliveriesTotal,
	)
}

// Handler returns the Prometheus HTTP handler for the `watch` command's
// --metrics-addr endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
