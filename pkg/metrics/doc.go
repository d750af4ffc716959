/*
Package metrics exposes the inquisitor's Prometheus metrics (watchdog
tickles, quorum size, servants reporting, servant loop latency) and the
HTTP health/readiness/liveness handlers served by the `watch` command when
--metrics-addr is set.

Readiness ties to the fencing setup: this process is "ready" only once
the watchdog is armed (or watchdog use is disabled by policy) and quorum
bookkeeping has been initialized, not merely once the binary is running.
*/
package metrics
