// Package metrics owns the Prometheus collectors exported on /metrics:
// HTTP request counts and latency, rate-limit rejections, and the
// notification dispatch outcomes that show how often recipients were
// reached in real time.
package metrics
