// Package metric provides Prometheus metrics for the asset gateway.
//
//   - prometheus.go: registry, gateway metrics and the /metrics handler
//   - collector.go: collector reporting idle pooled sessions
//
// Metrics are registered on a private registry (not the global default)
// and exposed at /metrics in Prometheus text format.
package metric
