/*
Package observability turns pool and session lifecycle hooks into Prometheus
metrics and structured log lines.

	metrics, _ := observability.NewMetrics(prometheus.NewRegistry())
	hooks := metrics.Hooks().Merge(observability.LoggingHooks(logger))
*/
package observability
