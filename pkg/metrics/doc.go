/*
Package metrics provides Prometheus metrics for the dataset manager.

It registers gauges and counters covering dataset registration count, rebuild
throughput and latency, apply failures, inbox depth, and backpressure — then
exposes them via the standard promhttp handler.

	http.Handle("/metrics", metrics.Handler())

Timer is a small stopwatch helper for feeding a histogram from an operation's
elapsed time:

	timer := metrics.NewTimer()
	// ... do the rebuild ...
	timer.ObserveDurationVec(metrics.RebuildDuration, id.TableName())
*/
package metrics
