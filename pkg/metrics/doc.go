/*
Package metrics defines and registers the engine's Prometheus metrics:
transaction throughput by type/outcome and latency by type, idempotency cache
occupancy and hit rate, per-instance stateVersion, snapshot flush
duration, and migration warning counts. Handler exposes them on
/metrics for scraping; Collector samples the instance registry on a
ticker to keep the per-instance gauges current.
*/
package metrics
