// Package instrumentation provides OpenTelemetry metrics and tracing for the
// client library: REST request counters and latencies, state store operation
// metrics and size gauges, nickname cache metrics, and slow mode throttling
// counters. Instrumentation is no-op unless the host application wires real
// meter and tracer providers, so the library adds zero overhead by default.
package instrumentation
