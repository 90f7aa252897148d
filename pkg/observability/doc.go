// Package observability records render spans and metrics with OpenTelemetry.
//
// The render engine depends on the SpanManager and MetricsRecorder interfaces
// only; Noop implementations keep the default engine free of telemetry
// overhead. Providers wires an SDK tracer and a manual-read meter for the CLI
// preview server.
package observability
