// Package server exposes a render engine over HTTP for previewing templates.
//
// Routes:
//
//	GET    /healthz            liveness probe
//	GET    /render/<name>      render <name> with query parameters as the model
//	POST   /render/<name>      render <name> with a JSON object body as the model
//	GET    /cache              compiled template names and cache counters
//	DELETE /cache              purge every compiled template
//	DELETE /cache/<name>       invalidate one compiled template
//	GET    /debug/metrics      metric snapshot, when telemetry is enabled
//
// Every request gets an id (X-Request-ID, generated when absent) that is
// echoed back and attached to log entries.
package server
