// Package observability provides Prometheus metrics and OpenTelemetry
// tracing for the sandbox and its HTTP surface.
//
// Nothing here touches global state: the metrics live on a private
// registry and the tracer provider is injected rather than installed
// globally. Both are optional; a nil collector or tracer setup turns the
// corresponding instrumentation off.
package observability
