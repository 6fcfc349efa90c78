// Package tracing is a thin wrapper around OpenTelemetry so that the rest of
// the code base can start and end spans without depending on the upstream API
// directly. Spans cover the approval critical path (publish, decide) and the
// downstream execution worker.
package tracing
