// Package telemetry wraps OpenTelemetry SDK initialization, giving the
// gateway a single TracerProvider constructed once at startup and handed
// down by constructor injection. When tracing is disabled (§6.7,
// TelemetryConfig.Enabled = false) it falls back to the otel no-op
// implementation rather than skipping instrumentation calls.
package telemetry
