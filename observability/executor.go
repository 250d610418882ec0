package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/isdmx/coderunner/sandbox"
)

// unknownLanguage labels executions whose language never resolved, keeping
// caller-supplied strings out of metric labels.
const unknownLanguage = "unknown"

// InstrumentedExecutor wraps a sandbox.SandboxExecutor with metrics and tracing.
type InstrumentedExecutor struct {
	inner   sandbox.SandboxExecutor
	metrics *MetricsCollector
	tracer  trace.Tracer
}

// NewInstrumentedExecutor wraps inner. Either metrics or ts may be nil.
func NewInstrumentedExecutor(inner sandbox.SandboxExecutor, metrics *MetricsCollector, ts *TracerSetup) *InstrumentedExecutor {
	var tracer trace.Tracer
	if ts != nil {
		tracer = ts.Tracer()
	}
	return &InstrumentedExecutor{
		inner:   inner,
		metrics: metrics,
		tracer:  tracer,
	}
}

func (e *InstrumentedExecutor) Execute(ctx context.Context, req sandbox.Request) sandbox.Outcome {
	var span trace.Span
	if e.tracer != nil {
		ctx, span = e.tracer.Start(ctx, "sandbox.execute",
			trace.WithAttributes(attribute.String("sandbox.requested_language", req.Language)))
		defer span.End()
	}

	if e.metrics != nil {
		e.metrics.ActiveExecutions.Inc()
		defer e.metrics.ActiveExecutions.Dec()
	}

	outcome := e.inner.Execute(ctx, req)

	lang := outcome.Language
	if lang == "" {
		lang = unknownLanguage
	}

	if span != nil {
		span.SetAttributes(
			attribute.String("sandbox.language", lang),
			attribute.String("sandbox.status", outcome.Status.String()),
			attribute.String("sandbox.classification", outcome.Classification.Kind.String()),
			attribute.Int("sandbox.exit_code", outcome.Result().ExitCode),
		)
		if outcome.Status == sandbox.StatusInternalError {
			if outcome.Err != nil {
				span.RecordError(outcome.Err)
			}
			span.SetStatus(codes.Error, sandbox.InternalErrorMessage)
		}
	}

	if e.metrics != nil {
		e.metrics.ExecutionsTotal.WithLabelValues(lang, outcome.Status.String()).Inc()
		e.metrics.ExecutionDuration.WithLabelValues(lang).Observe(outcome.Duration.Seconds())
	}

	return outcome
}

// Toolchains forwards to the wrapped executor when it can report toolchains.
func (e *InstrumentedExecutor) Toolchains() []sandbox.ToolchainStatus {
	if r, ok := e.inner.(sandbox.ToolchainReporter); ok {
		return r.Toolchains()
	}
	return nil
}
