package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "github.com/nollidnosnhoj/ggpx"
)

// GetTracer returns the tracer for the posts service.
func GetTracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartBatchSpan starts a span around a post batch creation.
func StartBatchSpan(ctx context.Context, authorID string, size int) (context.Context, trace.Span) {
	return GetTracer().Start(ctx, "posts.create_batch",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("post.author_id", authorID),
			attribute.Int("post.batch_size", size),
		),
	)
}

// StartCatalogSpan starts a client span for a catalog request.
func StartCatalogSpan(ctx context.Context, resource string) (context.Context, trace.Span) {
	return GetTracer().Start(ctx, "catalog."+resource,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("catalog.resource", resource)),
	)
}

// StartSweepSpan starts a span for an orphaned upload sweep.
func StartSweepSpan(ctx context.Context) (context.Context, trace.Span) {
	return GetTracer().Start(ctx, "uploads.sweep", trace.WithSpanKind(trace.SpanKindInternal))
}

// RecordError records an error on a span.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// AddRetryEvent adds a retry event to a span.
func AddRetryEvent(span trace.Span, attempt int, reason string) {
	span.AddEvent("retry",
		trace.WithAttributes(
			attribute.Int("retry.attempt", attempt),
			attribute.String("retry.reason", reason),
		),
	)
}
