package httpmw

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/wechaty/wechaty-puppet-sidecar/internal/common/logger"
	"github.com/wechaty/wechaty-puppet-sidecar/internal/tracing"
)

// OtelTracing opens a server span per control request. Puppet operation spans
// started by the handler become its children. It is a no-op while tracing is
// not initialized.
func OtelTracing(tracerName, puppetName string) gin.HandlerFunc {
	tracer := tracing.Tracer(tracerName)

	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), c.Request.Method+" "+route(c),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("puppet.name", puppetName)))
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(
			semconv.HTTPRequestMethodKey.String(c.Request.Method),
			semconv.HTTPRouteKey.String(route(c)),
			semconv.HTTPResponseStatusCodeKey.Int(status),
		)
		if id, _ := c.Request.Context().Value(logger.OperationIDKey).(string); id != "" {
			span.SetAttributes(attribute.String("puppet.operation_id", id))
		}
		if len(c.Errors) > 0 {
			span.RecordError(c.Errors.Last())
		}
		if status >= 500 {
			span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", status))
		}
	}
}
