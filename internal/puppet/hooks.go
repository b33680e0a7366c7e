package puppet

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/wechaty/wechaty-puppet-sidecar/internal/common/logger"
)

// Hook observes every puppet operation. Before may derive the context the
// operation runs with; After receives that context and the outcome.
type Hook interface {
	Before(ctx context.Context, op string, args []interface{}) context.Context
	After(ctx context.Context, op string, err error)
}

type startedAtKey struct{}

// LogHook logs every operation at debug level, and failures above it.
type LogHook struct {
	logger *logger.Logger
}

// NewLogHook creates a logging hook.
func NewLogHook(log *logger.Logger) *LogHook {
	return &LogHook{logger: log.WithFields(zap.String("component", "puppet-ops"))}
}

func (h *LogHook) Before(ctx context.Context, op string, args []interface{}) context.Context {
	h.logger.WithContext(ctx).Debug("puppet operation",
		zap.String("operation", op),
		zap.Any("args", args))
	return context.WithValue(ctx, startedAtKey{}, time.Now())
}

func (h *LogHook) After(ctx context.Context, op string, err error) {
	fields := []zap.Field{zap.String("operation", op)}
	if started, ok := ctx.Value(startedAtKey{}).(time.Time); ok {
		fields = append(fields, zap.Duration("duration", time.Since(started)))
	}
	log := h.logger.WithContext(ctx)

	switch {
	case err == nil:
		log.Debug("puppet operation done", fields...)
	case IsUnsupported(err):
		log.Debug("puppet operation not supported by sidecar", fields...)
	default:
		log.Warn("puppet operation failed", append(fields, zap.Error(err))...)
	}
}

// TraceHook records a span per operation.
type TraceHook struct {
	tracer trace.Tracer
}

// NewTraceHook creates a tracing hook.
func NewTraceHook(tracer trace.Tracer) *TraceHook {
	return &TraceHook{tracer: tracer}
}

func (h *TraceHook) Before(ctx context.Context, op string, args []interface{}) context.Context {
	ctx, _ = h.tracer.Start(ctx, "puppet."+op,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("puppet.operation", op),
			attribute.Int("puppet.args", len(args)),
		))
	return ctx
}

func (h *TraceHook) After(ctx context.Context, op string, err error) {
	span := trace.SpanFromContext(ctx)
	switch {
	case err == nil:
	case IsUnsupported(err):
		span.SetAttributes(attribute.Bool("puppet.unsupported", true))
		span.SetStatus(codes.Error, err.Error())
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
