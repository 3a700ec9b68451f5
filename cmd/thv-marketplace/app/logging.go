package app

import (
	"context"
	"io"
	"log/slog"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogHandler returns a slog handler backed by zap. Records are JSON
// encoded unless development is set, in which case the console encoder is
// used. Every record logged within a span carries its trace_id and span_id.
func NewLogHandler(w io.Writer, level slog.Level, development bool) slog.Handler {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderConfig)
	if development {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(w)), zapLevel(level))
	logger := zapr.NewLoggerWithOptions(zap.New(core), zapr.LogInfoLevel(""))

	return &traceHandler{Handler: logr.ToSlogHandler(logger), level: level}
}

// zapLevel translates a slog level into the zap level that lets it through.
// Debug records reach zap at level -4.
func zapLevel(level slog.Level) zapcore.Level {
	if level < slog.LevelInfo {
		return zapcore.Level(level)
	}
	return zapcore.InfoLevel
}

// traceHandler wraps an slog.Handler to automatically inject OpenTelemetry
// trace_id and span_id into every log record, enabling log-trace correlation.
// It also enforces the minimum level: logr asks zap whether warnings are
// enabled at info verbosity, so zap alone cannot filter them.
type traceHandler struct {
	slog.Handler
	level slog.Level
}

func (h *traceHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return l >= h.level && h.Handler.Enabled(ctx, l)
}

func (h *traceHandler) Handle(ctx context.Context, r slog.Record) error {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		r.AddAttrs(
			slog.String("trace_id", span.SpanContext().TraceID().String()),
			slog.String("span_id", span.SpanContext().SpanID().String()),
		)
	}
	return h.Handler.Handle(ctx, r)
}

func (h *traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithAttrs(attrs), level: h.level}
}

func (h *traceHandler) WithGroup(name string) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithGroup(name), level: h.level}
}
