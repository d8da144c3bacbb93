package tracex

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

type traceIDKey struct{}
type spanIDKey struct{}

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, traceID)
}

func TraceIDFrom(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(traceIDKey{}).(string)
	return s, ok && s != ""
}

func WithSpanID(ctx context.Context, spanID string) context.Context {
	return context.WithValue(ctx, spanIDKey{}, spanID)
}

func SpanIDFrom(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(spanIDKey{}).(string)
	return s, ok && s != ""
}

// NewTraceID 生成 32 位 hex 的 trace_id（随机 UUIDv4 去掉连字符）。
func NewTraceID() string {
	id, err := uuid.NewRandom()
	if err != nil {
		return ""
	}
	return strings.ReplaceAll(id.String(), "-", "")
}
