package transport

import (
	"context"
	"time"

	"Lantern/modules/kit/logx"
	"Lantern/modules/kit/tracex"

	"go.uber.org/zap"
)

// AccessLog 是请求级日志上下文，HTTP 与 WS 共用。
type AccessLog struct {
	Status      int
	ErrorReason string
	startTime   time.Time
	action      string
}

type accessLogKey struct{}

// NewContext 创建带 AccessLog 的新 context（保留父 context 的取消信号）。
// 父 context 已有 trace id 时沿用，否则生成新的。
func NewContext(parent context.Context, action, span string) context.Context {
	ctx := parent
	if ctx == nil {
		ctx = context.Background()
	}
	if action == "" {
		action = "unknown"
	}
	if _, ok := tracex.TraceIDFrom(ctx); !ok {
		if traceID := tracex.NewTraceID(); traceID != "" {
			ctx = tracex.WithTraceID(ctx, traceID)
		}
	}
	if span != "" {
		ctx = tracex.WithSpanID(ctx, span)
	}

	al := &AccessLog{
		startTime: time.Now(),
		action:    action,
	}
	return context.WithValue(ctx, accessLogKey{}, al)
}

// FromContext 从 context 读取 AccessLog。
func FromContext(ctx context.Context) *AccessLog {
	if ctx == nil {
		return nil
	}
	al, _ := ctx.Value(accessLogKey{}).(*AccessLog)
	return al
}

// SetStatus 记录最终 HTTP 状态码。
func SetStatus(ctx context.Context, status int) {
	if al := FromContext(ctx); al != nil {
		al.Status = status
	}
}

// SetErrorReason 设置 access 日志错误原因（失败场景）。
func SetErrorReason(ctx context.Context, reason string) {
	if reason == "" {
		return
	}
	if al := FromContext(ctx); al != nil {
		al.ErrorReason = reason
	}
}

// WriteAccessLog 输出访问日志（在中间件 defer 调用）。
func WriteAccessLog(ctx context.Context, log logx.Logger, fields ...zap.Field) {
	al := FromContext(ctx)
	if al == nil || log == nil {
		return
	}

	base := []zap.Field{
		zap.Duration("latency", time.Since(al.startTime)),
	}
	if al.ErrorReason != "" {
		base = append(base, zap.String("error_reason", al.ErrorReason))
	}
	base = append(base, fields...)
	logx.ReportAccess(ctx, log, al.action, al.Status, base...)
}
