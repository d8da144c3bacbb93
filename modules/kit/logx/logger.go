package logx

import (
	"context"

	"go.uber.org/zap"
)

// Logger 是各组件共用的最小日志接口。
//
// 约束：
// - 只承载结构化字段 + ctx 透传（trace/span）
// - 组件通过构造参数拿到 Logger，不直接依赖全局 logger
type Logger interface {
	Info(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
	Debug(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	With(fields ...zap.Field) Logger
	WithContext(ctx context.Context) Logger
}

// OrNop 在 l 为 nil 时返回丢弃一切输出的 Logger。
func OrNop(l Logger) Logger {
	if l == nil {
		return NewZapLogger(nil)
	}
	return l
}
