package logx

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// BizLog 是业务拒绝日志（参数错误、非法登录名等）的强类型输入。
type BizLog struct {
	Action  string
	Message string
}

// SysLog 是技术错误日志的强类型输入。
type SysLog struct {
	Action string
	Err    error
}

func NewBizLog(action, message string) BizLog {
	return BizLog{Action: action, Message: message}
}

func NewSysLog(action string, err error) SysLog {
	return SysLog{Action: action, Err: err}
}

// ReportAccess 按 HTTP 状态码分级记录访问日志：
// - status < 400: INFO
// - 400~499: WARN
// - >= 500: ERROR
func ReportAccess(ctx context.Context, l Logger, action string, status int, fields ...zap.Field) {
	if l == nil {
		return
	}
	base := []zap.Field{
		zap.String("log_type", "access"),
		zap.String("action", action),
		zap.Int("status", status),
	}
	base = append(base, fields...)
	withCtx := l.WithContext(ctx)
	switch {
	case status < 400:
		withCtx.Info("access", base...)
	case status >= 500:
		withCtx.Error("access", base...)
	default:
		withCtx.Warn("access", base...)
	}
}

// ReportBiz 记录业务拒绝日志：INFO、err_type=biz、不带堆栈。
func ReportBiz(ctx context.Context, l Logger, biz BizLog, fields ...zap.Field) {
	if l == nil {
		return
	}
	action := biz.Action
	if action == "" {
		action = "biz_reject"
	}
	base := []zap.Field{
		zap.String("err_type", "biz"),
		zap.String("action", action),
	}
	msg := action
	if biz.Message != "" {
		base = append(base, zap.String("biz_message", biz.Message))
		msg = fmt.Sprintf("%s, msg:%s", action, biz.Message)
	}
	base = append(base, fields...)
	l.WithContext(ctx).Info(msg, base...)
}

// ReportSysError 记录技术错误日志：ERROR、err_type=sys，附带错误码、cause 链与发生处栈。
func ReportSysError(ctx context.Context, l Logger, sys SysLog, fields ...zap.Field) {
	if sys.Err == nil || l == nil {
		return
	}
	action := sys.Action
	if action == "" {
		action = "sys_error"
	}

	meta := BuildErrorLog(sys.Err)
	base := []zap.Field{
		zap.String("err_type", "sys"),
		zap.String("action", action),
	}
	if meta.Code != "" {
		base = append(base, zap.String("error_code", meta.Code))
	}
	if len(meta.CauseChain) != 0 {
		base = append(base, zap.Strings("cause_chain", meta.CauseChain))
	}
	if len(meta.Data) != 0 {
		base = append(base, zap.Any("error_data", meta.Data))
	}
	if meta.Origin != "" {
		base = append(base, zap.String("origin_caller", meta.Origin))
	}
	if meta.Stack != "" {
		base = append(base, zap.String("stack_origin", meta.Stack))
	}
	base = append(base, fields...)

	finalMsg := fmt.Sprintf("%s, error:%s", action, meta.Error)
	if meta.Msg != "" {
		finalMsg = fmt.Sprintf("%s, error:%s, msg:%s", action, meta.Error, meta.Msg)
	}
	l.WithContext(ctx).Error(finalMsg, base...)
}
