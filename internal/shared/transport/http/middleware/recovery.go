package middleware

import (
	"errors"
	"net/http"

	"Lantern/internal/shared/transport"
	"Lantern/modules/kit/errx"
	"Lantern/modules/kit/logx"

	"github.com/gin-gonic/gin"
)

// Recovery 把普通 panic 转成 500 并记录系统错误日志。
// http.ErrAbortHandler 原样继续 panic，交给 net/http 直接断开连接。
func Recovery(log logx.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			ctx := c.Request.Context()
			if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				transport.SetStatus(ctx, http.StatusInternalServerError)
				transport.SetErrorReason(ctx, "connection aborted")
				panic(rec)
			}

			logx.ReportSysError(ctx, log, logx.NewSysLog("http recovery", errx.ErrInternal.Wrapf("panic: %v", rec)))
			transport.SetErrorReason(ctx, "panic")
			if !c.Writer.Written() {
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			c.Abort()
		}()
		c.Next()
	}
}
