package middleware

import (
	"Lantern/internal/shared/transport"
	"Lantern/modules/kit/logx"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AccessLog 为每个请求建立 AccessLog 上下文（trace id、起始时间、action），请求结束时按状态码分级落日志。
// 写日志放在 defer 里，连接被中止（panic http.ErrAbortHandler）时也会记录。
func AccessLog(log logx.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		action := c.Request.Method + " " + route

		ctx := transport.NewContext(c.Request.Context(), action, "http")
		c.Request = c.Request.WithContext(ctx)

		defer func() {
			if al := transport.FromContext(ctx); al != nil && al.Status == 0 {
				transport.SetStatus(ctx, c.Writer.Status())
			}
			transport.WriteAccessLog(ctx, log,
				zap.Int("bytes", max(0, c.Writer.Size())),
				zap.String("client_ip", c.ClientIP()))
		}()

		c.Next()
	}
}
