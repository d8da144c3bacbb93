// Package ws 提供 /ws/ping：每收到一条文本帧回复一条 "pong"，收到 close 或读错误即结束连接。
package ws

import (
	"net/http"

	"Lantern/internal/shared/transport"
	"Lantern/modules/kit/logx"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	PingPath  = "/ws/ping"
	PongReply = "pong"
)

type PingServer struct {
	upgrader websocket.Upgrader
	log      logx.Logger
}

func NewPingServer(l logx.Logger) *PingServer {
	return &PingServer{
		upgrader: websocket.Upgrader{
			// 允许所有跨域请求
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		log: logx.OrNop(l),
	}
}

// ServeHTTP 升级连接并阻塞到连接结束。
func (s *PingServer) ServeHTTP(resp http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	wsConn, err := s.upgrader.Upgrade(resp, req, nil)
	if err != nil {
		// Upgrade 失败时已经写回了 4xx。
		transport.SetErrorReason(ctx, err.Error())
		s.log.WithContext(ctx).Warn("websocket upgrade error", zap.Error(err))
		return
	}
	transport.SetStatus(ctx, http.StatusSwitchingProtocols)

	c := newConn(wsConn, s.log.WithContext(ctx).With(zap.String("remote", wsConn.RemoteAddr().String())))
	c.log.Debug("websocket upgrade success")
	c.run()
}
