package http

import (
	"context"
	"net"
	nethttp "net/http"
	"time"

	"Lantern/internal/serve"
	"Lantern/internal/shared/transport/http/middleware"
	"Lantern/modules/kit/logx"

	"github.com/gin-gonic/gin"
)

type Options struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	IdleTimeout       time.Duration
}

// Server 是 gin 之上的 HTTP 入口：公共中间件 + /healthz，其余路径交给 Mount 进来的 serve.Handler。
type Server struct {
	engine *gin.Engine
	srv    *nethttp.Server
	log    logx.Logger
}

func NewHttpServer(opts Options, logger logx.Logger) *Server {
	logger = logx.OrNop(logger)

	engine := gin.New()
	// AccessLog 在外层，Recovery 转成的 500 也能记进访问日志。
	engine.Use(middleware.AccessLog(logger), middleware.Recovery(logger))
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(nethttp.StatusOK, gin.H{"status": "ok"})
	})

	if opts.ReadHeaderTimeout <= 0 {
		opts.ReadHeaderTimeout = 5 * time.Second
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = 60 * time.Second
	}

	return &Server{
		engine: engine,
		log:    logger,
		srv: &nethttp.Server{
			Addr:              opts.Addr,
			Handler:           engine,
			ReadHeaderTimeout: opts.ReadHeaderTimeout,
			IdleTimeout:       opts.IdleTimeout,
			// 静态文件按流写出，不设置整体 Read/WriteTimeout。
		},
	}
}

// Mount 把 h 挂为所有未被 gin 路由命中的请求的处理者。
func (s *Server) Mount(h serve.Handler) {
	s.engine.NoRoute(gin.WrapH(serve.HTTPHandler(h, s.log)))
}

// Handle 在 gin 上直接注册一个原生 http.Handler（WebSocket 等不走 serve.Handler 的路由）。
func (s *Server) Handle(method, path string, h nethttp.Handler) {
	s.engine.Handle(method, path, gin.WrapH(h))
}

// Start 启动 HTTP 服务（阻塞）。关闭时会返回 net/http.ErrServerClosed。
func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

// Serve 在已有 listener 上提供服务（阻塞）。
func (s *Server) Serve(ln net.Listener) error {
	return s.srv.Serve(ln)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) Addr() string {
	return s.srv.Addr
}

func (s *Server) Handler() nethttp.Handler {
	return s.engine
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}
