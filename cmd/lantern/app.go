package main

import (
	"fmt"
	"io"

	"Lantern/internal/api"
	"Lantern/internal/live"
	"Lantern/internal/serve"
	"Lantern/internal/serve/router"
	"Lantern/internal/serve/static"
	"Lantern/internal/shared/config"
	"Lantern/modules/kit/logx"
)

// app 是组装好的请求处理树：/api 下是业务接口，其余路径落到静态文件服务。
type app struct {
	root *router.Router
	api  *api.Module
}

func buildApp(cfg config.Config, checker live.Checker, log logx.Logger) (*app, error) {
	staticServer, err := static.New(static.Config{
		Root:         cfg.Static.Root,
		FallbackFile: cfg.Static.FallbackFile,
	}, log)
	if err != nil {
		return nil, err
	}

	apiModule, err := api.New(api.Config{
		DefaultLogin: cfg.Live.Login,
		MaxAge:       cfg.Cache.MaxAge,
		TwitchTTL:    cfg.Cache.TTL,
	}, checker, log)
	if err != nil {
		return nil, err
	}

	root := router.New(log)
	if err := root.Register("api", apiModule.Router()); err != nil {
		return nil, err
	}
	if err := root.Register("", staticServer); err != nil {
		return nil, err
	}
	return &app{root: root, api: apiModule}, nil
}

func newLiveClient(cfg config.LiveConfig, log logx.Logger) *live.Client {
	return live.NewClient(live.Config{
		Endpoint: cfg.Endpoint,
		ClientID: cfg.ClientID,
		Timeout:  cfg.Timeout,
	}, log)
}

// printRoutes 输出完整路由表，一行一条：路由 + Handler 类型。
func printRoutes(w io.Writer, r *router.Router) error {
	var err error
	r.Walk(func(route router.Route, h serve.Handler) {
		if err != nil {
			return
		}
		_, err = fmt.Fprintf(w, "%-20s %T\n", route, h)
	})
	return err
}
