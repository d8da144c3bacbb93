// Package router 实现按路径前缀分发的 Router：最长前缀匹配，命中后剥掉前缀再交给子 Handler。
//
// 路由表在启动组装阶段一次性填充，第一次分发后封存；分发过程只读、无锁。
package router

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync/atomic"

	"Lantern/internal/serve"
	"Lantern/modules/kit/errx"
	"Lantern/modules/kit/logx"

	"go.uber.org/zap"
)

type entry struct {
	route   Route
	handler serve.Handler
}

type Router struct {
	routes map[string]entry
	sealed atomic.Bool
	log    logx.Logger
}

func New(l logx.Logger) *Router {
	return &Router{
		routes: make(map[string]entry),
		log:    logx.OrNop(l),
	}
}

// Register 把 h 挂到 "/" 分隔的 route 上，见 RegisterRoute。
func (r *Router) Register(route string, h serve.Handler) error {
	return r.RegisterRoute(ParseRoute(route), h)
}

// RegisterRoute 把 h 挂到 route 上。h 可以是另一个 Router 或静态文件服务，形成层级挂载点。
//
// 重复路由、非法段、nil Handler、封存后注册都返回配置错误（errx.CodeConfig），
// 调用方应当拒绝启动。
func (r *Router) RegisterRoute(route Route, h serve.Handler) error {
	if err := route.validate(); err != nil {
		return err
	}
	if h == nil {
		return errx.ErrConfig.WithData("route", route.String()).Wrapf("nil handler")
	}
	if r.sealed.Load() {
		return errx.ErrConfig.WithData("route", route.String()).Wrapf("router already serving")
	}

	key := route.key()
	if _, ok := r.routes[key]; ok {
		return errx.ErrConfig.WithData("route", route.String()).Wrapf("duplicate route %s", route)
	}
	r.routes[key] = entry{route: append(Route(nil), route...), handler: h}
	return nil
}

// MustRegister 与 Register 相同，出错时 panic，用于组装代码。
func (r *Router) MustRegister(route string, h serve.Handler) {
	if err := r.Register(route, h); err != nil {
		panic(err)
	}
}

// Routes 返回已注册的路由，按字符串排序。
func (r *Router) Routes() []Route {
	out := make([]Route, 0, len(r.routes))
	for _, e := range r.routes {
		out = append(out, e.route)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// Serve 实现 serve.Handler。
//
//  1. 请求路径切段（丢弃空段）；
//  2. 取最长的已注册前缀，未命中直接合成 404，不调用任何 Handler；
//  3. 命中后剥掉前缀段、保留 query，重建请求交给对应 Handler，结果原样返回；
//  4. 重建后的路径无法解析时返回 400。
func (r *Router) Serve(req *http.Request) (*serve.Response, error) {
	if !r.sealed.Load() {
		r.sealed.Store(true)
	}

	rawPath := req.URL.EscapedPath()
	segments := splitPath(rawPath)

	e, ok := r.findHandler(segments)
	if !ok {
		return serve.NotFound(fmt.Sprintf("Resource not found for path: %s", rawPath)), nil
	}

	next, err := stripPrefix(req, segments[len(e.route):])
	if err != nil {
		logx.ReportSysError(req.Context(), r.log, logx.NewSysLog("router rewrite path", err),
			zap.String("route", e.route.String()))
		return serve.Text(http.StatusBadRequest, fmt.Sprintf("Bad request path: %s", rawPath)), nil
	}
	return e.handler.Serve(next)
}

// findHandler 从完整段序列开始逐级缩短查表，第一个命中的就是最长前缀。
// 注册时已拒绝重复路由，所以不会出现并列。
func (r *Router) findHandler(segments []string) (entry, bool) {
	for n := len(segments); n >= 0; n-- {
		if e, ok := r.routes[strings.Join(segments[:n], "/")]; ok {
			return e, true
		}
	}
	return entry{}, false
}

// stripPrefix 以剩余段重建 path（保留原始转义与 query），并克隆请求。
func stripPrefix(req *http.Request, rest []string) (*http.Request, error) {
	raw := "/" + strings.Join(rest, "/")
	if req.URL.RawQuery != "" {
		raw += "?" + req.URL.RawQuery
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return nil, errx.ErrReqParamERR.WithData("path", raw).WithCause(err)
	}

	next := req.Clone(withMountPath(req.Context(), req.URL.Path))
	next.URL.Path = u.Path
	next.URL.RawPath = u.RawPath
	next.URL.RawQuery = u.RawQuery
	next.RequestURI = u.RequestURI()
	return next, nil
}

type mountPathKey struct{}

func withMountPath(ctx context.Context, original string) context.Context {
	if _, ok := ctx.Value(mountPathKey{}).(string); ok {
		return ctx
	}
	return context.WithValue(ctx, mountPathKey{}, original)
}

// OriginalPath 返回最外层 Router 收到的原始路径（未剥前缀）。
func OriginalPath(req *http.Request) string {
	if p, ok := req.Context().Value(mountPathKey{}).(string); ok {
		return p
	}
	return req.URL.Path
}

// Walk 按 Routes 的顺序遍历路由表，嵌套的 *Router 会以拼接后的完整路由继续展开。
func (r *Router) Walk(fn func(route Route, h serve.Handler)) {
	r.walk(nil, fn)
}

func (r *Router) walk(prefix Route, fn func(Route, serve.Handler)) {
	for _, rt := range r.Routes() {
		e := r.routes[rt.key()]
		full := append(append(Route(nil), prefix...), rt...)
		fn(full, e.handler)
		if sub, ok := e.handler.(*Router); ok {
			sub.walk(full, fn)
		}
	}
}
