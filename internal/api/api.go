// Package api 是挂在 /api 下的业务接口：ping、直播状态查询（带 single-flight 缓存）、twitch JSON。
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"Lantern/internal/cache"
	"Lantern/internal/live"
	"Lantern/internal/serve"
	"Lantern/internal/serve/router"
	"Lantern/modules/kit/errx"
	"Lantern/modules/kit/logx"

	"go.uber.org/zap"
)

// TwitchCacheKey 是 /api/twitch 结果在 TTL store 中的 key。
const TwitchCacheKey = "IS_LIVE_TWITCH_API_CACHE_KEY"

var loginPattern = regexp.MustCompile(`^[A-Za-z0-9_]{1,25}$`)

type Config struct {
	// DefaultLogin 是 /api/is-live 与 /api/twitch 查询的主播。
	DefaultLogin string
	// MaxAge 是 is-live 结果的最大缓存时长。
	MaxAge time.Duration
	// TwitchTTL 是 /api/twitch 结果在 TTL store 中的存活时长。
	TwitchTTL time.Duration
}

// Module 持有所有缓存实例，Handler 之间按指针共享。
type Module struct {
	checker      live.Checker
	defaultLogin string

	isLive   *cache.Refresher[bool]
	perLogin *cache.KeyedRefresher[bool]
	twitch   *cache.TTLStore[string, string]

	log logx.Logger
}

func New(cfg Config, checker live.Checker, l logx.Logger) (*Module, error) {
	if checker == nil {
		return nil, errx.ErrConfig.Wrapf("live checker is nil")
	}
	if !loginPattern.MatchString(cfg.DefaultLogin) {
		return nil, errx.ErrConfig.WithData("login", cfg.DefaultLogin).Wrapf("invalid default login %q", cfg.DefaultLogin)
	}
	if cfg.MaxAge < 0 || cfg.TwitchTTL < 0 {
		return nil, errx.ErrConfig.
			WithData("max_age", cfg.MaxAge.String()).
			WithData("twitch_ttl", cfg.TwitchTTL.String()).
			Wrapf("negative cache duration")
	}

	m := &Module{
		checker:      checker,
		defaultLogin: cfg.DefaultLogin,
		twitch:       cache.NewTTLStore[string, string](cfg.TwitchTTL),
		log:          logx.OrNop(l),
	}
	m.isLive = cache.NewRefresher[bool](func(ctx context.Context) (bool, error) {
		return m.checker.IsLive(ctx, m.defaultLogin)
	}, cfg.MaxAge)
	m.perLogin = cache.NewKeyedRefresher[bool](m.checker.IsLive, cfg.MaxAge)
	return m, nil
}

// Router 返回挂好 ping / is-live / twitch 的子路由，由调用方挂到 "api" 下。
func (m *Module) Router() *router.Router {
	r := router.New(m.log)
	r.MustRegister("ping", serve.HandlerFunc(m.ping))
	r.MustRegister("is-live", serve.HandlerFunc(m.serveIsLive))
	r.MustRegister("twitch", serve.HandlerFunc(m.serveTwitch))
	return r
}

// Compactors 返回需要定期清理过期项的缓存。
func (m *Module) Compactors() []cache.Compactor {
	return []cache.Compactor{m.perLogin, m.twitch}
}

func (m *Module) ping(*http.Request) (*serve.Response, error) {
	return serve.Text(http.StatusOK, "pong"), nil
}

// serveIsLive 处理 /api/is-live 与 /api/is-live/<login>。
func (m *Module) serveIsLive(req *http.Request) (*serve.Response, error) {
	ctx := req.Context()
	rest := strings.Trim(req.URL.Path, "/")

	var (
		isLive bool
		err    error
	)
	switch {
	case rest == "":
		isLive, err = m.isLive.Get(ctx)
	case strings.Contains(rest, "/"):
		return serve.NotFound(fmt.Sprintf("Resource not found for path: %s", req.URL.Path)), nil
	case !loginPattern.MatchString(rest):
		logx.ReportBiz(ctx, m.log, logx.NewBizLog("api is-live", "invalid login"), zap.String("login", rest))
		return serve.Text(http.StatusBadRequest, fmt.Sprintf("Invalid login: %s", rest)), nil
	default:
		isLive, err = m.perLogin.Get(ctx, strings.ToLower(rest))
	}
	if err != nil {
		return m.upstreamFailure(ctx, "api is-live", err), nil
	}
	return serve.Text(http.StatusOK, strconv.FormatBool(isLive)), nil
}

type twitchResponse struct {
	IsLive bool `json:"is_live"`
}

// serveTwitch 先查 TTL store，未命中或缓存内容无法解析时回源；回源失败返回 500。
func (m *Module) serveTwitch(req *http.Request) (*serve.Response, error) {
	ctx := req.Context()

	if raw, ok := m.twitch.Get(TwitchCacheKey); ok {
		var cached twitchResponse
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			return serve.JSON(http.StatusOK, cached)
		}
	}

	isLive, err := m.checker.IsLive(ctx, m.defaultLogin)
	if err != nil {
		logx.ReportSysError(ctx, m.log, logx.NewSysLog("api twitch", err))
		return serve.Text(http.StatusInternalServerError, err.Error()), nil
	}

	out := twitchResponse{IsLive: isLive}
	raw, err := json.Marshal(out)
	if err != nil {
		return nil, errx.ErrInternal.WithCause(err)
	}
	m.twitch.Put(TwitchCacheKey, string(raw))
	return serve.JSON(http.StatusOK, out)
}

// upstreamFailure 把回源失败映射为 502；调用方自己放弃等待时为 504。
func (m *Module) upstreamFailure(ctx context.Context, action string, err error) *serve.Response {
	logx.ReportSysError(ctx, m.log, logx.NewSysLog(action, err))
	if errx.CodeOf(err) == errx.CodeTimeout {
		return serve.Text(http.StatusGatewayTimeout, http.StatusText(http.StatusGatewayTimeout))
	}
	return serve.Text(http.StatusBadGateway, http.StatusText(http.StatusBadGateway))
}
