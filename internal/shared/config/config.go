package config

import (
	"net/url"
	"strings"

	"Lantern/modules/kit/errx"

	"go.uber.org/zap/zapcore"
)

const defaultConfigRelPath = "configs/conf.yml"

// defaults 在没有配置文件时也保证服务可以起来。
var defaults = map[string]any{
	"http.host":                "0.0.0.0",
	"http.port":                8080,
	"http.read_header_timeout": "5s",
	"http.idle_timeout":        "60s",
	"http.shutdown_timeout":    "10s",

	"static.root":          "build",
	"static.fallback_file": "build/404.html",

	"live.endpoint":  "https://gql.twitch.tv/gql",
	"live.client_id": "kimne78kx3ncx6brgo4mv6wki5h1ko",
	"live.login":     "alts_alt_",
	"live.timeout":   "5s",

	"cache.max_age":          "10s",
	"cache.ttl":              "10s",
	"cache.compact_interval": "0s",

	"log.file_dir":    "",
	"log.max_size":    100,
	"log.max_backups": 5,
	"log.max_age":     7,
	"log.compress":    false,
	"log.level":       "info",
	"log.dev":         false,
}

// envAliases 是不带前缀的历史环境变量名，优先级低于 LANTERN_*。
var envAliases = map[string]string{
	"http.port":            "PORT",
	"static.root":          "STATIC_SERVER_ROOT",
	"static.fallback_file": "STATIC_SERVER_FALLBACK_FILE",
}

// Validate 检查启动必需的配置项，失败返回 errx.ErrConfig。
func (c Config) Validate() error {
	invalid := func(key string, value any, reason string) error {
		return errx.ErrConfig.WithData("key", key).WithData("value", value).Wrapf("%s: %s", key, reason)
	}

	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return invalid("http.port", c.HTTP.Port, "must be in 1..65535")
	}
	if strings.TrimSpace(c.Static.Root) == "" {
		return invalid("static.root", c.Static.Root, "must not be empty")
	}
	if u, err := url.Parse(c.Live.Endpoint); err != nil || u.Scheme == "" || u.Host == "" {
		return invalid("live.endpoint", c.Live.Endpoint, "must be an absolute url")
	}
	if c.Live.Login == "" {
		return invalid("live.login", c.Live.Login, "must not be empty")
	}
	if c.Cache.MaxAge < 0 {
		return invalid("cache.max_age", c.Cache.MaxAge.String(), "must not be negative")
	}
	if c.Cache.TTL < 0 {
		return invalid("cache.ttl", c.Cache.TTL.String(), "must not be negative")
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return invalid("log.level", c.Log.Level, err.Error())
	}
	return nil
}
