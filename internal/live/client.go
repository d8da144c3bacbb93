// Package live 查询主播是否正在直播（Twitch GQL）。
package live

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"Lantern/modules/kit/errx"
	"Lantern/modules/kit/logx"

	"go.uber.org/zap"
)

const (
	DefaultEndpoint = "https://gql.twitch.tv/gql"
	// DefaultClientID 是 Twitch 网页端公开使用的 Client-Id。
	DefaultClientID = "kimne78kx3ncx6brgo4mv6wki5h1ko"

	streamQuery = "query($login:String!){ user(login:$login){ stream { id } } }"

	// 上游响应体读取上限，防止异常响应撑爆内存。
	maxBodyBytes = 1 << 20
)

// Checker 是直播状态查询能力，api 模块依赖这个接口。
type Checker interface {
	IsLive(ctx context.Context, login string) (bool, error)
}

type Config struct {
	Endpoint string
	ClientID string
	Timeout  time.Duration
}

type Client struct {
	endpoint string
	clientID string
	http     *http.Client
	log      logx.Logger
}

type Option func(*Client)

// WithHTTPClient 替换底层 http.Client（测试或自定义 Transport）。
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func NewClient(cfg Config, l logx.Logger, opts ...Option) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.ClientID == "" {
		cfg.ClientID = DefaultClientID
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	c := &Client{
		endpoint: cfg.Endpoint,
		clientID: cfg.ClientID,
		http:     &http.Client{Timeout: cfg.Timeout},
		log:      logx.OrNop(l),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type gqlResponse struct {
	Data struct {
		User *struct {
			Stream *struct {
				ID any `json:"id"`
			} `json:"stream"`
		} `json:"user"`
	} `json:"data"`
}

// IsLive 当且仅当 data.user.stream.id 是字符串时返回 true，空串也算在播。
// 网络错误、非 2xx、响应无法解析都返回 errx.ErrUnavailable。
func (c *Client) IsLive(ctx context.Context, login string) (bool, error) {
	payload, err := json.Marshal(gqlRequest{
		Query:     streamQuery,
		Variables: map[string]any{"login": login},
	})
	if err != nil {
		return false, errx.ErrInternal.WithCause(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return false, errx.ErrUnavailable.WithData("endpoint", c.endpoint).WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Client-Id", c.clientID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return false, errx.ErrUnavailable.WithData("endpoint", c.endpoint).WithCause(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return false, errx.ErrUnavailable.WithData("endpoint", c.endpoint).WithCause(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, errx.ErrUnavailable.
			WithData("endpoint", c.endpoint).
			WithData("status", resp.StatusCode).
			Wrapf("unexpected upstream status %d", resp.StatusCode)
	}

	var out gqlResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return false, errx.ErrUnavailable.WithData("endpoint", c.endpoint).Wrapf("decode gql response: %w", err)
	}

	live := false
	if u := out.Data.User; u != nil && u.Stream != nil {
		_, live = u.Stream.ID.(string)
	}

	c.log.WithContext(ctx).Debug("live status fetched",
		zap.String("login", login),
		zap.Bool("live", live),
		zap.Duration("cost", time.Since(start)))
	return live, nil
}
