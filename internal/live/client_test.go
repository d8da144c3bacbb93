package live

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"Lantern/modules/kit/errx"

	"github.com/stretchr/testify/require"
)

type captured struct {
	method   string
	clientID string
	body     gqlRequest
}

func gqlServer(t *testing.T, status int, reply string) (*httptest.Server, *captured) {
	t.Helper()
	got := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method = r.Method
		got.clientID = r.Header.Get("Client-Id")
		raw, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(raw, &got.body); err != nil {
			t.Errorf("request body is not json: %v", err)
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func TestClient_IsLive(t *testing.T) {
	cases := []struct {
		name  string
		reply string
		want  bool
	}{
		{"live", `{"data":{"user":{"stream":{"id":"4242"}}}}`, true},
		{"offline", `{"data":{"user":{"stream":null}}}`, false},
		{"unknown user", `{"data":{"user":null}}`, false},
		{"empty id", `{"data":{"user":{"stream":{"id":""}}}}`, true},
		{"numeric id", `{"data":{"user":{"stream":{"id":42}}}}`, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv, got := gqlServer(t, http.StatusOK, tc.reply)
			c := NewClient(Config{Endpoint: srv.URL, ClientID: "cid"}, nil)

			live, err := c.IsLive(context.Background(), "alts_alt_")
			require.NoError(t, err)
			require.Equal(t, tc.want, live)

			require.Equal(t, http.MethodPost, got.method)
			require.Equal(t, "cid", got.clientID)
			require.Equal(t, streamQuery, got.body.Query)
			require.Equal(t, "alts_alt_", got.body.Variables["login"])
		})
	}
}

func TestClient_UpstreamFailuresAreUnavailable(t *testing.T) {
	t.Run("non 2xx", func(t *testing.T) {
		srv, _ := gqlServer(t, http.StatusServiceUnavailable, `{}`)
		_, err := NewClient(Config{Endpoint: srv.URL}, nil).IsLive(context.Background(), "x")
		require.ErrorIs(t, err, errx.ErrUnavailable)
	})
	t.Run("bad json", func(t *testing.T) {
		srv, _ := gqlServer(t, http.StatusOK, `<html>`)
		_, err := NewClient(Config{Endpoint: srv.URL}, nil).IsLive(context.Background(), "x")
		require.ErrorIs(t, err, errx.ErrUnavailable)
	})
	t.Run("connection refused", func(t *testing.T) {
		srv, _ := gqlServer(t, http.StatusOK, `{}`)
		endpoint := srv.URL
		srv.Close()
		_, err := NewClient(Config{Endpoint: endpoint}, nil).IsLive(context.Background(), "x")
		require.ErrorIs(t, err, errx.ErrUnavailable)
	})
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(Config{}, nil, WithHTTPClient(http.DefaultClient))
	require.Equal(t, DefaultEndpoint, c.endpoint)
	require.Equal(t, DefaultClientID, c.clientID)
	require.Same(t, http.DefaultClient, c.http)
}
