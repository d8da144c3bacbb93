package ws

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(NewPingServer(nil))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + PingPath
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	require.NoError(t, c.SetReadDeadline(time.Now().Add(5*time.Second)))
	return c
}

func TestPingServer_RepliesPongToEveryTextFrame(t *testing.T) {
	c := dial(t)

	for _, msg := range []string{"ping", "hello", ""} {
		require.NoError(t, c.WriteMessage(websocket.TextMessage, []byte(msg)))
		typ, data, err := c.ReadMessage()
		require.NoError(t, err)
		require.Equal(t, websocket.TextMessage, typ)
		require.Equal(t, PongReply, string(data))
	}
}

func TestPingServer_IgnoresBinaryFrames(t *testing.T) {
	c := dial(t)

	require.NoError(t, c.WriteMessage(websocket.BinaryMessage, []byte{1, 2, 3}))
	require.NoError(t, c.WriteMessage(websocket.TextMessage, []byte("ping")))

	_, data, err := c.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, PongReply, string(data))
}

func TestPingServer_CloseEndsConnection(t *testing.T) {
	c := dial(t)

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")
	require.NoError(t, c.WriteMessage(websocket.CloseMessage, msg))

	_, _, err := c.ReadMessage()
	require.Error(t, err)
}

func TestPingServer_PlainHTTPIsRejected(t *testing.T) {
	srv := httptest.NewServer(NewPingServer(nil))
	t.Cleanup(srv.Close)

	resp, err := srv.Client().Get(srv.URL + PingPath)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, 400, resp.StatusCode)
}
