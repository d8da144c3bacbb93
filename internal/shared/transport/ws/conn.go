package ws

import (
	"sync"
	"time"

	"Lantern/modules/kit/logx"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 5 * time.Second

type conn struct {
	ws        *websocket.Conn
	outChan   chan []byte
	done      chan struct{}
	closeOnce sync.Once
	log       logx.Logger
}

func newConn(ws *websocket.Conn, l logx.Logger) *conn {
	return &conn{
		ws:      ws,
		outChan: make(chan []byte, 16),
		done:    make(chan struct{}),
		log:     l,
	}
}

// run 在当前 goroutine 读，在另一个 goroutine 写；读循环退出即关闭连接。
func (c *conn) run() {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.writeLoop()
	}()
	c.readLoop()
	c.close()
	wg.Wait()
}

func (c *conn) readLoop() {
	for {
		typ, _, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Debug("websocket closed by peer")
			} else {
				c.log.Warn("websocket read error", zap.Error(err))
			}
			return
		}
		if typ != websocket.TextMessage {
			continue
		}
		if !c.push([]byte(PongReply)) {
			return
		}
	}
}

func (c *conn) push(msg []byte) bool {
	select {
	case c.outChan <- msg:
		return true
	case <-c.done:
		return false
	}
}

func (c *conn) writeLoop() {
	for {
		select {
		case msg := <-c.outChan:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.log.Warn("websocket write error", zap.Error(err))
				c.close()
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *conn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}
