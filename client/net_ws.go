package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ClientConn 一个 websocket 连接：读协程把入站帧交给会话循环，
// 写协程消费发送队列
type ClientConn struct {
	ws  *websocket.Conn
	cfg Config

	send chan []byte
	done chan struct{}

	closeOnce sync.Once
	mu        sync.Mutex
	err       error
}

// Dial 建立连接，不启动读写协程
func Dial(ctx context.Context, endpoint string, cfg Config) (*ClientConn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: cfg.HandshakeTimeout,
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
	}
	ws, resp, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", endpoint, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}
	return NewClientConn(ws, cfg), nil
}

func NewClientConn(ws *websocket.Conn, cfg Config) *ClientConn {
	return &ClientConn{
		ws:   ws,
		cfg:  cfg,
		send: make(chan []byte, cfg.SendQueue),
		done: make(chan struct{}),
	}
}

// Start 启动读写协程；入站帧按到达顺序写入 events，直到连接关闭
func (c *ClientConn) Start(events chan<- Event) {
	go c.writePump()
	go c.readPump(events)
}

// Send 将一帧放入发送队列，不阻塞
func (c *ClientConn) Send(b []byte) error {
	select {
	case <-c.done:
		return ErrNotConnected
	default:
	}
	select {
	case c.send <- b:
		return nil
	case <-c.done:
		return ErrNotConnected
	default:
		return ErrSendQueueFull
	}
}

// Done 连接结束后关闭
func (c *ClientConn) Done() <-chan struct{} { return c.done }

// Err 连接结束的原因；本地 Close 时为 nil
func (c *ClientConn) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Close 发送正常关闭帧并断开连接
func (c *ClientConn) Close() error {
	c.shutdown(nil, true)
	return nil
}

func (c *ClientConn) shutdown(err error, sayGoodbye bool) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.err = err
		c.mu.Unlock()
		close(c.done)
		if sayGoodbye {
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		}
		_ = c.ws.Close()
	})
}

// writePump 唯一的写入方，同时负责心跳 ping
func (c *ClientConn) writePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.shutdown(fmt.Errorf("write: %w", err), false)
				return
			}
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.cfg.WriteTimeout)); err != nil {
				c.shutdown(fmt.Errorf("ping: %w", err), false)
				return
			}
		}
	}
}

// readPump 转发文本帧；ReadTimeout 内无任何帧或 pong 视为服务端已断开
func (c *ClientConn) readPump(events chan<- Event) {
	c.ws.SetReadLimit(c.cfg.ReadLimit)
	_ = c.ws.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
	})

	for {
		kind, payload, err := c.ws.ReadMessage()
		if err != nil {
			c.shutdown(err, false)
			return
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
		if kind != websocket.TextMessage {
			Log.Debugw("non-text frame ignored", "kind", kind, "bytes", len(payload))
			continue
		}
		select {
		case events <- Event{Kind: EventFrame, Raw: payload}:
		case <-c.done:
			return
		}
	}
}
