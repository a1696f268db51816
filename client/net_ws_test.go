package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// gameServer 模拟服务端：按顺序发送 frames，把客户端发来的帧转发到 got，
// hangup 关闭时发送关闭帧
type gameServer struct {
	frames []string
	got    chan string
	hangup chan struct{}
}

func newGameServer(t *testing.T, frames ...string) (*httptest.Server, *gameServer) {
	t.Helper()
	gs := &gameServer{frames: frames, got: make(chan string, 16), hangup: make(chan struct{})}
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

	mux := http.NewServeMux()
	mux.HandleFunc("/chat", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, f := range gs.frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		go func() {
			<-gs.hangup
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		}()
		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				return
			}
			gs.got <- string(payload)
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, gs
}

func testConfig(srv *httptest.Server) Config {
	cfg := DefaultConfig()
	cfg.Host = srv.URL
	cfg.PingInterval = 50 * time.Millisecond
	cfg.ReadTimeout = 2 * time.Second
	return cfg
}

func waitForState(t *testing.T, s *Session, want WorldState) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if s.Phase() == PhaseSynced && s.Store().Read().Equal(want) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("state never reached %v (phase %s, have %v)", want, s.Phase(), s.Store().Read())
}

func TestClientConn_EndToEnd(t *testing.T) {
	srv, gs := newGameServer(t,
		`"u1"`,
		`{"u1":{"hp":10},"u2":{"hp":10}}`,
		`not json`,
		`{"type":"WorldUpdate","players":{"u1":{"hp":7},"u2":{"hp":10}}}`,
	)
	cfg := testConfig(srv)
	endpoint, err := cfg.Endpoint()
	if err != nil {
		t.Fatalf("endpoint: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	conn, err := Dial(ctx, endpoint, cfg)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	errs := make(chan error, 8)
	s := NewSession(SessionOptions{OnError: func(err error) { errs <- err }})
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, conn) }()

	waitForState(t, s, state("u1", `{"hp":7}`, "u2", `{"hp":10}`))
	if id, _ := s.Identity(); id != "u1" {
		t.Fatalf("identity: %q", id)
	}
	select {
	case err := <-errs:
		var de *DecodeError
		if !errors.As(err, &de) {
			t.Fatalf("expected DecodeError, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("decode failure not reported")
	}

	if err := s.AttackPlayer("u2"); err != nil {
		t.Fatalf("attack: %v", err)
	}
	select {
	case got := <-gs.got:
		if got != `{"type":"AttackPlayer","target":"u2"}` {
			t.Fatalf("server got %s", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("server never received the command")
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("run did not return after cancel")
	}
	if s.Connected() || !s.Store().Stale() {
		t.Fatalf("after cancel: connected=%v stale=%v", s.Connected(), s.Store().Stale())
	}
	if err := s.HealSelf(); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("send after close: %v", err)
	}
}

func TestClientConn_ServerCloseEndsRun(t *testing.T) {
	srv, gs := newGameServer(t, `"u1"`, `{"u1":{"hp":10}}`)
	cfg := testConfig(srv)
	endpoint, _ := cfg.Endpoint()

	conn, err := Dial(context.Background(), endpoint, cfg)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	s := NewSession(SessionOptions{})
	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background(), conn) }()

	waitForState(t, s, state("u1", `{"hp":10}`))
	close(gs.hangup)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("normal close returned %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("run did not return after server close")
	}
	if s.Phase() != PhaseDisconnected {
		t.Fatalf("phase: %s", s.Phase())
	}
	if _, ok := s.Identity(); ok {
		t.Fatalf("identity kept after close")
	}
	if !s.Store().Read().Equal(state("u1", `{"hp":10}`)) {
		t.Fatalf("last known state dropped")
	}
}

func TestDial_BadEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	cfg := DefaultConfig()
	endpoint := "ws" + strings.TrimPrefix(srv.URL, "http") + "/chat"
	_, err := Dial(context.Background(), endpoint, cfg)
	if err == nil || !strings.Contains(err.Error(), "status 404") {
		t.Fatalf("expected handshake failure, got %v", err)
	}
}

func TestClientConn_SendQueue(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SendQueue = 1
	c := NewClientConn(nil, cfg)

	if err := c.Send([]byte("a")); err != nil {
		t.Fatalf("first send: %v", err)
	}
	if err := c.Send([]byte("b")); !errors.Is(err, ErrSendQueueFull) {
		t.Fatalf("second send: %v", err)
	}
	close(c.done)
	if err := c.Send([]byte("c")); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("send after close: %v", err)
	}
}
