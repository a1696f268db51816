package client

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// EventKind 连接生命周期事件类型
type EventKind int

const (
	EventOpened EventKind = iota
	EventFrame
	EventClosed
)

// Event 会话循环的单个输入
type Event struct {
	Kind EventKind
	Raw  []byte // EventFrame 的原始帧
	Err  error  // EventClosed 的原因；正常关闭为 nil
}

// FrameSender 连接的出站一侧
type FrameSender interface {
	Send([]byte) error
}

// SessionOptions 会话配置，所有字段均可选
type SessionOptions struct {
	Journal *Journal
	// OnError 在会话循环中回调：解码失败、协议违规、异常断开
	OnError func(error)
}

// View 供 UI 读取的只读视图
type View struct {
	Session   string     `json:"session"`
	Identity  PlayerID   `json:"id,omitempty"`
	Players   WorldState `json:"players"`
	Connected bool       `json:"connected"`
	Stale     bool       `json:"stale"`
	Phase     string     `json:"phase"`
	LastError string     `json:"last_error,omitempty"`
}

// Session 镜像服务端权威的世界状态（一次一个连接）。
// 所有协议处理都在 Handle 中完成，只能由单个协程调用；读取接口可并发调用。
type Session struct {
	id      string
	logger  *zap.SugaredLogger
	store   *WorldStore
	metrics *Metrics
	journal *Journal
	onError func(error)

	mu          sync.RWMutex
	phase       Phase
	identity    PlayerID
	hasIdentity bool
	halted      error
	lastErr     error
	sender      FrameSender
}

func NewSession(opts SessionOptions) *Session {
	id := uuid.NewString()
	return &Session{
		id:      id,
		logger:  Log.With("session", id),
		store:   NewWorldStore(),
		metrics: &Metrics{},
		journal: opts.Journal,
		onError: opts.OnError,
	}
}

func (s *Session) ID() string         { return s.id }
func (s *Session) Store() *WorldStore { return s.store }
func (s *Session) Metrics() *Metrics  { return s.metrics }

func (s *Session) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// Identity 返回服务端分配的本地玩家 ID（分配前 ok 为 false）
func (s *Session) Identity() (PlayerID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity, s.hasIdentity
}

func (s *Session) Connected() bool {
	return s.Phase() != PhaseDisconnected
}

// LastError 最近一次上报的错误
func (s *Session) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

func (s *Session) View() View {
	s.mu.RLock()
	v := View{
		Session:   s.id,
		Identity:  s.identity,
		Connected: s.phase != PhaseDisconnected,
		Phase:     s.phase.String(),
	}
	if s.lastErr != nil {
		v.LastError = s.lastErr.Error()
	}
	s.mu.RUnlock()

	v.Players = s.store.Read()
	v.Stale = s.store.Stale()
	return v
}

// Attach 设置指令的发送端，Run 会自动绑定连接
func (s *Session) Attach(sender FrameSender) {
	s.mu.Lock()
	s.sender = sender
	s.mu.Unlock()
}

// Run 单线程事件循环：直到连接关闭或 ctx 取消，返回传输层错误（如有）
func (s *Session) Run(ctx context.Context, conn *ClientConn) error {
	events := make(chan Event, 64)
	s.Attach(conn)
	s.Handle(Event{Kind: EventOpened})
	conn.Start(events)

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close()
			s.drain(events)
			s.Handle(Event{Kind: EventClosed})
			return ctx.Err()
		case ev := <-events:
			s.Handle(ev)
		case <-conn.Done():
			s.drain(events)
			err := conn.Err()
			s.Handle(Event{Kind: EventClosed, Err: err})
			if isNormalClose(err) {
				return nil
			}
			return err
		}
	}
}

// drain 处理连接断开前已读入的帧，保证到达顺序
func (s *Session) drain(events <-chan Event) {
	for {
		select {
		case ev := <-events:
			s.Handle(ev)
		default:
			return
		}
	}
}

// Handle 完整处理一个事件后才返回
func (s *Session) Handle(ev Event) {
	switch ev.Kind {
	case EventOpened:
		s.opened()
	case EventFrame:
		s.frame(ev.Raw)
	case EventClosed:
		s.closed(ev.Err)
	}
}

func (s *Session) opened() {
	s.mu.Lock()
	if s.phase != PhaseDisconnected {
		s.mu.Unlock()
		s.logger.Warnw("duplicate open ignored", "phase", s.phase)
		return
	}
	s.phase = PhaseAwaitingIdentity
	s.identity = ""
	s.hasIdentity = false
	s.halted = nil
	s.lastErr = nil
	s.mu.Unlock()

	s.record(JournalEntry{Dir: JournalOpen})
	s.logger.Infow("connected")
}

func (s *Session) frame(raw []byte) {
	s.metrics.IncFrame()
	s.record(JournalEntry{Dir: JournalIn, Frame: string(raw)})

	// 解码失败在任何阶段都要上报，即使握手已终止
	in, err := Decode(raw)
	if err != nil {
		s.metrics.IncDecodeFailure()
		s.report(err)
		return
	}

	s.mu.RLock()
	phase, halted := s.phase, s.halted
	s.mu.RUnlock()

	if halted != nil {
		s.logger.Debugw("frame discarded", "err", ErrBootstrapHalted, "cause", halted)
		return
	}
	if err := phaseHandlers[phase](s, in); err != nil {
		s.report(err)
	}
}

func (s *Session) closed(err error) {
	s.mu.Lock()
	if s.phase == PhaseDisconnected {
		s.mu.Unlock()
		return
	}
	s.phase = PhaseDisconnected
	s.identity = ""
	s.hasIdentity = false
	s.sender = nil
	s.mu.Unlock()

	s.store.MarkStale()

	entry := JournalEntry{Dir: JournalClose}
	if err != nil {
		entry.Err = err.Error()
	}
	s.record(entry)

	if err != nil && !isNormalClose(err) {
		s.report(err)
		return
	}
	s.logger.Infow("disconnected")
}

// haltBootstrap 终止握手：之后的合法帧一律丢弃，直到下次连接
func (s *Session) haltBootstrap(v *ProtocolViolation) error {
	s.metrics.IncViolation()
	s.mu.Lock()
	s.halted = v
	s.mu.Unlock()
	return v
}

func (s *Session) report(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()

	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		s.logger.Warnw("frame discarded", "err", err)
	} else {
		s.logger.Errorw("session error", "err", err)
	}
	if s.onError != nil {
		s.onError(err)
	}
}

func (s *Session) sendCommand(kind string, frame []byte) error {
	s.mu.RLock()
	sender := s.sender
	s.mu.RUnlock()

	if sender == nil {
		s.metrics.IncSendFailure()
		return ErrNotConnected
	}
	if err := sender.Send(frame); err != nil {
		s.metrics.IncSendFailure()
		s.logger.Warnw("command not sent", "type", kind, "err", err)
		return err
	}
	s.metrics.IncSent()
	s.record(JournalEntry{Dir: JournalOut, Frame: string(frame)})
	s.logger.Debugw("command sent", "type", kind)
	return nil
}

func (s *Session) record(e JournalEntry) {
	if s.journal == nil {
		return
	}
	e.Session = s.id
	if err := s.journal.Record(e); err != nil {
		s.logger.Warnw("journal write failed", "err", err)
	}
}

func isNormalClose(err error) bool {
	return err == nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}
