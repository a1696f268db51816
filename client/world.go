package client

import "sync"

// WorldStore 服务端权威玩家表的本地镜像。
// 只有会话循环写入；任意协程可读取或订阅。
type WorldStore struct {
	mu      sync.RWMutex
	players WorldState
	stale   bool
	version uint64

	subMu  sync.Mutex
	nextID int
	subs   map[int]func(WorldState)
}

func NewWorldStore() *WorldStore {
	return &WorldStore{
		players: WorldState{},
		subs:    make(map[int]func(WorldState)),
	}
}

// ReplaceAll 用 next 的副本整体替换玩家表，next 中没有的玩家随之移除。
// 替换后在锁外、调用方协程上通知订阅者。
func (s *WorldStore) ReplaceAll(next WorldState) {
	cp := next.Clone()

	s.mu.Lock()
	s.players = cp
	s.stale = false
	s.version++
	s.mu.Unlock()

	s.publish(cp)
}

// Read 返回当前玩家表的副本；首个快照之前为空
func (s *WorldStore) Read() WorldState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.players.Clone()
}

// Version ReplaceAll 调用次数
func (s *WorldStore) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// MarkStale 标记为最后已知状态（连接已断开）
func (s *WorldStore) MarkStale() {
	s.mu.Lock()
	s.stale = true
	s.mu.Unlock()
}

// Stale 数据来源的连接是否已关闭
func (s *WorldStore) Stale() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stale
}

// Subscribe 每次替换后以独立副本回调 fn；返回的函数用于取消订阅
func (s *WorldStore) Subscribe(fn func(WorldState)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

func (s *WorldStore) publish(state WorldState) {
	s.subMu.Lock()
	fns := make([]func(WorldState), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(state.Clone())
	}
}
