package client

// Phase 连接所处的握手阶段
type Phase int

const (
	PhaseDisconnected Phase = iota
	PhaseAwaitingIdentity
	PhaseAwaitingSnapshot
	PhaseSynced
)

func (p Phase) String() string {
	switch p {
	case PhaseAwaitingIdentity:
		return "awaiting-identity"
	case PhaseAwaitingSnapshot:
		return "awaiting-snapshot"
	case PhaseSynced:
		return "synced"
	default:
		return "disconnected"
	}
}

// frameHandler 在会话循环中处理一帧
type frameHandler func(s *Session, in Inbound) error

// phaseHandlers 由阶段（而非帧结构）选择处理函数，处理函数再检查结构
var phaseHandlers = map[Phase]frameHandler{
	PhaseDisconnected:     dropFrame,
	PhaseAwaitingIdentity: assignIdentity,
	PhaseAwaitingSnapshot: applySnapshot,
	PhaseSynced:           dispatchTyped,
}

func dropFrame(s *Session, in Inbound) error {
	s.logger.Debugw("frame while disconnected dropped", "bytes", len(in.Raw))
	return nil
}

func assignIdentity(s *Session, in Inbound) error {
	if in.Shape != ShapeScalar {
		return s.haltBootstrap(&ProtocolViolation{
			Phase:  PhaseAwaitingIdentity,
			Shape:  in.Shape,
			Reason: "first frame must be the assigned player id",
		})
	}
	id, err := in.Identity()
	if err != nil {
		return s.haltBootstrap(&ProtocolViolation{Phase: PhaseAwaitingIdentity, Shape: in.Shape, Reason: err.Error()})
	}

	s.mu.Lock()
	s.identity = id
	s.hasIdentity = true
	s.phase = PhaseAwaitingSnapshot
	s.mu.Unlock()

	s.logger.Infow("identity assigned", "player", id)
	return nil
}

func applySnapshot(s *Session, in Inbound) error {
	if in.Shape != ShapeMapping {
		return s.haltBootstrap(&ProtocolViolation{
			Phase:  PhaseAwaitingSnapshot,
			Shape:  in.Shape,
			Reason: "second frame must be the initial player map",
		})
	}
	players, err := in.WorldState()
	if err != nil {
		return s.haltBootstrap(&ProtocolViolation{Phase: PhaseAwaitingSnapshot, Shape: in.Shape, Reason: err.Error()})
	}

	s.store.ReplaceAll(players)
	s.metrics.IncReplaced()

	s.mu.Lock()
	s.phase = PhaseSynced
	s.mu.Unlock()

	s.logger.Infow("initial snapshot applied", "players", len(players))
	return nil
}
