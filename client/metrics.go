package client

import "sync/atomic"

// Metrics 会话运行期的关键指标（用于监控与调试）
type Metrics struct {
	FramesReceived     int64
	DecodeFailures     int64
	ProtocolViolations int64
	UnknownTypes       int64 // 因类型未知被忽略的消息数
	StateReplacements  int64
	CommandsSent       int64
	SendFailures       int64
}

func (m *Metrics) IncFrame()         { atomic.AddInt64(&m.FramesReceived, 1) }
func (m *Metrics) IncDecodeFailure() { atomic.AddInt64(&m.DecodeFailures, 1) }
func (m *Metrics) IncViolation()     { atomic.AddInt64(&m.ProtocolViolations, 1) }
func (m *Metrics) IncUnknownType()   { atomic.AddInt64(&m.UnknownTypes, 1) }
func (m *Metrics) IncReplaced()      { atomic.AddInt64(&m.StateReplacements, 1) }
func (m *Metrics) IncSent()          { atomic.AddInt64(&m.CommandsSent, 1) }
func (m *Metrics) IncSendFailure()   { atomic.AddInt64(&m.SendFailures, 1) }

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *Metrics) Snapshot() map[string]any {
	return map[string]any{
		"frames_received":     atomic.LoadInt64(&m.FramesReceived),
		"decode_failures":     atomic.LoadInt64(&m.DecodeFailures),
		"protocol_violations": atomic.LoadInt64(&m.ProtocolViolations),
		"unknown_types":       atomic.LoadInt64(&m.UnknownTypes),
		"state_replacements":  atomic.LoadInt64(&m.StateReplacements),
		"commands_sent":       atomic.LoadInt64(&m.CommandsSent),
		"send_failures":       atomic.LoadInt64(&m.SendFailures),
	}
}
