package client

import "encoding/json"

// PlayerID 服务端分配的玩家标识，客户端只做相等比较
type PlayerID string

// PlayerRecord 玩家属性（血量、位置等），保持服务端原文；整体替换，不做合并
type PlayerRecord = json.RawMessage

// WorldState 玩家 ID → 记录
type WorldState map[PlayerID]PlayerRecord

// Clone 深拷贝，与 w 不共享内存
func (w WorldState) Clone() WorldState {
	out := make(WorldState, len(w))
	for id, rec := range w {
		cp := make(PlayerRecord, len(rec))
		copy(cp, rec)
		out[id] = cp
	}
	return out
}

// Equal 玩家集合相同且记录逐字节相等
func (w WorldState) Equal(other WorldState) bool {
	if len(w) != len(other) {
		return false
	}
	for id, rec := range w {
		o, ok := other[id]
		if !ok || string(o) != string(rec) {
			return false
		}
	}
	return true
}
