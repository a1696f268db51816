package client

import "encoding/json"

// 出站指令类型
const (
	TypeHealSelf     = "HealSelf"
	TypeAttackPlayer = "AttackPlayer"
)

// HealSelfCommand 请求为本地玩家回血
// 示例： {"type":"HealSelf"}
type HealSelfCommand struct {
	Type string `json:"type"`
}

// AttackPlayerCommand 请求攻击其他玩家
// 示例： {"type":"AttackPlayer","target":"u2"}
type AttackPlayerCommand struct {
	Type   string   `json:"type"`
	Target PlayerID `json:"target"`
}

// EncodeHealSelf 生成 HealSelf 帧
func EncodeHealSelf() []byte {
	b, _ := json.Marshal(HealSelfCommand{Type: TypeHealSelf})
	return b
}

// EncodeAttackPlayer 生成 AttackPlayer 帧；目标不对照本地状态检查，由服务端校验
func EncodeAttackPlayer(target PlayerID) []byte {
	b, _ := json.Marshal(AttackPlayerCommand{Type: TypeAttackPlayer, Target: target})
	return b
}

// HealSelf 发送一条 HealSelf
func (s *Session) HealSelf() error {
	return s.sendCommand(TypeHealSelf, EncodeHealSelf())
}

// AttackPlayer 向 target 发送一条 AttackPlayer
func (s *Session) AttackPlayer(target PlayerID) error {
	return s.sendCommand(TypeAttackPlayer, EncodeAttackPlayer(target))
}
