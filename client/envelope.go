package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// 入站消息类型
const (
	TypeWorldUpdate  = "WorldUpdate"
	TypePlayerJoined = "PlayerJoined"
	TypePlayerDied   = "PlayerDied"
)

// Shape 解码后帧的结构分类（只看结构，不看阶段）
type Shape int

const (
	ShapeOther   Shape = iota // null、bool、数组
	ShapeScalar               // 字符串或数字
	ShapeMapping              // 无字符串 "type" 字段的对象
	ShapeTyped                // 带字符串 "type" 字段的对象
)

func (s Shape) String() string {
	switch s {
	case ShapeScalar:
		return "scalar"
	case ShapeMapping:
		return "mapping"
	case ShapeTyped:
		return "typed"
	default:
		return "other"
	}
}

// Inbound 一帧解码结果，仅在本次分发中使用，不做保留。
// Value 以 UseNumber 解码（数字保持原文）；Type 仅在 ShapeTyped 时有值。
type Inbound struct {
	Raw   []byte
	Value any
	Shape Shape
	Type  string
}

// Decode 将 raw 解析为恰好一个 JSON 值并分类；不修改任何状态
func Decode(raw []byte) (Inbound, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return Inbound{}, newDecodeError(raw, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Inbound{}, newDecodeError(raw, errors.New("trailing data after JSON value"))
	}

	in := Inbound{Raw: raw, Value: v}
	switch x := v.(type) {
	case string, json.Number:
		in.Shape = ShapeScalar
	case map[string]any:
		if t, ok := x["type"].(string); ok {
			in.Shape = ShapeTyped
			in.Type = t
		} else {
			in.Shape = ShapeMapping
		}
	default:
		in.Shape = ShapeOther
	}
	return in, nil
}

// Identity 将标量转为 PlayerID，数字保留十进制文本
func (in Inbound) Identity() (PlayerID, error) {
	switch x := in.Value.(type) {
	case string:
		return PlayerID(x), nil
	case json.Number:
		return PlayerID(x.String()), nil
	}
	return "", fmt.Errorf("identity must be a string or number, got %s", in.Shape)
}

// WorldState 将映射帧解码为完整的玩家表
func (in Inbound) WorldState() (WorldState, error) {
	return decodeWorldState(in.Raw)
}

// decodeWorldState 解析 PlayerID → 记录 的对象；记录做紧凑化，便于逐字节比较
func decodeWorldState(raw []byte) (WorldState, error) {
	var m map[PlayerID]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	out := make(WorldState, len(m))
	for id, rec := range m {
		var buf bytes.Buffer
		if err := json.Compact(&buf, rec); err != nil {
			return nil, fmt.Errorf("player %q: %w", id, err)
		}
		out[id] = buf.Bytes()
	}
	return out, nil
}

// worldUpdateMsg WorldUpdate 消息体
// 示例：{"type":"WorldUpdate","players":{"u1":{"hp":7}}}
type worldUpdateMsg struct {
	Type    string          `json:"type"`
	Players json.RawMessage `json:"players"`
}
