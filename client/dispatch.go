package client

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const schemaBaseURL = "https://clickbattler.local/schemas/"

func mustSchema(name string) *jsonschema.Schema {
	b, err := schemaFS.ReadFile("schemas/" + name)
	if err != nil {
		panic(err)
	}
	return jsonschema.MustCompileString(schemaBaseURL+name, string(b))
}

var worldUpdateSchema = mustSchema("worldupdate.schema.json")

// typedHandlers 同步后按 "type" 分发；表中没有的类型忽略
var typedHandlers = map[string]frameHandler{
	TypeWorldUpdate:  applyWorldUpdate,
	TypePlayerJoined: noopTyped,
	TypePlayerDied:   noopTyped,
}

func dispatchTyped(s *Session, in Inbound) error {
	if in.Shape != ShapeTyped {
		s.metrics.IncViolation()
		return &ProtocolViolation{
			Phase:  PhaseSynced,
			Shape:  in.Shape,
			Reason: "steady-state frames must carry a type",
		}
	}
	h, ok := typedHandlers[in.Type]
	if !ok {
		s.metrics.IncUnknownType()
		s.logger.Debugw("unknown message type ignored", "type", in.Type)
		return nil
	}
	return h(s, in)
}

func applyWorldUpdate(s *Session, in Inbound) error {
	if err := worldUpdateSchema.Validate(in.Value); err != nil {
		s.metrics.IncDecodeFailure()
		return newDecodeError(in.Raw, fmt.Errorf("WorldUpdate: %w", err))
	}
	var msg worldUpdateMsg
	if err := json.Unmarshal(in.Raw, &msg); err != nil {
		s.metrics.IncDecodeFailure()
		return newDecodeError(in.Raw, err)
	}
	players, err := decodeWorldState(msg.Players)
	if err != nil {
		s.metrics.IncDecodeFailure()
		return newDecodeError(in.Raw, err)
	}

	s.store.ReplaceAll(players)
	s.metrics.IncReplaced()
	s.logger.Debugw("world update applied", "players", len(players))
	return nil
}

// noopTyped 仅通知类消息，状态变化由随后的 WorldUpdate 带来
func noopTyped(s *Session, in Inbound) error {
	s.logger.Debugw("event received", "type", in.Type)
	return nil
}
