package client

import (
	"errors"
	"fmt"
)

var (
	// 没有打开的连接时发送返回
	ErrNotConnected = errors.New("client: not connected")
	// 发送队列已满
	ErrSendQueueFull = errors.New("client: send queue full")
	// 握手违规后丢弃的帧
	ErrBootstrapHalted = errors.New("client: bootstrap halted")
)

const maxErrorFrame = 128

// DecodeError 入站帧不是可用的 JSON 值
type DecodeError struct {
	Frame string // 原始帧（截断）
	Err   error
}

func newDecodeError(raw []byte, err error) *DecodeError {
	frame := string(raw)
	if len(frame) > maxErrorFrame {
		frame = frame[:maxErrorFrame] + "..."
	}
	return &DecodeError{Frame: frame, Err: err}
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode frame %q: %v", e.Frame, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ProtocolViolation 帧格式正确，但在当前阶段不被接受
type ProtocolViolation struct {
	Phase  Phase
	Shape  Shape
	Reason string
}

func (e *ProtocolViolation) Error() string {
	return fmt.Sprintf("protocol violation in %s: got %s frame: %s", e.Phase, e.Shape, e.Reason)
}
