package messaging

import "errors"

var (
	// ErrReadFailed 读取入站负载失败
	ErrReadFailed = errors.New("messaging: read failed")

	// ErrAckFailed 写入确认失败（接收已被记录）
	ErrAckFailed = errors.New("messaging: ack failed")

	// ErrMessageTooLarge 出站消息超过上限
	ErrMessageTooLarge = errors.New("messaging: message too large")

	// ErrWriteFailed 写入出站消息失败
	ErrWriteFailed = errors.New("messaging: write failed")
)
