package interfaces

import "errors"

// 传输层错误
var (
	// ErrEndpointClosed 端点已关闭
	ErrEndpointClosed = errors.New("endpoint closed")

	// ErrConnectionClosed 连接已关闭
	ErrConnectionClosed = errors.New("connection closed")
)

// 应用层关闭码（连接级）
const (
	// CloseCodeNormal 正常关闭
	CloseCodeNormal uint64 = 0x0

	// CloseCodeProtocolViolation 对端违反协议（如无法确认身份）
	CloseCodeProtocolViolation uint64 = 0x1

	// CloseCodeHandshakeTimeout 握手超时
	CloseCodeHandshakeTimeout uint64 = 0x2

	// CloseCodeIdentityMismatch 对端身份与期望不符
	CloseCodeIdentityMismatch uint64 = 0x3

	// CloseCodeEvicted 连接被注册表淘汰或被替换
	CloseCodeEvicted uint64 = 0x4

	// CloseCodeShutdown 本地关闭
	CloseCodeShutdown uint64 = 0x10
)

// 应用层流错误码
const (
	// StreamCodeMessageTooLarge 消息超过上限，剩余部分被丢弃
	StreamCodeMessageTooLarge uint64 = 0x100

	// StreamCodeAborted 发送中止
	StreamCodeAborted uint64 = 0x101
)
