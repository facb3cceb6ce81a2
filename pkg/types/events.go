// Package types 定义 lxp2p 公共类型
//
// 本文件定义事件相关类型。
package types

import "time"

// ============================================================================
//                              枚举
// ============================================================================

// DeliveryMode 消息投递模式
type DeliveryMode int

const (
	// DeliveryUni 单向流（发后即忘）
	DeliveryUni DeliveryMode = iota
	// DeliveryBi 双向流（请求 / 确认）
	DeliveryBi
	// DeliveryDatagram 不可靠数据报
	DeliveryDatagram
)

// String 返回投递模式字符串
func (m DeliveryMode) String() string {
	switch m {
	case DeliveryUni:
		return "uni"
	case DeliveryBi:
		return "bi"
	case DeliveryDatagram:
		return "datagram"
	default:
		return "unknown"
	}
}

// ConnectionStatus 连接状态
type ConnectionStatus int

const (
	// StatusConnected 已连接
	StatusConnected ConnectionStatus = iota
	// StatusDisconnected 已断开
	StatusDisconnected
)

// String 返回连接状态字符串
func (s ConnectionStatus) String() string {
	switch s {
	case StatusConnected:
		return "connected"
	case StatusDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// MarshalText 实现 encoding.TextMarshaler
func (s ConnectionStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ============================================================================
//                              Event - 事件
// ============================================================================

// EventKind 事件类型
type EventKind string

const (
	// EventKindConnection 连接事件
	EventKindConnection EventKind = "connection"
	// EventKindMessage 消息事件
	EventKindMessage EventKind = "message"
	// EventKindError 错误事件
	EventKindError EventKind = "error"
)

// Event 推送给事件接收方的事件
//
// Event 是封闭的变体类型，只有 ConnectionEvent、MessageEvent、
// ErrorEvent 三种实现。使用 type switch 区分：
//
//	switch e := ev.(type) {
//	case types.ConnectionEvent:
//	case types.MessageEvent:
//	case types.ErrorEvent:
//	}
type Event interface {
	// Kind 返回事件类型
	Kind() EventKind

	sealed()
}

// ConnectionEvent 连接生命周期事件
type ConnectionEvent struct {
	PeerID NodeID           `json:"peer_id"`
	Status ConnectionStatus `json:"status"`
}

// Kind 返回事件类型
func (ConnectionEvent) Kind() EventKind { return EventKindConnection }

func (ConnectionEvent) sealed() {}

// MessageEvent 入站消息事件
type MessageEvent struct {
	// ID 本地生成的消息 ID（uuid）
	ID string `json:"id"`

	// Sender 发送方节点 ID
	Sender NodeID `json:"sender"`

	// Content 消息文本（非法 UTF-8 已替换为 U+FFFD）
	Content string `json:"content"`

	// Mode 投递模式
	Mode DeliveryMode `json:"mode"`

	// Truncated 负载超过上限被截断
	Truncated bool `json:"truncated,omitempty"`

	// ReceivedAt 接收时间
	ReceivedAt time.Time `json:"received_at"`
}

// Kind 返回事件类型
func (MessageEvent) Kind() EventKind { return EventKindMessage }

func (MessageEvent) sealed() {}

// ErrorEvent 错误事件
type ErrorEvent struct {
	Description string `json:"description"`
}

// Kind 返回事件类型
func (ErrorEvent) Kind() EventKind { return EventKindError }

func (ErrorEvent) sealed() {}
