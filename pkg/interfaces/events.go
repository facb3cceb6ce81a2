package interfaces

import "github.com/Lejla94/lxp2p/pkg/types"

// EventSink 事件接收方
//
// 投递是发后即忘的：实现不得阻塞调用方，会话层也不会重试。
type EventSink interface {
	Emit(event types.Event)
}

// EventSinkFunc 将普通函数适配为 EventSink
type EventSinkFunc func(event types.Event)

// Emit 调用 f(event)
func (f EventSinkFunc) Emit(event types.Event) {
	f(event)
}

// NopSink 丢弃所有事件
var NopSink EventSink = EventSinkFunc(func(types.Event) {})
