package messaging

import (
	"github.com/benbjohnson/clock"

	"github.com/Lejla94/lxp2p/pkg/types"
)

// Observer 处理器观测钩子（由指标模块实现）
type Observer interface {
	// MessageReceived 一条消息已推送
	MessageReceived(mode types.DeliveryMode, truncated bool)

	// HandlerFailed 处理器返回错误
	HandlerFailed(mode types.DeliveryMode)
}

type nopObserver struct{}

func (nopObserver) MessageReceived(types.DeliveryMode, bool) {}
func (nopObserver) HandlerFailed(types.DeliveryMode)         {}

// Option 处理器选项
type Option func(*Handlers)

// WithMaxMessageSize 设置负载上限
func WithMaxMessageSize(n int) Option {
	return func(h *Handlers) {
		if n > 0 {
			h.maxSize = n
		}
	}
}

// WithClock 设置时钟（ReceivedAt）
func WithClock(c clock.Clock) Option {
	return func(h *Handlers) {
		if c != nil {
			h.clock = c
		}
	}
}

// WithObserver 设置观测钩子
func WithObserver(o Observer) Option {
	return func(h *Handlers) {
		if o != nil {
			h.observer = o
		}
	}
}
