package mocks

import (
	"sync"
	"time"

	"github.com/Lejla94/lxp2p/pkg/interfaces"
	"github.com/Lejla94/lxp2p/pkg/types"
)

// RecordingSink 记录所有事件的接收方
type RecordingSink struct {
	mu     sync.Mutex
	events []types.Event
	notify chan struct{}
}

// NewRecordingSink 创建接收方
func NewRecordingSink() *RecordingSink {
	return &RecordingSink{notify: make(chan struct{}, 1)}
}

// Emit 记录事件
func (s *RecordingSink) Emit(event types.Event) {
	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Events 返回所有事件的副本
func (s *RecordingSink) Events() []types.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.Event(nil), s.events...)
}

// Messages 返回消息事件
func (s *RecordingSink) Messages() []types.MessageEvent {
	var out []types.MessageEvent
	for _, ev := range s.Events() {
		if m, ok := ev.(types.MessageEvent); ok {
			out = append(out, m)
		}
	}
	return out
}

// Connections 返回连接事件
func (s *RecordingSink) Connections() []types.ConnectionEvent {
	var out []types.ConnectionEvent
	for _, ev := range s.Events() {
		if c, ok := ev.(types.ConnectionEvent); ok {
			out = append(out, c)
		}
	}
	return out
}

// Errors 返回错误事件
func (s *RecordingSink) Errors() []types.ErrorEvent {
	var out []types.ErrorEvent
	for _, ev := range s.Events() {
		if e, ok := ev.(types.ErrorEvent); ok {
			out = append(out, e)
		}
	}
	return out
}

// WaitFor 等待 cond 成立，超时返回 false
func (s *RecordingSink) WaitFor(cond func(events []types.Event) bool, timeout time.Duration) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(10 * time.Millisecond)
	defer tick.Stop()

	for {
		if cond(s.Events()) {
			return true
		}
		select {
		case <-s.notify:
		case <-tick.C:
		case <-deadline.C:
			return cond(s.Events())
		}
	}
}

var _ interfaces.EventSink = (*RecordingSink)(nil)
