package eventbus

import (
	"sync"
	"sync/atomic"

	"github.com/Lejla94/lxp2p/pkg/types"
)

// ============================================================================
// Subscription 实现
// ============================================================================

// Subscription 订阅
type Subscription struct {
	bus       *Bus
	kinds     map[types.EventKind]struct{}
	out       chan types.Event
	closeOnce sync.Once
	closed    atomic.Bool
}

// Out 返回事件通道，订阅关闭后通道关闭
func (s *Subscription) Out() <-chan types.Event {
	return s.out
}

// Close 取消订阅
//
// 可并发、多次调用。先从总线移除再关闭通道，
// 因此关闭后不会再有发送。
func (s *Subscription) Close() error {
	s.bus.removeSub(s)
	s.finish()
	return nil
}

func (s *Subscription) finish() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.out)
	})
}

func (s *Subscription) accepts(kind types.EventKind) bool {
	if s.kinds == nil {
		return true
	}
	_, ok := s.kinds[kind]
	return ok
}
