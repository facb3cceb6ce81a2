package eventbus

import (
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	pkgif "github.com/Lejla94/lxp2p/pkg/interfaces"
	"github.com/Lejla94/lxp2p/pkg/lib/log"
	"github.com/Lejla94/lxp2p/pkg/types"
)

var logger = log.Logger("core/eventbus")

// ============================================================================
// Bus 实现
// ============================================================================

// Bus 事件总线
type Bus struct {
	mu   sync.Mutex
	subs []*Subscription

	closed atomic.Bool

	// dropped 丢弃事件总数
	dropped atomic.Int64
	// warn 慢消费者警告限频
	warn rate.Sometimes
}

var _ pkgif.EventSink = (*Bus)(nil)

// NewBus 创建事件总线
func NewBus() *Bus {
	return &Bus{
		warn: rate.Sometimes{First: 1, Interval: 10 * time.Second},
	}
}

// Subscribe 订阅事件
//
// 总线关闭后返回的订阅通道已关闭。
func (b *Bus) Subscribe(opts ...SubscriptionOpt) *Subscription {
	settings := &subscriptionSettings{buffer: DefaultBufferSize}
	for _, opt := range opts {
		opt(settings)
	}

	sub := &Subscription{
		bus:   b,
		kinds: settings.kinds,
		out:   make(chan types.Event, settings.buffer),
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed.Load() {
		sub.closed.Store(true)
		sub.closeOnce.Do(func() { close(sub.out) })
		return sub
	}
	b.subs = append(b.subs, sub)
	return sub
}

// Emit 推送事件给所有匹配的订阅者，从不阻塞
func (b *Bus) Emit(event types.Event) {
	if event == nil || b.closed.Load() {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.subs {
		if !sub.accepts(event.Kind()) {
			continue
		}
		select {
		case sub.out <- event:
		default:
			dropped := b.dropped.Add(1)
			b.warn.Do(func() {
				logger.Warn("慢消费者检测",
					"dropped", dropped,
					"kind", event.Kind(),
					"reason", "subscriber buffer full")
			})
		}
	}
}

// Dropped 返回因缓冲区满而丢弃的事件数
func (b *Bus) Dropped() int64 {
	return b.dropped.Load()
}

// Close 关闭总线及所有订阅
func (b *Bus) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}

	b.mu.Lock()
	subs := b.subs
	b.subs = nil
	b.mu.Unlock()

	for _, sub := range subs {
		sub.finish()
	}
	return nil
}

// removeSub 移除订阅
func (b *Bus) removeSub(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}
