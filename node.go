package lxp2p

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/Lejla94/lxp2p/config"
	"github.com/Lejla94/lxp2p/internal/core/eventbus"
	"github.com/Lejla94/lxp2p/internal/core/metrics"
	"github.com/Lejla94/lxp2p/internal/core/session"
	pkgif "github.com/Lejla94/lxp2p/pkg/interfaces"
	"github.com/Lejla94/lxp2p/pkg/types"
)

// ============================================================================
//                              节点状态
// ============================================================================

// State 节点状态
type State int32

const (
	// StateInitializing 正在初始化
	StateInitializing State = iota
	// StateRunning 运行中
	StateRunning
	// StateClosed 已关闭
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateRunning:
		return "running"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// 事件订阅（转出 eventbus 类型，调用方无需导入内部包）
type (
	// Subscription 事件订阅
	Subscription = eventbus.Subscription
	// SubscriptionOpt 订阅选项
	SubscriptionOpt = eventbus.SubscriptionOpt
)

var (
	// BufSize 设置订阅缓冲区大小
	BufSize = eventbus.BufSize
	// Kinds 按事件类型过滤
	Kinds = eventbus.Kinds
)

// ============================================================================
//                              Node
// ============================================================================

// Node 运行中的节点句柄
type Node struct {
	app *fx.App
	cfg *config.Config

	client  *session.Client
	bus     *eventbus.Bus
	dir     pkgif.PeerDirectory
	metrics *metrics.Metrics

	state     atomic.Int32
	closeOnce sync.Once
	closeErr  error
}

// ID 返回本地节点 ID
func (n *Node) ID() types.NodeID {
	id, _ := n.client.Identity()
	return id
}

// Identity 返回本地节点 ID 与公钥
func (n *Node) Identity() (types.NodeID, []byte) {
	return n.client.Identity()
}

// LocalAddr 返回端点实际绑定的地址
func (n *Node) LocalAddr() net.Addr {
	return n.client.LocalAddr()
}

// State 返回节点状态
func (n *Node) State() State {
	return State(n.state.Load())
}

// Config 返回节点生效的配置
func (n *Node) Config() *config.Config {
	return n.cfg
}

// Peer 查询节点目录中的记录
func (n *Node) Peer(id types.NodeID) (*types.PeerRecord, bool, error) {
	return n.dir.Get(id)
}

// Subscribe 订阅节点事件
//
// 订阅在节点关闭时自动结束。
func (n *Node) Subscribe(opts ...SubscriptionOpt) *Subscription {
	return n.bus.Subscribe(opts...)
}

// MetricsRegistry 返回指标注册表（未启用指标时为 nil）
func (n *Node) MetricsRegistry() *prometheus.Registry {
	return n.metrics.Registry()
}

// Start 接受入站连接，直到节点关闭
//
// 事件同时推送给订阅者与 sink（可为 nil）。只能调用一次。
func (n *Node) Start(sink pkgif.EventSink) error {
	if n.State() == StateClosed {
		return ErrNodeClosed
	}
	var out pkgif.EventSink = n.bus
	if sink != nil {
		out = pkgif.EventSinkFunc(func(ev types.Event) {
			n.bus.Emit(ev)
			sink.Emit(ev)
		})
	}
	err := n.client.Start(out)
	if errors.Is(err, session.ErrClientClosed) {
		return ErrNodeClosed
	}
	return err
}

// Send 通过单向流发送消息
func (n *Node) Send(ctx context.Context, peer types.NodeID, content string) error {
	return n.translate(n.client.Send(ctx, peer, content))
}

// Request 通过双向流发送消息并返回对端确认
func (n *Node) Request(ctx context.Context, peer types.NodeID, content string) (string, error) {
	ack, err := n.client.Request(ctx, peer, content)
	return ack, n.translate(err)
}

// SendDatagram 以不可靠数据报发送消息
func (n *Node) SendDatagram(ctx context.Context, peer types.NodeID, content string) error {
	return n.translate(n.client.SendDatagram(ctx, peer, content))
}

// Connect 记录地址提示并建立连接
func (n *Node) Connect(ctx context.Context, peer types.NodeID, addr string) error {
	return n.translate(n.client.Connect(ctx, peer, addr))
}

func (n *Node) translate(err error) error {
	if errors.Is(err, session.ErrClientClosed) {
		return ErrNodeClosed
	}
	return err
}

// Close 关闭节点并释放进程级槽位
//
// 幂等。关闭顺序：会话（断开全部连接）→ 端点 → 事件总线 → 存储。
func (n *Node) Close() error {
	n.closeOnce.Do(func() {
		n.state.Store(int32(StateClosed))

		timeout := n.cfg.Session.ShutdownTimeout.Duration() + 5*time.Second
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		n.closeErr = n.app.Stop(ctx)

		active.CompareAndSwap(n, nil)
		logger.Info("节点已关闭")
	})
	return n.closeErr
}
