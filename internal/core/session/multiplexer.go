package session

import (
	"context"
	"net"
	"sync"

	"github.com/Lejla94/lxp2p/internal/core/metrics"
	"github.com/Lejla94/lxp2p/internal/protocol/messaging"
	"github.com/Lejla94/lxp2p/pkg/interfaces"
	"github.com/Lejla94/lxp2p/pkg/lib/log"
	"github.com/Lejla94/lxp2p/pkg/types"
)

var logger = log.Logger("core/session")

// ============================================================================
//                              State
// ============================================================================

// State 连接状态
type State int32

const (
	// StateEstablished 传输层连接已建立，尚未确认对端身份
	StateEstablished State = iota
	// StateActive 正在多路复用
	StateActive
	// StateClosed 已关闭，不再派发
	StateClosed
)

// String 返回状态字符串
func (s State) String() string {
	switch s {
	case StateEstablished:
		return "established"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ============================================================================
//                              Multiplexer
// ============================================================================

// muxDeps Multiplexer 的共享依赖
type muxDeps struct {
	handlers      *messaging.Handlers
	dir           interfaces.PeerDirectory
	sink          interfaces.EventSink
	metrics       *metrics.Metrics
	datagramQueue int
}

// Multiplexer 单个连接的多路复用器
//
// 连接在其整个生命周期内只属于一个 Multiplexer。
type Multiplexer struct {
	conn      interfaces.Connection
	deps      muxDeps
	direction metrics.Direction

	peer types.NodeID

	mu       sync.Mutex
	state    State
	handlers sync.WaitGroup

	done chan struct{}
}

func newMultiplexer(conn interfaces.Connection, deps muxDeps, direction metrics.Direction) *Multiplexer {
	if deps.sink == nil {
		deps.sink = interfaces.NopSink
	}
	if deps.datagramQueue <= 0 {
		deps.datagramQueue = 256
	}
	return &Multiplexer{
		conn:      conn,
		deps:      deps,
		direction: direction,
		state:     StateEstablished,
		done:      make(chan struct{}),
	}
}

// Peer 返回对端节点 ID（身份确认前为空）
func (m *Multiplexer) Peer() types.NodeID {
	return m.peer
}

// State 返回当前状态
func (m *Multiplexer) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Done 多路复用结束时关闭
func (m *Multiplexer) Done() <-chan struct{} {
	return m.done
}

// Run 确认身份并多路复用，直到连接关闭或 ctx 取消
//
// 返回导致关闭的原因；无法确认身份时返回 ErrProtocolViolation。
func (m *Multiplexer) Run(ctx context.Context) error {
	if err := m.establish(); err != nil {
		return err
	}
	return m.serve(ctx)
}

// Wait 等待已派发的处理器完成
//
// 仅在 Done 关闭后调用。
func (m *Multiplexer) Wait(ctx context.Context) error {
	finished := make(chan struct{})
	go func() {
		m.handlers.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// establish 确认对端身份，推送 connected 并记录地址提示
func (m *Multiplexer) establish() error {
	peer, ok := m.conn.RemotePeer()
	if !ok {
		m.mu.Lock()
		m.state = StateClosed
		m.mu.Unlock()
		close(m.done)

		logger.Warn("无法确认对端身份，关闭连接", "remote", m.conn.RemoteAddr())
		_ = m.conn.CloseWithError(interfaces.CloseCodeProtocolViolation, "peer identity unavailable")
		return ErrProtocolViolation
	}

	m.peer = peer
	m.deps.sink.Emit(types.ConnectionEvent{PeerID: peer, Status: types.StatusConnected})
	if err := m.deps.dir.Observe(peer, addressHint(m.conn.RemoteAddr())); err != nil {
		logger.Warn("记录节点失败", "peer", peer.ShortString(), "error", err)
	}
	m.deps.metrics.ConnectionOpened(m.direction)

	logger.Debug("连接已建立",
		"peer", peer.ShortString(),
		"remote", m.conn.RemoteAddr(),
		"direction", string(m.direction))
	return nil
}

// serve 运行三个来源循环，任一失败即关闭
func (m *Multiplexer) serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m.mu.Lock()
	m.state = StateActive
	m.mu.Unlock()

	errCh := make(chan error, 3)
	queue := make(chan []byte, m.deps.datagramQueue)

	m.handlers.Add(1)
	go m.datagramWorker(ctx, queue)

	go m.acceptUni(ctx, errCh)
	go m.acceptBi(ctx, errCh)
	go m.receiveDatagrams(ctx, queue, errCh)

	var cause error
	code, reason := interfaces.CloseCodeNormal, "connection closed"
	select {
	case cause = <-errCh:
	case <-m.conn.Done():
		cause = interfaces.ErrConnectionClosed
	case <-ctx.Done():
		cause = ctx.Err()
		code, reason = interfaces.CloseCodeShutdown, "shutting down"
	}

	m.close(code, reason)
	logger.Debug("连接已关闭", "peer", m.peer.ShortString(), "cause", cause)
	return cause
}

// close 进入 Closed 并推送 disconnected（仅一次）
func (m *Multiplexer) close(code uint64, reason string) {
	m.mu.Lock()
	if m.state == StateClosed {
		m.mu.Unlock()
		return
	}
	m.state = StateClosed
	m.mu.Unlock()

	_ = m.conn.CloseWithError(code, reason)
	m.deps.sink.Emit(types.ConnectionEvent{PeerID: m.peer, Status: types.StatusDisconnected})
	m.deps.metrics.ConnectionClosed()
	close(m.done)
}

// dispatch 在 Active 状态下启动处理器
func (m *Multiplexer) dispatch(ctx context.Context, mode types.DeliveryMode, fn func(ctx context.Context) error) bool {
	m.mu.Lock()
	if m.state != StateActive {
		m.mu.Unlock()
		return false
	}
	m.handlers.Add(1)
	m.mu.Unlock()

	hctx := context.WithoutCancel(ctx)
	go func() {
		defer m.handlers.Done()
		if err := fn(hctx); err != nil {
			logger.Debug("处理器失败", "peer", m.peer.ShortString(), "mode", mode.String(), "error", err)
		}
	}()
	return true
}

func (m *Multiplexer) active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == StateActive
}

// ============================================================================
//                              来源循环
// ============================================================================

func (m *Multiplexer) acceptUni(ctx context.Context, errCh chan<- error) {
	for {
		s, err := m.conn.AcceptUniStream(ctx)
		if err != nil {
			errCh <- err
			return
		}
		ok := m.dispatch(ctx, types.DeliveryUni, func(hctx context.Context) error {
			return m.deps.handlers.HandleUni(hctx, m.peer, s)
		})
		if !ok {
			s.CancelRead(interfaces.StreamCodeAborted)
			return
		}
	}
}

func (m *Multiplexer) acceptBi(ctx context.Context, errCh chan<- error) {
	for {
		s, err := m.conn.AcceptBiStream(ctx)
		if err != nil {
			errCh <- err
			return
		}
		ok := m.dispatch(ctx, types.DeliveryBi, func(hctx context.Context) error {
			return m.deps.handlers.HandleBi(hctx, m.peer, s)
		})
		if !ok {
			s.CancelRead(interfaces.StreamCodeAborted)
			s.CancelWrite(interfaces.StreamCodeAborted)
			return
		}
	}
}

// receiveDatagrams 是 queue 的唯一发送方，退出时关闭 queue
func (m *Multiplexer) receiveDatagrams(ctx context.Context, queue chan<- []byte, errCh chan<- error) {
	defer close(queue)

	for {
		data, err := m.conn.ReceiveDatagram(ctx)
		if err != nil {
			errCh <- err
			return
		}
		if !m.active() {
			return
		}
		select {
		case queue <- data:
		default:
			m.deps.metrics.DatagramDropped()
			logger.Debug("数据报队列已满，丢弃", "peer", m.peer.ShortString(), "size", len(data))
		}
	}
}

// datagramWorker 按到达顺序处理数据报
func (m *Multiplexer) datagramWorker(ctx context.Context, queue <-chan []byte) {
	defer m.handlers.Done()

	hctx := context.WithoutCancel(ctx)
	for data := range queue {
		if err := m.deps.handlers.HandleDatagram(hctx, m.peer, data); err != nil {
			logger.Debug("数据报处理失败", "peer", m.peer.ShortString(), "error", err)
		}
	}
}

// addressHint 从远端地址得到可拨号的地址提示
func addressHint(addr net.Addr) string {
	if addr == nil {
		return types.RelayAddressHint
	}
	s := addr.String()
	if types.ValidateHostPort(s) != nil {
		return types.RelayAddressHint
	}
	return s
}
