package session

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/sync/singleflight"

	"github.com/Lejla94/lxp2p/config"
	"github.com/Lejla94/lxp2p/internal/core/metrics"
	"github.com/Lejla94/lxp2p/internal/protocol/messaging"
	"github.com/Lejla94/lxp2p/pkg/interfaces"
	"github.com/Lejla94/lxp2p/pkg/types"
)

// ============================================================================
//                              Client
// ============================================================================

// Client 会话客户端
//
// New 完成初始化（端点已绑定、目录已打开），但在 Start 之前不接受入站连接。
// 出站方法（Send/Request/SendDatagram/Connect）在 Start 之前即可使用。
type Client struct {
	endpoint         interfaces.Endpoint
	dir              interfaces.PeerDirectory
	metrics          *metrics.Metrics
	cfg              config.SessionConfig
	handshakeTimeout time.Duration

	sink     sinkRef
	handlers *messaging.Handlers
	registry *registry
	dials    singleflight.Group

	hintsMu sync.RWMutex
	hints   map[types.NodeID][]string

	ctx    context.Context
	cancel context.CancelFunc

	started atomic.Bool
	closed  atomic.Bool

	tasksMu sync.Mutex
	tasks   sync.WaitGroup

	closeOnce sync.Once
	closeErr  error
}

// Option 客户端选项
type Option func(*options)

type options struct {
	metrics *metrics.Metrics
	clock   clock.Clock
}

// WithMetrics 设置指标
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithClock 设置消息时间戳使用的时钟
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// New 创建会话客户端
func New(ep interfaces.Endpoint, dir interfaces.PeerDirectory, cfg *config.Config, opts ...Option) (*Client, error) {
	if ep == nil {
		return nil, errors.New("session: endpoint is required")
	}
	if dir == nil {
		return nil, errors.New("session: peer directory is required")
	}
	if cfg == nil {
		cfg = config.NewConfig()
	}
	if err := cfg.Session.Validate(); err != nil {
		return nil, fmt.Errorf("session: invalid config: %w", err)
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	reg, err := newRegistry(cfg.Session.MaxConnections)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		endpoint:         ep,
		dir:              dir,
		metrics:          o.metrics,
		cfg:              cfg.Session,
		handshakeTimeout: cfg.Transport.HandshakeTimeout.Duration(),
		registry:         reg,
		hints:            make(map[types.NodeID][]string),
		ctx:              ctx,
		cancel:           cancel,
	}
	if c.handshakeTimeout <= 0 {
		c.handshakeTimeout = 10 * time.Second
	}

	handlerOpts := []messaging.Option{messaging.WithObserver(o.metrics)}
	if o.clock != nil {
		handlerOpts = append(handlerOpts, messaging.WithClock(o.clock))
	}
	c.handlers = messaging.NewHandlers(ep.ID(), dir, &c.sink, handlerOpts...)

	logger.Debug("会话客户端已初始化", "id", ep.ID().ShortString(), "addr", ep.LocalAddr())
	return c, nil
}

// Identity 返回本地节点 ID 与原始公钥
func (c *Client) Identity() (types.NodeID, []byte) {
	return c.endpoint.ID(), c.endpoint.PublicKey()
}

// LocalAddr 返回监听地址
func (c *Client) LocalAddr() net.Addr {
	return c.endpoint.LocalAddr()
}

// Start 运行接受循环，直到端点关闭
//
// 致命的接受错误以 ErrorEvent 推送一次并返回。
func (c *Client) Start(sink interfaces.EventSink) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	if !c.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	if sink == nil {
		sink = interfaces.NopSink
	}
	c.sink.set(sink)

	logger.Info("开始接受连接", "id", c.endpoint.ID().ShortString(), "addr", c.endpoint.LocalAddr())
	if err := c.acceptLoop(c.ctx); err != nil {
		logger.Error("接受循环异常终止", "error", err)
		sink.Emit(types.ErrorEvent{Description: err.Error()})
		return err
	}
	return nil
}

// ============================================================================
//                              发送
// ============================================================================

// Send 通过单向流发送消息（发后即忘）
func (c *Client) Send(ctx context.Context, peer types.NodeID, content string) error {
	if err := c.checkOutbound(peer, content); err != nil {
		return err
	}

	conn, err := c.connection(ctx, peer)
	if err != nil {
		return err
	}

	s, err := conn.OpenUniStream(ctx)
	if err != nil {
		c.registry.remove(peer, conn)
		return fmt.Errorf("%w: open uni stream: %w", ErrStreamFailure, err)
	}
	if err := messaging.WriteMessage(s, []byte(content)); err != nil {
		c.registry.remove(peer, conn)
		return fmt.Errorf("%w: %w", ErrStreamFailure, err)
	}

	c.metrics.MessageSent(types.DeliveryUni)
	logger.Debug("消息已发送", "peer", peer.ShortString(), "size", len(content))
	return nil
}

// Request 通过双向流发送消息并等待确认
func (c *Client) Request(ctx context.Context, peer types.NodeID, content string) (string, error) {
	if err := c.checkOutbound(peer, content); err != nil {
		return "", err
	}

	conn, err := c.connection(ctx, peer)
	if err != nil {
		return "", err
	}

	s, err := conn.OpenBiStream(ctx)
	if err != nil {
		c.registry.remove(peer, conn)
		return "", fmt.Errorf("%w: open bi stream: %w", ErrStreamFailure, err)
	}
	if err := messaging.WriteMessage(s, []byte(content)); err != nil {
		c.registry.remove(peer, conn)
		return "", fmt.Errorf("%w: %w", ErrStreamFailure, err)
	}
	c.metrics.MessageSent(types.DeliveryBi)

	ack, err := messaging.ReadAck(s)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrStreamFailure, err)
	}
	return ack, nil
}

// SendDatagram 发送不可靠数据报
func (c *Client) SendDatagram(ctx context.Context, peer types.NodeID, content string) error {
	if err := c.checkOutbound(peer, content); err != nil {
		return err
	}

	conn, err := c.connection(ctx, peer)
	if err != nil {
		return err
	}
	if err := conn.SendDatagram([]byte(content)); err != nil {
		if isDone(conn) {
			c.registry.remove(peer, conn)
		}
		return fmt.Errorf("%w: send datagram: %w", ErrStreamFailure, err)
	}

	c.metrics.MessageSent(types.DeliveryDatagram)
	return nil
}

// Connect 登记地址提示并建立到节点的连接
//
// 已有活跃连接时直接复用。出站连接同样运行 Multiplexer，
// 其 connected/disconnected 事件推送给本地接收方。
func (c *Client) Connect(ctx context.Context, peer types.NodeID, addr string) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	if peer == c.endpoint.ID() {
		return fmt.Errorf("%w: %w", ErrUnreachable, ErrDialToSelf)
	}
	if err := types.ValidateHostPort(addr); err != nil {
		return fmt.Errorf("%w: %q", err, addr)
	}

	c.hintsMu.Lock()
	c.hints[peer] = []string{addr}
	c.hintsMu.Unlock()

	_, err := c.connection(ctx, peer)
	return err
}

func (c *Client) checkOutbound(peer types.NodeID, content string) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	if peer == c.endpoint.ID() {
		return fmt.Errorf("%w: %w", ErrUnreachable, ErrDialToSelf)
	}
	if len(content) > messaging.MaxMessageSize {
		return fmt.Errorf("%w: %d bytes", messaging.ErrMessageTooLarge, len(content))
	}
	return nil
}

// ============================================================================
//                              连接管理
// ============================================================================

// connection 返回到节点的活跃连接，必要时拨号
//
// 同一节点的并发拨号被合并为一次。
func (c *Client) connection(ctx context.Context, peer types.NodeID) (interfaces.Connection, error) {
	if conn, ok := c.registry.get(peer); ok {
		return conn, nil
	}

	v, err, _ := c.dials.Do(peer.String(), func() (any, error) {
		if conn, ok := c.registry.get(peer); ok {
			return conn, nil
		}

		addrs := c.addrsFor(peer)
		if len(addrs) == 0 {
			return nil, ErrNoAddress
		}

		logger.Debug("拨号", "peer", peer.ShortString(), "addrs", addrs)
		conn, err := c.endpoint.Connect(ctx, peer, addrs)
		if err != nil {
			return nil, err
		}
		if err := c.attach(conn, peer); err != nil {
			return nil, err
		}
		return conn, nil
	})
	if err != nil {
		if errors.Is(err, ErrClientClosed) {
			return nil, err
		}
		logger.Debug("无法连接节点", "peer", peer.ShortString(), "error", err)
		return nil, fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	return v.(interfaces.Connection), nil
}

// addrsFor 返回节点的候选地址：显式登记的优先，其次为目录中的地址提示
func (c *Client) addrsFor(peer types.NodeID) []string {
	var addrs []string

	c.hintsMu.RLock()
	addrs = append(addrs, c.hints[peer]...)
	c.hintsMu.RUnlock()

	rec, ok, err := c.dir.Get(peer)
	if err != nil {
		logger.Debug("读取节点目录失败", "peer", peer.ShortString(), "error", err)
	}
	if ok && rec.HasDirectAddress() {
		dup := false
		for _, a := range addrs {
			if a == rec.AddressHint {
				dup = true
				break
			}
		}
		if !dup {
			addrs = append(addrs, rec.AddressHint)
		}
	}
	return addrs
}

// attach 为出站连接确认身份、登记并启动 Multiplexer
func (c *Client) attach(conn interfaces.Connection, expected types.NodeID) error {
	if got, ok := conn.RemotePeer(); ok && got != expected {
		_ = conn.CloseWithError(interfaces.CloseCodeIdentityMismatch, "peer identity mismatch")
		return fmt.Errorf("%w: got %s", ErrProtocolViolation, got.ShortString())
	}

	mux := c.newMultiplexer(conn, metrics.DirectionOutbound)
	if err := mux.establish(); err != nil {
		return err
	}

	c.registry.add(expected, conn)
	if !c.goTask(func() { c.run(c.ctx, mux) }) {
		c.registry.remove(expected, conn)
		mux.close(interfaces.CloseCodeShutdown, "client closed")
		return ErrClientClosed
	}
	return nil
}

func (c *Client) newMultiplexer(conn interfaces.Connection, direction metrics.Direction) *Multiplexer {
	return newMultiplexer(conn, muxDeps{
		handlers:      c.handlers,
		dir:           c.dir,
		sink:          &c.sink,
		metrics:       c.metrics,
		datagramQueue: c.cfg.DatagramQueueSize,
	}, direction)
}

// run 多路复用直到关闭，然后等待已派发的处理器
func (c *Client) run(ctx context.Context, mux *Multiplexer) {
	_ = mux.serve(ctx)
	c.registry.remove(mux.Peer(), mux.conn)
	_ = mux.Wait(context.Background())
}

// goTask 启动受监管的 goroutine，客户端关闭后返回 false
func (c *Client) goTask(fn func()) bool {
	c.tasksMu.Lock()
	defer c.tasksMu.Unlock()

	if c.closed.Load() {
		return false
	}
	c.tasks.Add(1)
	go func() {
		defer c.tasks.Done()
		fn()
	}()
	return true
}

// ============================================================================
//                              关闭
// ============================================================================

// Close 停止接受、关闭所有连接并等待受监管的任务结束
//
// 可多次调用。
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.tasksMu.Lock()
		c.closed.Store(true)
		c.tasksMu.Unlock()

		c.cancel()
		c.registry.closeAll(interfaces.CloseCodeShutdown, "client shutting down")
		c.closeErr = c.endpoint.Close()

		if err := c.waitTasks(c.cfg.ShutdownTimeout.Duration()); err != nil {
			logger.Warn("等待会话任务超时", "timeout", c.cfg.ShutdownTimeout.Duration())
		}
		logger.Info("会话客户端已关闭", "id", c.endpoint.ID().ShortString())
	})
	return c.closeErr
}

func (c *Client) waitTasks(timeout time.Duration) error {
	finished := make(chan struct{})
	go func() {
		c.tasks.Wait()
		close(finished)
	}()

	if timeout <= 0 {
		<-finished
		return nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-finished:
		return nil
	case <-timer.C:
		return context.DeadlineExceeded
	}
}

// ============================================================================
//                              sinkRef
// ============================================================================

// sinkRef 可替换的事件接收方，Start 之前事件被丢弃
type sinkRef struct {
	p atomic.Pointer[sinkBox]
}

type sinkBox struct {
	sink interfaces.EventSink
}

func (r *sinkRef) set(sink interfaces.EventSink) {
	r.p.Store(&sinkBox{sink: sink})
}

// Emit 实现 interfaces.EventSink
func (r *sinkRef) Emit(event types.Event) {
	if b := r.p.Load(); b != nil {
		b.sink.Emit(event)
	}
}
