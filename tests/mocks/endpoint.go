package mocks

import (
	"context"
	"crypto/ed25519"
	"net"
	"sync"

	"github.com/Lejla94/lxp2p/pkg/interfaces"
	"github.com/Lejla94/lxp2p/pkg/types"
)

// ============================================================================
//                              MockConnecting
// ============================================================================

// MockConnecting 握手中的入站连接
type MockConnecting struct {
	Conn interfaces.Connection
	Err  error
	Addr net.Addr

	// Block 非 nil 时 Await 等待该通道关闭
	Block chan struct{}
}

// Await 返回预置的连接或错误
func (c *MockConnecting) Await(ctx context.Context) (interfaces.Connection, error) {
	if c.Block != nil {
		select {
		case <-c.Block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if c.Err != nil {
		return nil, c.Err
	}
	return c.Conn, nil
}

// RemoteAddr 返回对端地址
func (c *MockConnecting) RemoteAddr() net.Addr {
	if c.Addr != nil {
		return c.Addr
	}
	if c.Conn != nil {
		return c.Conn.RemoteAddr()
	}
	return nil
}

var _ interfaces.Connecting = (*MockConnecting)(nil)

// ============================================================================
//                              MockEndpoint
// ============================================================================

// MockEndpoint 内存中的传输端点
//
// 入站连接通过 PushIncoming 注入；AcceptErr 非 nil 时
// 队列排空后 Accept 返回该错误。
type MockEndpoint struct {
	LocalID  types.NodeID
	LocalKey ed25519.PublicKey
	Addr     net.Addr

	incoming  chan interfaces.Connecting
	closed    chan struct{}
	closeOnce sync.Once

	mu           sync.Mutex
	acceptErr    error
	connectCalls int
	connectAddrs [][]string

	// ConnectFunc 覆盖 Connect 行为
	ConnectFunc func(ctx context.Context, peer types.NodeID, addrs []string) (interfaces.Connection, error)
}

// NewMockEndpoint 创建端点，身份由随机密钥派生
func NewMockEndpoint() *MockEndpoint {
	pub, _, _ := ed25519.GenerateKey(nil)
	return &MockEndpoint{
		LocalID:  types.NodeIDFromPublicKey(pub),
		LocalKey: pub,
		Addr:     &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 4001},
		incoming: make(chan interfaces.Connecting, 64),
		closed:   make(chan struct{}),
	}
}

// PushIncoming 注入入站连接
func (e *MockEndpoint) PushIncoming(c interfaces.Connecting) {
	e.incoming <- c
}

// FailAccept 使后续 Accept 返回 err
func (e *MockEndpoint) FailAccept(err error) {
	e.mu.Lock()
	e.acceptErr = err
	e.mu.Unlock()
	e.incoming <- nil
}

// ID 返回本地节点 ID
func (e *MockEndpoint) ID() types.NodeID { return e.LocalID }

// PublicKey 返回本地公钥
func (e *MockEndpoint) PublicKey() []byte { return e.LocalKey }

// LocalAddr 返回监听地址
func (e *MockEndpoint) LocalAddr() net.Addr { return e.Addr }

// Accept 返回下一个注入的入站连接
func (e *MockEndpoint) Accept(ctx context.Context) (interfaces.Connecting, error) {
	select {
	case c := <-e.incoming:
		if c == nil {
			e.mu.Lock()
			err := e.acceptErr
			e.mu.Unlock()
			return nil, err
		}
		return c, nil
	case <-e.closed:
		return nil, interfaces.ErrEndpointClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Connect 拨号（默认返回 ConnectFunc 的结果）
func (e *MockEndpoint) Connect(ctx context.Context, peer types.NodeID, addrs []string) (interfaces.Connection, error) {
	e.mu.Lock()
	e.connectCalls++
	e.connectAddrs = append(e.connectAddrs, append([]string(nil), addrs...))
	e.mu.Unlock()

	select {
	case <-e.closed:
		return nil, interfaces.ErrEndpointClosed
	default:
	}
	if e.ConnectFunc != nil {
		return e.ConnectFunc(ctx, peer, addrs)
	}
	return NewMockConnection(peer, "127.0.0.1:4002"), nil
}

// ConnectCalls 返回 Connect 调用次数
func (e *MockEndpoint) ConnectCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.connectCalls
}

// ConnectAddrs 返回每次 Connect 使用的地址列表
func (e *MockEndpoint) ConnectAddrs() [][]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([][]string(nil), e.connectAddrs...)
}

// Close 关闭端点
func (e *MockEndpoint) Close() error {
	e.closeOnce.Do(func() { close(e.closed) })
	return nil
}

var _ interfaces.Endpoint = (*MockEndpoint)(nil)
