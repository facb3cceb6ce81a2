package mocks

import (
	"context"
	"errors"
	"net"
	"sync"

	"github.com/Lejla94/lxp2p/pkg/interfaces"
	"github.com/Lejla94/lxp2p/pkg/types"
)

// ErrMockConnectionClosed 连接已被关闭
var ErrMockConnectionClosed = errors.New("mock: connection closed")

// MockConnection 内存中的连接
//
// 通过 PushUni / PushBi / PushDatagram 注入入站数据，
// Close 或 CloseWithError 会使所有 Accept/Receive 调用返回错误。
type MockConnection struct {
	PeerID  types.NodeID
	HasPeer bool
	Addr    net.Addr

	uni       chan interfaces.ReceiveStream
	bi        chan interfaces.BiStream
	datagrams chan []byte
	done      chan struct{}
	closeOnce sync.Once

	mu            sync.Mutex
	closeCode     uint64
	closeReason   string
	closeCalls    int
	sentDatagrams [][]byte
	openedUni     []*MockSendStream
	openedBi      []*MockBiStream

	// 可覆盖的方法
	OpenUniStreamFunc func(ctx context.Context) (interfaces.SendStream, error)
	OpenBiStreamFunc  func(ctx context.Context) (interfaces.BiStream, error)
	SendDatagramFunc  func(data []byte) error

	// BiReply 默认打开的双向流上预置的应答数据
	BiReply []byte
}

// NewMockConnection 创建带身份的连接
func NewMockConnection(peer types.NodeID, addr string) *MockConnection {
	c := newMockConnection()
	c.PeerID = peer
	c.HasPeer = true
	if udp, err := net.ResolveUDPAddr("udp", addr); err == nil {
		c.Addr = udp
	}
	return c
}

// NewAnonymousConnection 创建无法确认对端身份的连接
func NewAnonymousConnection() *MockConnection {
	c := newMockConnection()
	c.Addr = &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 1}
	return c
}

func newMockConnection() *MockConnection {
	return &MockConnection{
		uni:       make(chan interfaces.ReceiveStream, 1024),
		bi:        make(chan interfaces.BiStream, 1024),
		datagrams: make(chan []byte, 1024),
		done:      make(chan struct{}),
	}
}

// PushUni 注入一个入站单向流
func (c *MockConnection) PushUni(s interfaces.ReceiveStream) {
	c.uni <- s
}

// PushBi 注入一个入站双向流
func (c *MockConnection) PushBi(s interfaces.BiStream) {
	c.bi <- s
}

// PushDatagram 注入一个入站数据报
func (c *MockConnection) PushDatagram(data []byte) {
	c.datagrams <- data
}

// RemotePeer 返回对端节点 ID
func (c *MockConnection) RemotePeer() (types.NodeID, bool) {
	return c.PeerID, c.HasPeer
}

// RemoteAddr 返回对端地址
func (c *MockConnection) RemoteAddr() net.Addr {
	return c.Addr
}

// AcceptUniStream 等待注入的单向流
func (c *MockConnection) AcceptUniStream(ctx context.Context) (interfaces.ReceiveStream, error) {
	select {
	case s := <-c.uni:
		return s, nil
	case <-c.done:
		return nil, ErrMockConnectionClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// AcceptBiStream 等待注入的双向流
func (c *MockConnection) AcceptBiStream(ctx context.Context) (interfaces.BiStream, error) {
	select {
	case s := <-c.bi:
		return s, nil
	case <-c.done:
		return nil, ErrMockConnectionClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ReceiveDatagram 等待注入的数据报
func (c *MockConnection) ReceiveDatagram(ctx context.Context) ([]byte, error) {
	select {
	case d := <-c.datagrams:
		return d, nil
	case <-c.done:
		return nil, ErrMockConnectionClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// OpenUniStream 打开单向流（默认返回记录数据的 MockSendStream）
func (c *MockConnection) OpenUniStream(ctx context.Context) (interfaces.SendStream, error) {
	if c.OpenUniStreamFunc != nil {
		return c.OpenUniStreamFunc(ctx)
	}
	if c.isClosed() {
		return nil, ErrMockConnectionClosed
	}
	s := NewMockSendStream()
	c.mu.Lock()
	c.openedUni = append(c.openedUni, s)
	c.mu.Unlock()
	return s, nil
}

// OpenBiStream 打开双向流（默认应答 BiReply）
func (c *MockConnection) OpenBiStream(ctx context.Context) (interfaces.BiStream, error) {
	if c.OpenBiStreamFunc != nil {
		return c.OpenBiStreamFunc(ctx)
	}
	if c.isClosed() {
		return nil, ErrMockConnectionClosed
	}
	s := NewMockBiStream(c.BiReply)
	c.mu.Lock()
	c.openedBi = append(c.openedBi, s)
	c.mu.Unlock()
	return s, nil
}

// SendDatagram 记录发送的数据报
func (c *MockConnection) SendDatagram(data []byte) error {
	if c.SendDatagramFunc != nil {
		return c.SendDatagramFunc(data)
	}
	if c.isClosed() {
		return ErrMockConnectionClosed
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sentDatagrams = append(c.sentDatagrams, append([]byte(nil), data...))
	return nil
}

// Done 连接关闭时关闭的通道
func (c *MockConnection) Done() <-chan struct{} {
	return c.done
}

// CloseWithError 关闭连接并记录错误码
func (c *MockConnection) CloseWithError(code uint64, reason string) error {
	c.mu.Lock()
	c.closeCalls++
	if c.closeCalls == 1 {
		c.closeCode = code
		c.closeReason = reason
	}
	c.mu.Unlock()

	c.closeOnce.Do(func() { close(c.done) })
	return nil
}

// Close 模拟对端关闭
func (c *MockConnection) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *MockConnection) isClosed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// IsClosed 返回连接是否已关闭
func (c *MockConnection) IsClosed() bool {
	return c.isClosed()
}

// CloseCode 返回第一次 CloseWithError 的错误码
func (c *MockConnection) CloseCode() (uint64, string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeCode, c.closeReason, c.closeCalls > 0
}

// SentDatagrams 返回已发送的数据报
func (c *MockConnection) SentDatagrams() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.sentDatagrams...)
}

// OpenedUniStreams 返回已打开的单向流
func (c *MockConnection) OpenedUniStreams() []*MockSendStream {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*MockSendStream(nil), c.openedUni...)
}

// OpenedBiStreams 返回已打开的双向流
func (c *MockConnection) OpenedBiStreams() []*MockBiStream {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*MockBiStream(nil), c.openedBi...)
}

var _ interfaces.Connection = (*MockConnection)(nil)
