package quic

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/quic-go/quic-go"

	pkgif "github.com/Lejla94/lxp2p/pkg/interfaces"
	"github.com/Lejla94/lxp2p/pkg/types"
)

// ============================================================================
//                              Connecting
// ============================================================================

// connecting 握手进行中的入站连接
type connecting struct {
	conn    *quic.Conn
	timeout time.Duration
}

// Await 等待握手完成
//
// 超时或 ctx 取消时以 CloseCodeHandshakeTimeout 关闭连接。
func (c *connecting) Await(ctx context.Context) (pkgif.Connection, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	select {
	case <-c.conn.HandshakeComplete():
		return newConnection(c.conn), nil
	case <-c.conn.Context().Done():
		return nil, fmt.Errorf("%w: %w", ErrHandshake, context.Cause(c.conn.Context()))
	case <-ctx.Done():
		_ = c.conn.CloseWithError(quic.ApplicationErrorCode(pkgif.CloseCodeHandshakeTimeout), "handshake timeout")
		return nil, fmt.Errorf("%w: %w", ErrHandshake, ctx.Err())
	}
}

// RemoteAddr 返回对端地址
func (c *connecting) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// ============================================================================
//                              Connection
// ============================================================================

// 确保实现了接口
var _ pkgif.Connection = (*Connection)(nil)

// Connection 握手完成的 QUIC 连接
type Connection struct {
	quicConn   *quic.Conn
	remotePeer types.NodeID
	hasPeer    bool
}

// newConnection 包装握手完成的连接，并从对端证书派生 NodeID
func newConnection(qc *quic.Conn) *Connection {
	c := &Connection{quicConn: qc}
	if id, err := nodeIDFromState(qc.ConnectionState().TLS); err == nil {
		c.remotePeer = id
		c.hasPeer = true
	}
	return c
}

// RemotePeer 返回对端节点 ID
func (c *Connection) RemotePeer() (types.NodeID, bool) {
	return c.remotePeer, c.hasPeer
}

// RemoteAddr 返回对端地址
func (c *Connection) RemoteAddr() net.Addr {
	return c.quicConn.RemoteAddr()
}

// AcceptUniStream 接受对端打开的单向流
func (c *Connection) AcceptUniStream(ctx context.Context) (pkgif.ReceiveStream, error) {
	s, err := c.quicConn.AcceptUniStream(ctx)
	if err != nil {
		return nil, err
	}
	return &receiveStream{s: s}, nil
}

// AcceptBiStream 接受对端打开的双向流
func (c *Connection) AcceptBiStream(ctx context.Context) (pkgif.BiStream, error) {
	s, err := c.quicConn.AcceptStream(ctx)
	if err != nil {
		return nil, err
	}
	return &stream{s: s}, nil
}

// ReceiveDatagram 接收一个数据报
func (c *Connection) ReceiveDatagram(ctx context.Context) ([]byte, error) {
	return c.quicConn.ReceiveDatagram(ctx)
}

// OpenUniStream 打开单向流
func (c *Connection) OpenUniStream(ctx context.Context) (pkgif.SendStream, error) {
	s, err := c.quicConn.OpenUniStreamSync(ctx)
	if err != nil {
		return nil, err
	}
	return &sendStream{s: s}, nil
}

// OpenBiStream 打开双向流
func (c *Connection) OpenBiStream(ctx context.Context) (pkgif.BiStream, error) {
	s, err := c.quicConn.OpenStreamSync(ctx)
	if err != nil {
		return nil, err
	}
	return &stream{s: s}, nil
}

// SendDatagram 发送一个数据报
func (c *Connection) SendDatagram(data []byte) error {
	return c.quicConn.SendDatagram(data)
}

// Done 连接关闭时关闭的通道
func (c *Connection) Done() <-chan struct{} {
	return c.quicConn.Context().Done()
}

// CloseWithError 以应用错误码关闭连接
func (c *Connection) CloseWithError(code uint64, reason string) error {
	return c.quicConn.CloseWithError(quic.ApplicationErrorCode(code), reason)
}

// QuicConn 返回底层 quic 连接
func (c *Connection) QuicConn() *quic.Conn {
	return c.quicConn
}
