// Package interfaces 定义 lxp2p 公共接口
//
// 本文件定义传输端点接口，抽象底层安全传输。
package interfaces

import (
	"context"
	"net"

	"github.com/Lejla94/lxp2p/pkg/types"
)

// Endpoint 传输端点
//
// 绑定到一个身份（密钥对），接受入站连接并拨出出站连接。
// Endpoint 在客户端生命周期内被所有任务共享，实现必须并发安全。
type Endpoint interface {
	// ID 返回本地节点 ID
	ID() types.NodeID

	// PublicKey 返回本地原始公钥字节
	PublicKey() []byte

	// LocalAddr 返回实际监听地址
	LocalAddr() net.Addr

	// Accept 等待下一个入站连接
	//
	// 返回的 Connecting 需要调用 Await 完成握手。
	// 端点关闭后返回 ErrEndpointClosed（可用 errors.Is 判断）。
	Accept(ctx context.Context) (Connecting, error)

	// Connect 按地址提示拨号到指定节点
	//
	// 握手完成后校验对端身份与 peer 一致。
	Connect(ctx context.Context, peer types.NodeID, addrs []string) (Connection, error)

	// Close 关闭端点，释放所有资源
	Close() error
}

// Connecting 握手进行中的入站连接
type Connecting interface {
	// Await 等待握手完成
	Await(ctx context.Context) (Connection, error)

	// RemoteAddr 返回对端地址
	RemoteAddr() net.Addr
}

// Connection 已建立的连接
type Connection interface {
	// RemotePeer 返回对端节点 ID
	//
	// 对端未提供可验证身份时返回 false。
	RemotePeer() (types.NodeID, bool)

	// RemoteAddr 返回对端地址
	RemoteAddr() net.Addr

	// AcceptUniStream 接受对端打开的单向流
	AcceptUniStream(ctx context.Context) (ReceiveStream, error)

	// AcceptBiStream 接受对端打开的双向流
	AcceptBiStream(ctx context.Context) (BiStream, error)

	// ReceiveDatagram 接收一个数据报
	ReceiveDatagram(ctx context.Context) ([]byte, error)

	// OpenUniStream 打开单向流
	OpenUniStream(ctx context.Context) (SendStream, error)

	// OpenBiStream 打开双向流
	OpenBiStream(ctx context.Context) (BiStream, error)

	// SendDatagram 发送一个数据报
	SendDatagram(data []byte) error

	// Done 连接关闭时关闭的通道
	Done() <-chan struct{}

	// CloseWithError 以应用错误码关闭连接
	CloseWithError(code uint64, reason string) error
}

// ReceiveStream 流的接收端
type ReceiveStream interface {
	Read(p []byte) (int, error)

	// CancelRead 放弃读取剩余数据，通知对端停止发送
	CancelRead(code uint64)
}

// SendStream 流的发送端
type SendStream interface {
	Write(p []byte) (int, error)

	// Close 结束发送（FIN），不影响接收端
	Close() error

	// CancelWrite 中止发送
	CancelWrite(code uint64)
}

// BiStream 双向流
type BiStream interface {
	ReceiveStream
	SendStream
}
