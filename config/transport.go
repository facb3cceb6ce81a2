package config

import (
	"errors"
	"fmt"
	"net"
	"time"
)

// DefaultALPN 默认应用层协议标识
const DefaultALPN = "lx-p2p"

// TransportConfig 传输层配置
//
// 节点使用单个 UDP 套接字承载 QUIC 监听与拨号，
// 因此入站连接观察到的远端地址即对端的可拨号地址。
type TransportConfig struct {
	// ListenAddr 监听地址（host:port）
	// 端口为 0 时由系统分配
	ListenAddr string `json:"listen_addr"`

	// ALPN 应用层协议标识，两端必须一致
	ALPN string `json:"alpn"`

	// HandshakeTimeout 握手超时
	HandshakeTimeout Duration `json:"handshake_timeout"`

	// DialTimeout 拨号超时（包含握手）
	DialTimeout Duration `json:"dial_timeout"`

	// MaxIdleTimeout 最大空闲时间，超时后连接被关闭
	MaxIdleTimeout Duration `json:"max_idle_timeout"`

	// KeepAlivePeriod 保活周期，必须小于 MaxIdleTimeout
	KeepAlivePeriod Duration `json:"keep_alive_period"`

	// MaxIncomingStreams 每连接最大入站双向流数
	MaxIncomingStreams int64 `json:"max_incoming_streams"`

	// MaxIncomingUniStreams 每连接最大入站单向流数
	MaxIncomingUniStreams int64 `json:"max_incoming_uni_streams"`
}

// DefaultTransportConfig 返回默认传输配置
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		ListenAddr:            "0.0.0.0:0",
		ALPN:                  DefaultALPN,
		HandshakeTimeout:      Duration(10 * time.Second),
		DialTimeout:           Duration(15 * time.Second),
		MaxIdleTimeout:        Duration(6 * time.Second),
		KeepAlivePeriod:       Duration(3 * time.Second),
		MaxIncomingStreams:    256,
		MaxIncomingUniStreams: 256,
	}
}

// Validate 验证传输配置
func (c TransportConfig) Validate() error {
	if _, _, err := net.SplitHostPort(c.ListenAddr); err != nil {
		return fmt.Errorf("invalid listen_addr %q: %w", c.ListenAddr, err)
	}
	if c.ALPN == "" {
		return errors.New("alpn cannot be empty")
	}
	if c.HandshakeTimeout <= 0 {
		return errors.New("handshake_timeout must be positive")
	}
	if c.DialTimeout <= 0 {
		return errors.New("dial_timeout must be positive")
	}
	if c.MaxIdleTimeout <= 0 {
		return errors.New("max_idle_timeout must be positive")
	}
	if c.KeepAlivePeriod <= 0 || c.KeepAlivePeriod >= c.MaxIdleTimeout {
		return errors.New("keep_alive_period must be positive and below max_idle_timeout")
	}
	if c.MaxIncomingStreams <= 0 || c.MaxIncomingUniStreams <= 0 {
		return errors.New("max incoming streams must be positive")
	}
	return nil
}
