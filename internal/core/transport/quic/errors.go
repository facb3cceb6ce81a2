package quic

import "errors"

var (
	// ErrHandshake 握手失败或超时
	ErrHandshake = errors.New("quic: handshake failed")

	// ErrDialFailed 所有地址提示都无法建立连接
	ErrDialFailed = errors.New("quic: dial failed")

	// ErrNoAddress 没有可拨号的地址提示
	ErrNoAddress = errors.New("quic: no dialable address")

	// ErrPeerIDMismatch 对端身份与期望不符
	ErrPeerIDMismatch = errors.New("quic: peer id mismatch")

	// ErrNoCertificate 对端没有出示证书
	ErrNoCertificate = errors.New("quic: no peer certificate")

	// ErrUnsupportedKey 证书公钥不是 Ed25519
	ErrUnsupportedKey = errors.New("quic: unsupported certificate key")
)
