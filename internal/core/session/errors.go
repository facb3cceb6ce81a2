package session

import "errors"

var (
	// ErrProtocolViolation 对端无法提供可验证的身份
	ErrProtocolViolation = errors.New("session: protocol violation")

	// ErrAlreadyStarted Start 已被调用
	ErrAlreadyStarted = errors.New("session: already started")

	// ErrClientClosed 客户端已关闭
	ErrClientClosed = errors.New("session: client closed")

	// ErrUnreachable 无法与节点建立连接
	ErrUnreachable = errors.New("session: peer unreachable")

	// ErrNoAddress 没有可用的地址提示
	ErrNoAddress = errors.New("session: no address for peer")

	// ErrDialToSelf 尝试连接自己
	ErrDialToSelf = errors.New("session: dial to self")

	// ErrStreamFailure 打开或写入流失败
	ErrStreamFailure = errors.New("session: stream failure")

	// ErrAcceptFailed 接受入站连接失败（接受循环终止）
	ErrAcceptFailed = errors.New("session: accept failed")
)
