package lxp2p

import (
	"errors"

	"github.com/Lejla94/lxp2p/internal/core/peerstore"
	"github.com/Lejla94/lxp2p/internal/core/session"
	"github.com/Lejla94/lxp2p/internal/protocol/messaging"
)

// 节点生命周期错误
var (
	// ErrAlreadyInitialized 进程内已有活跃节点
	ErrAlreadyInitialized = errors.New("lxp2p: already initialized")

	// ErrInit 初始化失败（存储或端点绑定）
	ErrInit = errors.New("lxp2p: initialization failed")

	// ErrNodeClosed 节点已关闭
	ErrNodeClosed = errors.New("lxp2p: node closed")
)

// 会话层错误（可用 errors.Is 判断）
var (
	ErrAlreadyStarted    = session.ErrAlreadyStarted
	ErrUnreachable       = session.ErrUnreachable
	ErrStreamFailure     = session.ErrStreamFailure
	ErrProtocolViolation = session.ErrProtocolViolation
	ErrAckFailed         = messaging.ErrAckFailed
	ErrMessageTooLarge   = messaging.ErrMessageTooLarge
	ErrDirectory         = peerstore.ErrDirectory
)
