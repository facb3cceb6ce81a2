package lxp2p

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/Lejla94/lxp2p/pkg/lib/log"
)

var logger = log.Logger("lxp2p")

// defaultStartTimeout 组件启动超时
const defaultStartTimeout = 30 * time.Second

// active 进程级节点槽位
//
// 取值: nil（空闲）→ initializing（占位）→ *Node（运行）→ nil（Close 后）
var active atomic.Pointer[Node]

// initializing 初始化期间的占位符
var initializing = &Node{}

// Initialize 创建并启动进程内唯一的节点
//
// dataDir 保存节点密钥与节点目录。进程内已有节点（或正在初始化）时
// 返回 ErrAlreadyInitialized；存储或端点失败时返回包装了 ErrInit 的错误，
// 槽位随即释放。
func Initialize(ctx context.Context, dataDir string, opts ...Option) (*Node, error) {
	if !active.CompareAndSwap(nil, initializing) {
		return nil, ErrAlreadyInitialized
	}

	node, err := initialize(ctx, dataDir, opts...)
	if err != nil {
		active.Store(nil)
		return nil, fmt.Errorf("%w: %w", ErrInit, err)
	}

	active.Store(node)
	id := node.ID()
	logger.Info("节点已初始化", "id", id.String(), "addr", node.LocalAddr())
	return node, nil
}

func initialize(ctx context.Context, dataDir string, opts ...Option) (*Node, error) {
	o := &options{}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	cfg, err := o.buildConfig(dataDir)
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Storage.DataDir != "" {
		if err := os.MkdirAll(cfg.Storage.DataDir, 0o700); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	node := &Node{cfg: cfg}
	node.app = buildFxApp(cfg, o, node)
	if err := node.app.Err(); err != nil {
		return nil, err
	}

	startCtx, cancel := context.WithTimeout(ctx, defaultStartTimeout)
	defer cancel()
	if err := node.app.Start(startCtx); err != nil {
		return nil, err
	}
	node.state.Store(int32(StateRunning))
	return node, nil
}
