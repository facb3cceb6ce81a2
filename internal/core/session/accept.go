package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/Lejla94/lxp2p/internal/core/metrics"
	"github.com/Lejla94/lxp2p/pkg/interfaces"
)

// acceptLoop 接受入站连接直到端点关闭
//
// 每个连接的握手与多路复用都在独立 goroutine 中进行，循环本身从不等待。
// 端点关闭时返回 nil，其它接受错误被包装为 ErrAcceptFailed 返回。
func (c *Client) acceptLoop(ctx context.Context) error {
	for {
		connecting, err := c.endpoint.Accept(ctx)
		if err != nil {
			if errors.Is(err, interfaces.ErrEndpointClosed) || ctx.Err() != nil || c.closed.Load() {
				logger.Debug("接受循环结束")
				return nil
			}
			return fmt.Errorf("%w: %w", ErrAcceptFailed, err)
		}

		if !c.goTask(func() { c.handleIncoming(ctx, connecting) }) {
			return nil
		}
	}
}

// handleIncoming 等待握手完成后交给 Multiplexer
func (c *Client) handleIncoming(ctx context.Context, connecting interfaces.Connecting) {
	hctx, cancel := context.WithTimeout(ctx, c.handshakeTimeout)
	conn, err := connecting.Await(hctx)
	cancel()
	if err != nil {
		logger.Debug("入站握手失败", "remote", connecting.RemoteAddr(), "error", err)
		return
	}

	mux := c.newMultiplexer(conn, metrics.DirectionInbound)
	if err := mux.establish(); err != nil {
		return
	}
	c.registry.add(mux.Peer(), conn)
	c.run(ctx, mux)
}
