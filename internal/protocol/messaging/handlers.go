package messaging

import (
	"context"
	"errors"
	"fmt"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"

	"github.com/Lejla94/lxp2p/internal/core/peerstore"
	"github.com/Lejla94/lxp2p/pkg/interfaces"
	"github.com/Lejla94/lxp2p/pkg/lib/log"
	"github.com/Lejla94/lxp2p/pkg/types"
)

var logger = log.Logger("protocol/messaging")

// Handlers 入站流处理器
//
// 一个 Handlers 被某个客户端的所有连接共享，方法并发安全。
type Handlers struct {
	localID  types.NodeID
	dir      interfaces.PeerDirectory
	sink     interfaces.EventSink
	maxSize  int
	clock    clock.Clock
	observer Observer
}

// NewHandlers 创建处理器
func NewHandlers(localID types.NodeID, dir interfaces.PeerDirectory, sink interfaces.EventSink, opts ...Option) *Handlers {
	if sink == nil {
		sink = interfaces.NopSink
	}
	h := &Handlers{
		localID:  localID,
		dir:      dir,
		sink:     sink,
		maxSize:  MaxMessageSize,
		clock:    clock.New(),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ============================================================================
//                              单向流
// ============================================================================

// HandleUni 处理单向流消息
func (h *Handlers) HandleUni(ctx context.Context, peer types.NodeID, s interfaces.ReceiveStream) error {
	payload, truncated, err := ReadPayload(s, h.maxSize)
	if err != nil {
		h.observer.HandlerFailed(types.DeliveryUni)
		return fmt.Errorf("%w: %w", ErrReadFailed, err)
	}

	h.deliver(ctx, peer, payload, types.DeliveryUni, truncated)
	if err := h.record(peer); err != nil {
		h.observer.HandlerFailed(types.DeliveryUni)
		return err
	}
	return nil
}

// ============================================================================
//                              双向流
// ============================================================================

// HandleBi 处理请求并回复确认
//
// 目录更新在确认之前完成；确认失败返回 ErrAckFailed，接收仍被记录。
func (h *Handlers) HandleBi(ctx context.Context, peer types.NodeID, s interfaces.BiStream) error {
	payload, truncated, err := ReadPayload(s, h.maxSize)
	if err != nil {
		s.CancelWrite(interfaces.StreamCodeAborted)
		h.observer.HandlerFailed(types.DeliveryBi)
		return fmt.Errorf("%w: %w", ErrReadFailed, err)
	}

	h.deliver(ctx, peer, payload, types.DeliveryBi, truncated)
	dirErr := h.record(peer)

	var ackErr error
	if err := h.writeAck(s); err != nil {
		ackErr = fmt.Errorf("%w: %w", ErrAckFailed, err)
		logger.DebugContext(ctx, "写入确认失败", "peer", peer.ShortString(), "error", err)
	}

	if err := multierr.Combine(dirErr, ackErr); err != nil {
		h.observer.HandlerFailed(types.DeliveryBi)
		return err
	}
	return nil
}

func (h *Handlers) writeAck(s interfaces.SendStream) error {
	if _, err := s.Write([]byte(AckText(h.localID))); err != nil {
		s.CancelWrite(interfaces.StreamCodeAborted)
		return err
	}
	return s.Close()
}

// ============================================================================
//                              数据报
// ============================================================================

// HandleDatagram 处理一个数据报
func (h *Handlers) HandleDatagram(ctx context.Context, peer types.NodeID, data []byte) error {
	truncated := false
	if len(data) > h.maxSize {
		data = data[:h.maxSize]
		truncated = true
	}

	h.deliver(ctx, peer, data, types.DeliveryDatagram, truncated)
	if err := h.record(peer); err != nil {
		h.observer.HandlerFailed(types.DeliveryDatagram)
		return err
	}
	return nil
}

// ============================================================================
//                              内部
// ============================================================================

func (h *Handlers) deliver(ctx context.Context, peer types.NodeID, payload []byte, mode types.DeliveryMode, truncated bool) {
	msg := newInboundMessage(peer, payload, mode, truncated, h.clock.Now())
	if truncated {
		logger.WarnContext(ctx, "消息超过上限已截断",
			"peer", peer.ShortString(),
			"mode", mode.String(),
			"limit", h.maxSize)
	}
	h.sink.Emit(msg.Event())
	h.observer.MessageReceived(mode, truncated)
}

// record 更新目录：消息计数 +1 并推进 last_seen
func (h *Handlers) record(peer types.NodeID) error {
	if h.dir == nil {
		return nil
	}
	err := h.dir.IncrementMessageCount(peer, 1)
	if err == nil {
		return nil
	}
	if !errors.Is(err, peerstore.ErrDirectory) {
		err = fmt.Errorf("%w: %w", peerstore.ErrDirectory, err)
	}
	logger.Warn("更新节点目录失败", "peer", peer.ShortString(), "error", err)
	return err
}
