package messaging

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Lejla94/lxp2p/pkg/types"
)

// InboundMessage 一条已解码的入站消息
//
// 仅在处理期间存在，推送给事件接收方后即丢弃。
type InboundMessage struct {
	ID         string
	Sender     types.NodeID
	Content    string
	Mode       types.DeliveryMode
	Truncated  bool
	ReceivedAt time.Time
}

// Event 转换为消息事件
func (m *InboundMessage) Event() types.MessageEvent {
	return types.MessageEvent{
		ID:         m.ID,
		Sender:     m.Sender,
		Content:    m.Content,
		Mode:       m.Mode,
		Truncated:  m.Truncated,
		ReceivedAt: m.ReceivedAt,
	}
}

// newInboundMessage 解码负载
func newInboundMessage(sender types.NodeID, payload []byte, mode types.DeliveryMode, truncated bool, now time.Time) *InboundMessage {
	return &InboundMessage{
		ID:         uuid.NewString(),
		Sender:     sender,
		Content:    DecodeContent(payload),
		Mode:       mode,
		Truncated:  truncated,
		ReceivedAt: now,
	}
}

// DecodeContent 宽松 UTF-8 解码，非法字节序列替换为 U+FFFD
func DecodeContent(payload []byte) string {
	return strings.ToValidUTF8(string(payload), "\uFFFD")
}

// AckText 返回双向流确认文本
func AckText(local types.NodeID) string {
	return "ACK from " + local.String() + "!"
}
