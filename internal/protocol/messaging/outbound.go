package messaging

import (
	"fmt"

	"github.com/Lejla94/lxp2p/pkg/interfaces"
)

// maxAckSize 确认文本上限
const maxAckSize = 4 << 10

// WriteMessage 写入完整负载并结束发送（FIN）
//
// 超过 MaxMessageSize 的负载直接拒绝，不写入任何字节。
func WriteMessage(s interfaces.SendStream, payload []byte) error {
	if len(payload) > MaxMessageSize {
		s.CancelWrite(interfaces.StreamCodeAborted)
		return fmt.Errorf("%w: %d > %d", ErrMessageTooLarge, len(payload), MaxMessageSize)
	}
	if _, err := s.Write(payload); err != nil {
		s.CancelWrite(interfaces.StreamCodeAborted)
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	if err := s.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	return nil
}

// ReadAck 读取对端确认
func ReadAck(r interfaces.ReceiveStream) (string, error) {
	payload, _, err := ReadPayload(r, maxAckSize)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrReadFailed, err)
	}
	return DecodeContent(payload), nil
}
