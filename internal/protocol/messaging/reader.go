package messaging

import (
	"errors"
	"io"
	"sync"

	"github.com/Lejla94/lxp2p/pkg/interfaces"
)

// MaxMessageSize 单条消息负载上限
const MaxMessageSize = 1 << 20

// readChunkSize 每次读取的缓冲区大小
const readChunkSize = 32 << 10

var bufPool = sync.Pool{
	New: func() any {
		b := make([]byte, readChunkSize)
		return &b
	},
}

// ReadPayload 读取流直到 EOF 或 limit 字节
//
// 负载超过 limit 时返回前 limit 字节，truncated 为 true，
// 并以 StreamCodeMessageTooLarge 取消读取。
// 恰好 limit 字节后紧跟 EOF 不视为截断。
func ReadPayload(r interfaces.ReceiveStream, limit int) (payload []byte, truncated bool, err error) {
	if limit <= 0 {
		limit = MaxMessageSize
	}

	bufp := bufPool.Get().(*[]byte)
	defer bufPool.Put(bufp)
	buf := *bufp

	for {
		n, rerr := r.Read(buf)
		if n > 0 {
			room := limit - len(payload)
			if n > room {
				payload = append(payload, buf[:room]...)
				r.CancelRead(interfaces.StreamCodeMessageTooLarge)
				return payload, true, nil
			}
			payload = append(payload, buf[:n]...)
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				return payload, false, nil
			}
			return nil, false, rerr
		}
	}
}
