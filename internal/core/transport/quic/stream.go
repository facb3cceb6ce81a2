package quic

import (
	"github.com/quic-go/quic-go"

	pkgif "github.com/Lejla94/lxp2p/pkg/interfaces"
)

// receiveStream 单向流接收端
type receiveStream struct {
	s *quic.ReceiveStream
}

var _ pkgif.ReceiveStream = (*receiveStream)(nil)

func (r *receiveStream) Read(p []byte) (int, error) {
	return r.s.Read(p)
}

func (r *receiveStream) CancelRead(code uint64) {
	r.s.CancelRead(quic.StreamErrorCode(code))
}

// sendStream 单向流发送端
type sendStream struct {
	s *quic.SendStream
}

var _ pkgif.SendStream = (*sendStream)(nil)

func (w *sendStream) Write(p []byte) (int, error) {
	return w.s.Write(p)
}

// Close 发送 FIN
func (w *sendStream) Close() error {
	return w.s.Close()
}

func (w *sendStream) CancelWrite(code uint64) {
	w.s.CancelWrite(quic.StreamErrorCode(code))
}

// stream 双向流
//
// Close 只关闭发送方向，读方向仍可继续读取应答。
type stream struct {
	s *quic.Stream
}

var _ pkgif.BiStream = (*stream)(nil)

func (b *stream) Read(p []byte) (int, error) {
	return b.s.Read(p)
}

func (b *stream) Write(p []byte) (int, error) {
	return b.s.Write(p)
}

func (b *stream) Close() error {
	return b.s.Close()
}

func (b *stream) CancelRead(code uint64) {
	b.s.CancelRead(quic.StreamErrorCode(code))
}

func (b *stream) CancelWrite(code uint64) {
	b.s.CancelWrite(quic.StreamErrorCode(code))
}
