package mocks

import (
	"bytes"
	"io"
	"sync"

	"github.com/Lejla94/lxp2p/pkg/interfaces"
)

// ============================================================================
//                              MockReceiveStream
// ============================================================================

// MockReceiveStream 从内存数据读取的接收端
type MockReceiveStream struct {
	mu sync.Mutex

	data []byte
	pos  int

	// ChunkSize 每次 Read 最多返回的字节数（0 表示不限制）
	ChunkSize int

	// ReadErr 数据读完后返回的错误（nil 表示 io.EOF）
	ReadErr error

	// CancelReadCode 最近一次 CancelRead 的错误码
	CancelReadCode uint64
	Canceled       bool

	// ReadBytes 已被读取的字节数
	ReadBytes int
}

// NewMockReceiveStream 创建接收端
func NewMockReceiveStream(data []byte) *MockReceiveStream {
	return &MockReceiveStream{data: data}
}

// Read 实现 io.Reader
func (s *MockReceiveStream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Canceled {
		return 0, io.ErrClosedPipe
	}
	if s.pos >= len(s.data) {
		if s.ReadErr != nil {
			return 0, s.ReadErr
		}
		return 0, io.EOF
	}

	n := len(p)
	if s.ChunkSize > 0 && n > s.ChunkSize {
		n = s.ChunkSize
	}
	n = copy(p[:n], s.data[s.pos:])
	s.pos += n
	s.ReadBytes += n
	return n, nil
}

// CancelRead 记录取消
func (s *MockReceiveStream) CancelRead(code uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Canceled = true
	s.CancelReadCode = code
}

// WasCanceled 返回是否调用过 CancelRead 及错误码
func (s *MockReceiveStream) WasCanceled() (bool, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Canceled, s.CancelReadCode
}

var _ interfaces.ReceiveStream = (*MockReceiveStream)(nil)

// ============================================================================
//                              MockSendStream
// ============================================================================

// MockSendStream 写入内存缓冲区的发送端
type MockSendStream struct {
	mu  sync.Mutex
	buf bytes.Buffer

	// WriteErr 非 nil 时 Write 返回该错误
	WriteErr error
	// CloseErr 非 nil 时 Close 返回该错误
	CloseErr error

	Closed          bool
	CancelWriteCode uint64
	WriteCanceled   bool
}

// NewMockSendStream 创建发送端
func NewMockSendStream() *MockSendStream {
	return &MockSendStream{}
}

// Write 实现 io.Writer
func (s *MockSendStream) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.WriteErr != nil {
		return 0, s.WriteErr
	}
	if s.Closed {
		return 0, io.ErrClosedPipe
	}
	return s.buf.Write(p)
}

// Close 结束发送
func (s *MockSendStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.CloseErr != nil {
		return s.CloseErr
	}
	s.Closed = true
	return nil
}

// CancelWrite 记录中止
func (s *MockSendStream) CancelWrite(code uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.WriteCanceled = true
	s.CancelWriteCode = code
}

// Written 返回已写入的数据
func (s *MockSendStream) Written() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.buf.Bytes()...)
}

// IsClosed 返回是否已发送 FIN
func (s *MockSendStream) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Closed
}

var _ interfaces.SendStream = (*MockSendStream)(nil)

// ============================================================================
//                              MockBiStream
// ============================================================================

// MockBiStream 双向流：读取 Request，写入 Reply
type MockBiStream struct {
	*MockReceiveStream
	*MockSendStream
}

// NewMockBiStream 创建双向流，request 为对端发来的数据
func NewMockBiStream(request []byte) *MockBiStream {
	return &MockBiStream{
		MockReceiveStream: NewMockReceiveStream(request),
		MockSendStream:    NewMockSendStream(),
	}
}

var _ interfaces.BiStream = (*MockBiStream)(nil)
