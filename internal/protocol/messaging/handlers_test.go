package messaging

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lejla94/lxp2p/internal/core/peerstore"
	"github.com/Lejla94/lxp2p/internal/core/storage"
	"github.com/Lejla94/lxp2p/pkg/interfaces"
	"github.com/Lejla94/lxp2p/pkg/types"
	"github.com/Lejla94/lxp2p/tests/mocks"
)

func randomNodeID(t *testing.T) types.NodeID {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return types.NodeIDFromPublicKey(pub)
}

type countingObserver struct {
	mu       sync.Mutex
	received map[types.DeliveryMode]int
	failed   map[types.DeliveryMode]int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{
		received: make(map[types.DeliveryMode]int),
		failed:   make(map[types.DeliveryMode]int),
	}
}

func (o *countingObserver) MessageReceived(mode types.DeliveryMode, _ bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.received[mode]++
}

func (o *countingObserver) HandlerFailed(mode types.DeliveryMode) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failed[mode]++
}

func TestHandleUni_Hello(t *testing.T) {
	local := randomNodeID(t)
	peer := randomNodeID(t)
	dir := mocks.NewMockDirectory()
	sink := mocks.NewRecordingSink()
	mock := clock.NewMock()
	mock.Set(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	h := NewHandlers(local, dir, sink, WithClock(mock))

	err := h.HandleUni(context.Background(), peer, mocks.NewMockReceiveStream([]byte("hello")))
	require.NoError(t, err)

	msgs := sink.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, peer, msgs[0].Sender)
	assert.Equal(t, "hello", msgs[0].Content)
	assert.Equal(t, types.DeliveryUni, msgs[0].Mode)
	assert.False(t, msgs[0].Truncated)
	assert.NotEmpty(t, msgs[0].ID)
	assert.True(t, msgs[0].ReceivedAt.Equal(mock.Now()))

	rec, ok, err := dir.Get(peer)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(1), rec.MessageCount)
}

func TestHandleUni_ConcurrentIncrements(t *testing.T) {
	eng, err := storage.New(filepath.Join(t.TempDir(), "peers.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })

	dir := peerstore.NewDirectory(eng)
	sink := mocks.NewRecordingSink()
	h := NewHandlers(randomNodeID(t), dir, sink)
	peer := randomNodeID(t)

	const n = 40
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, h.HandleUni(context.Background(), peer, mocks.NewMockReceiveStream([]byte("m"))))
		}()
	}
	wg.Wait()

	rec, ok, err := dir.Get(peer)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(n), rec.MessageCount)
	assert.Len(t, sink.Messages(), n)
}

func TestHandleUni_Oversize(t *testing.T) {
	dir := mocks.NewMockDirectory()
	sink := mocks.NewRecordingSink()
	obs := newCountingObserver()
	h := NewHandlers(randomNodeID(t), dir, sink, WithObserver(obs))
	peer := randomNodeID(t)

	s := mocks.NewMockReceiveStream(bytes.Repeat([]byte("z"), 2*MaxMessageSize))
	require.NotPanics(t, func() {
		require.NoError(t, h.HandleUni(context.Background(), peer, s))
	})

	msgs := sink.Messages()
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].Truncated)
	assert.Len(t, msgs[0].Content, MaxMessageSize)
	assert.Equal(t, uint64(1), dir.Count(peer))
	assert.Equal(t, 1, obs.received[types.DeliveryUni])
}

func TestHandleUni_ReadError(t *testing.T) {
	dir := mocks.NewMockDirectory()
	sink := mocks.NewRecordingSink()
	obs := newCountingObserver()
	h := NewHandlers(randomNodeID(t), dir, sink, WithObserver(obs))
	peer := randomNodeID(t)

	s := mocks.NewMockReceiveStream([]byte("hal"))
	s.ReadErr = errors.New("reset by peer")

	err := h.HandleUni(context.Background(), peer, s)
	assert.ErrorIs(t, err, ErrReadFailed)
	assert.Empty(t, sink.Events())
	assert.Equal(t, 0, dir.IncrementCalls)
	assert.Equal(t, 1, obs.failed[types.DeliveryUni])
}

func TestHandleUni_DirectoryFailure(t *testing.T) {
	dir := mocks.NewMockDirectory()
	dir.Err = errors.New("disk full")
	sink := mocks.NewRecordingSink()
	h := NewHandlers(randomNodeID(t), dir, sink)

	err := h.HandleUni(context.Background(), randomNodeID(t), mocks.NewMockReceiveStream([]byte("x")))
	assert.ErrorIs(t, err, peerstore.ErrDirectory)
	// 事件已在目录更新前推送
	assert.Len(t, sink.Messages(), 1)
}

func TestHandleBi_PingAck(t *testing.T) {
	local := randomNodeID(t)
	peer := randomNodeID(t)
	dir := mocks.NewMockDirectory()
	sink := mocks.NewRecordingSink()
	h := NewHandlers(local, dir, sink)

	s := mocks.NewMockBiStream([]byte("ping"))
	require.NoError(t, h.HandleBi(context.Background(), peer, s))

	assert.Equal(t, "ACK from "+local.String()+"!", string(s.Written()))
	assert.True(t, s.IsClosed())

	msgs := sink.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "ping", msgs[0].Content)
	assert.Equal(t, types.DeliveryBi, msgs[0].Mode)
	assert.Equal(t, uint64(1), dir.Count(peer))
}

func TestHandleBi_AckFailureKeepsReceipt(t *testing.T) {
	peer := randomNodeID(t)
	dir := mocks.NewMockDirectory()
	sink := mocks.NewRecordingSink()
	obs := newCountingObserver()
	h := NewHandlers(randomNodeID(t), dir, sink, WithObserver(obs))

	s := mocks.NewMockBiStream([]byte("ping"))
	s.WriteErr = errors.New("peer went away")

	err := h.HandleBi(context.Background(), peer, s)
	assert.ErrorIs(t, err, ErrAckFailed)
	assert.NotErrorIs(t, err, peerstore.ErrDirectory)
	assert.Len(t, sink.Messages(), 1)
	assert.Equal(t, uint64(1), dir.Count(peer))
	assert.True(t, s.WriteCanceled)
	assert.Equal(t, 1, obs.failed[types.DeliveryBi])
}

func TestHandleBi_AckAndDirectoryFailure(t *testing.T) {
	dir := mocks.NewMockDirectory()
	dir.Err = errors.New("disk full")
	h := NewHandlers(randomNodeID(t), dir, mocks.NewRecordingSink())

	s := mocks.NewMockBiStream([]byte("ping"))
	s.CloseErr = errors.New("stream reset")

	err := h.HandleBi(context.Background(), randomNodeID(t), s)
	assert.ErrorIs(t, err, ErrAckFailed)
	assert.ErrorIs(t, err, peerstore.ErrDirectory)
}

func TestHandleBi_ReadErrorAbortsReply(t *testing.T) {
	sink := mocks.NewRecordingSink()
	h := NewHandlers(randomNodeID(t), mocks.NewMockDirectory(), sink)

	s := mocks.NewMockBiStream([]byte("pi"))
	s.ReadErr = errors.New("reset")

	err := h.HandleBi(context.Background(), randomNodeID(t), s)
	assert.ErrorIs(t, err, ErrReadFailed)
	assert.Empty(t, sink.Events())
	assert.True(t, s.WriteCanceled)
	assert.Equal(t, interfaces.StreamCodeAborted, s.CancelWriteCode)
	assert.Empty(t, s.Written())
}

func TestHandleDatagram(t *testing.T) {
	peer := randomNodeID(t)
	dir := mocks.NewMockDirectory()
	sink := mocks.NewRecordingSink()
	h := NewHandlers(randomNodeID(t), dir, sink, WithMaxMessageSize(8))

	require.NoError(t, h.HandleDatagram(context.Background(), peer, []byte("d1")))
	require.NoError(t, h.HandleDatagram(context.Background(), peer, []byte("0123456789")))

	msgs := sink.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "d1", msgs[0].Content)
	assert.Equal(t, types.DeliveryDatagram, msgs[0].Mode)
	assert.Equal(t, "01234567", msgs[1].Content)
	assert.True(t, msgs[1].Truncated)
	assert.Equal(t, uint64(2), dir.Count(peer))
}

func TestNewHandlers_NilSink(t *testing.T) {
	h := NewHandlers(randomNodeID(t), nil, nil)
	assert.NoError(t, h.HandleDatagram(context.Background(), randomNodeID(t), []byte("x")))
}
