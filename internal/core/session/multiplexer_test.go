package session

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lejla94/lxp2p/internal/core/metrics"
	"github.com/Lejla94/lxp2p/internal/protocol/messaging"
	"github.com/Lejla94/lxp2p/pkg/interfaces"
	"github.com/Lejla94/lxp2p/pkg/types"
	"github.com/Lejla94/lxp2p/tests/mocks"
)

const waitTimeout = 3 * time.Second

func randomNodeID(t *testing.T) types.NodeID {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return types.NodeIDFromPublicKey(pub)
}

type muxFixture struct {
	local   types.NodeID
	dir     *mocks.MockDirectory
	sink    *mocks.RecordingSink
	metrics *metrics.Metrics
	deps    muxDeps
}

func newMuxFixture(t *testing.T) *muxFixture {
	t.Helper()
	f := &muxFixture{
		local:   randomNodeID(t),
		dir:     mocks.NewMockDirectory(),
		sink:    mocks.NewRecordingSink(),
		metrics: metrics.New(),
	}
	f.deps = muxDeps{
		handlers:      messaging.NewHandlers(f.local, f.dir, f.sink, messaging.WithObserver(f.metrics)),
		dir:           f.dir,
		sink:          f.sink,
		metrics:       f.metrics,
		datagramQueue: 256,
	}
	return f
}

func (f *muxFixture) start(t *testing.T, conn interfaces.Connection) (*Multiplexer, <-chan error) {
	t.Helper()
	mux := newMultiplexer(conn, f.deps, metrics.DirectionInbound)
	errCh := make(chan error, 1)
	go func() { errCh <- mux.Run(context.Background()) }()
	return mux, errCh
}

func hasMessages(n int) func([]types.Event) bool {
	return func(events []types.Event) bool {
		count := 0
		for _, ev := range events {
			if ev.Kind() == types.EventKindMessage {
				count++
			}
		}
		return count >= n
	}
}

func countStatus(events []types.ConnectionEvent, status types.ConnectionStatus) int {
	n := 0
	for _, ev := range events {
		if ev.Status == status {
			n++
		}
	}
	return n
}

func TestMultiplexer_Hello(t *testing.T) {
	f := newMuxFixture(t)
	peer := randomNodeID(t)
	conn := mocks.NewMockConnection(peer, "10.0.0.2:5000")

	mux, errCh := f.start(t, conn)
	conn.PushUni(mocks.NewMockReceiveStream([]byte("hello")))

	require.True(t, f.sink.WaitFor(hasMessages(1), waitTimeout))
	msgs := f.sink.Messages()
	assert.Equal(t, peer, msgs[0].Sender)
	assert.Equal(t, "hello", msgs[0].Content)
	assert.Equal(t, StateActive, mux.State())

	rec, ok, err := f.dir.Get(peer)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "10.0.0.2:5000", rec.AddressHint)
	assert.Equal(t, uint64(1), rec.MessageCount)

	conn.Close()
	select {
	case err := <-errCh:
		assert.Error(t, err)
	case <-time.After(waitTimeout):
		t.Fatal("multiplexer did not stop")
	}
	require.NoError(t, mux.Wait(context.Background()))

	conns := f.sink.Connections()
	require.Len(t, conns, 2)
	assert.Equal(t, types.StatusConnected, conns[0].Status)
	assert.Equal(t, types.StatusDisconnected, conns[1].Status)
	assert.Equal(t, peer, conns[1].PeerID)
}

func TestMultiplexer_PingAck(t *testing.T) {
	f := newMuxFixture(t)
	peer := randomNodeID(t)
	conn := mocks.NewMockConnection(peer, "10.0.0.2:5000")

	f.start(t, conn)
	bi := mocks.NewMockBiStream([]byte("ping"))
	conn.PushBi(bi)

	require.Eventually(t, bi.IsClosed, waitTimeout, 10*time.Millisecond)
	assert.Equal(t, "ACK from "+f.local.String()+"!", string(bi.Written()))

	require.True(t, f.sink.WaitFor(hasMessages(1), waitTimeout))
	assert.Equal(t, "ping", f.sink.Messages()[0].Content)
	assert.Equal(t, types.DeliveryBi, f.sink.Messages()[0].Mode)
	assert.Equal(t, uint64(1), f.dir.Count(peer))

	conn.Close()
}

func TestMultiplexer_IdleCloseEmitsDisconnectedOnce(t *testing.T) {
	f := newMuxFixture(t)
	conn := mocks.NewMockConnection(randomNodeID(t), "10.0.0.2:5000")

	mux, errCh := f.start(t, conn)
	require.True(t, f.sink.WaitFor(func(ev []types.Event) bool { return len(ev) >= 1 }, waitTimeout))

	conn.Close()
	<-errCh
	<-mux.Done()

	// 关闭后再次触发关闭路径不应重复推送
	mux.close(interfaces.CloseCodeNormal, "again")

	conns := f.sink.Connections()
	assert.Equal(t, 1, countStatus(conns, types.StatusConnected))
	assert.Equal(t, 1, countStatus(conns, types.StatusDisconnected))
	assert.Empty(t, f.sink.Messages())
	assert.Equal(t, StateClosed, mux.State())
}

func TestMultiplexer_ProtocolViolation(t *testing.T) {
	f := newMuxFixture(t)
	conn := mocks.NewAnonymousConnection()
	conn.PushUni(mocks.NewMockReceiveStream([]byte("sneaky")))

	mux := newMultiplexer(conn, f.deps, metrics.DirectionInbound)
	err := mux.Run(context.Background())
	assert.ErrorIs(t, err, ErrProtocolViolation)

	code, _, closed := conn.CloseCode()
	require.True(t, closed)
	assert.Equal(t, interfaces.CloseCodeProtocolViolation, code)
	assert.Empty(t, f.sink.Events())
	assert.Equal(t, 0, f.dir.ObserveCalls)
	assert.Equal(t, 0, f.dir.IncrementCalls)
	assert.Equal(t, StateClosed, mux.State())
}

func TestMultiplexer_InterleavedDatagrams(t *testing.T) {
	f := newMuxFixture(t)
	peerA, peerB := randomNodeID(t), randomNodeID(t)
	connA := mocks.NewMockConnection(peerA, "10.0.0.2:5000")
	connB := mocks.NewMockConnection(peerB, "10.0.0.3:5000")

	f.start(t, connA)
	f.start(t, connB)

	const n = 100
	for i := 0; i < n; i++ {
		connA.PushDatagram([]byte(fmt.Sprintf("a-%d", i)))
		connB.PushDatagram([]byte(fmt.Sprintf("b-%d", i)))
	}

	require.True(t, f.sink.WaitFor(hasMessages(2*n), waitTimeout))
	assert.Equal(t, uint64(n), f.dir.Count(peerA))
	assert.Equal(t, uint64(n), f.dir.Count(peerB))

	// 同一连接内按到达顺序处理
	next := map[types.NodeID]int{}
	for _, m := range f.sink.Messages() {
		prefix := "a"
		if m.Sender == peerB {
			prefix = "b"
		}
		assert.Equal(t, fmt.Sprintf("%s-%d", prefix, next[m.Sender]), m.Content)
		next[m.Sender]++
	}

	connA.Close()
	connB.Close()
}

func TestMultiplexer_ShutdownClosesConnection(t *testing.T) {
	f := newMuxFixture(t)
	conn := mocks.NewMockConnection(randomNodeID(t), "10.0.0.2:5000")

	mux := newMultiplexer(conn, f.deps, metrics.DirectionOutbound)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- mux.Run(ctx) }()

	require.True(t, f.sink.WaitFor(func(ev []types.Event) bool { return len(ev) >= 1 }, waitTimeout))
	cancel()

	assert.ErrorIs(t, <-errCh, context.Canceled)
	code, _, closed := conn.CloseCode()
	require.True(t, closed)
	assert.Equal(t, interfaces.CloseCodeShutdown, code)
	assert.Equal(t, 1, countStatus(f.sink.Connections(), types.StatusDisconnected))
}

func TestMultiplexer_HandlerFailureDoesNotStopLoop(t *testing.T) {
	f := newMuxFixture(t)
	conn := mocks.NewMockConnection(randomNodeID(t), "10.0.0.2:5000")
	f.start(t, conn)

	broken := mocks.NewMockReceiveStream([]byte("x"))
	broken.ReadErr = fmt.Errorf("reset")
	conn.PushUni(broken)
	conn.PushUni(mocks.NewMockReceiveStream([]byte("after")))

	require.True(t, f.sink.WaitFor(hasMessages(1), waitTimeout))
	assert.Equal(t, "after", f.sink.Messages()[0].Content)
	assert.False(t, conn.IsClosed())
	conn.Close()
}

func TestAddressHint(t *testing.T) {
	assert.Equal(t, types.RelayAddressHint, addressHint(nil))
	assert.Equal(t, "127.0.0.1:9000", addressHint(mocks.NewMockConnection(types.EmptyNodeID, "127.0.0.1:9000").RemoteAddr()))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "established", StateEstablished.String())
	assert.Equal(t, "active", StateActive.String())
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "unknown", State(42).String())
}
