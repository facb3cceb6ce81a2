package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/Lejla94/lxp2p/config"
	"github.com/Lejla94/lxp2p/internal/protocol/messaging"
	"github.com/Lejla94/lxp2p/pkg/interfaces"
	"github.com/Lejla94/lxp2p/pkg/types"
	"github.com/Lejla94/lxp2p/tests/mocks"
)

type clientFixture struct {
	ep     *mocks.MockEndpoint
	dir    *mocks.MockDirectory
	sink   *mocks.RecordingSink
	client *Client
	done   chan error
}

func testConfig() *config.Config {
	cfg := config.NewConfig()
	cfg.Session.ShutdownTimeout = config.Duration(2 * time.Second)
	cfg.Transport.HandshakeTimeout = config.Duration(time.Second)
	return cfg
}

func newClientFixture(t *testing.T, cfg *config.Config) *clientFixture {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}
	f := &clientFixture{
		ep:   mocks.NewMockEndpoint(),
		dir:  mocks.NewMockDirectory(),
		sink: mocks.NewRecordingSink(),
	}
	c, err := New(f.ep, f.dir, cfg)
	require.NoError(t, err)
	f.client = c
	t.Cleanup(func() { _ = c.Close() })
	return f
}

// start 在后台运行 Start
func (f *clientFixture) start(t *testing.T) {
	t.Helper()
	f.done = make(chan error, 1)
	go func() { f.done <- f.client.Start(f.sink) }()
	require.Eventually(t, f.client.started.Load, waitTimeout, 5*time.Millisecond)
}

func (f *clientFixture) waitStart(t *testing.T) error {
	t.Helper()
	select {
	case err := <-f.done:
		return err
	case <-time.After(waitTimeout):
		t.Fatal("Start did not return")
		return nil
	}
}

func connectedTo(peer types.NodeID) func([]types.Event) bool {
	return func(events []types.Event) bool {
		for _, ev := range events {
			if c, ok := ev.(types.ConnectionEvent); ok && c.PeerID == peer && c.Status == types.StatusConnected {
				return true
			}
		}
		return false
	}
}

// ============================================================================
//                              初始化与启动
// ============================================================================

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, mocks.NewMockDirectory(), nil)
	assert.Error(t, err)

	_, err = New(mocks.NewMockEndpoint(), nil, nil)
	assert.Error(t, err)

	cfg := config.NewConfig()
	cfg.Session.MaxConnections = 0
	_, err = New(mocks.NewMockEndpoint(), mocks.NewMockDirectory(), cfg)
	assert.Error(t, err)
}

func TestClient_Identity(t *testing.T) {
	f := newClientFixture(t, nil)
	id, pub := f.client.Identity()
	assert.Equal(t, f.ep.LocalID, id)
	assert.Equal(t, []byte(f.ep.LocalKey), pub)
	assert.Equal(t, f.ep.Addr, f.client.LocalAddr())
}

func TestClient_StartReceivesHello(t *testing.T) {
	f := newClientFixture(t, nil)
	f.start(t)

	peer := randomNodeID(t)
	conn := mocks.NewMockConnection(peer, "10.0.0.5:4001")
	f.ep.PushIncoming(&mocks.MockConnecting{Conn: conn})
	conn.PushUni(mocks.NewMockReceiveStream([]byte("hello")))

	require.True(t, f.sink.WaitFor(hasMessages(1), waitTimeout))
	msg := f.sink.Messages()[0]
	assert.Equal(t, peer, msg.Sender)
	assert.Equal(t, "hello", msg.Content)
	assert.Equal(t, uint64(1), f.dir.Count(peer))

	require.NoError(t, f.client.Close())
	assert.NoError(t, f.waitStart(t))

	conns := f.sink.Connections()
	assert.Equal(t, 1, countStatus(conns, types.StatusConnected))
	assert.Equal(t, 1, countStatus(conns, types.StatusDisconnected))
}

func TestClient_StartTwice(t *testing.T) {
	f := newClientFixture(t, nil)
	f.start(t)

	assert.ErrorIs(t, f.client.Start(f.sink), ErrAlreadyStarted)

	require.NoError(t, f.client.Close())
	assert.NoError(t, f.waitStart(t))
}

func TestClient_StartAfterClose(t *testing.T) {
	f := newClientFixture(t, nil)
	require.NoError(t, f.client.Close())
	assert.ErrorIs(t, f.client.Start(f.sink), ErrClientClosed)
}

func TestClient_FatalAcceptError(t *testing.T) {
	f := newClientFixture(t, nil)
	f.start(t)

	f.ep.FailAccept(errors.New("socket exploded"))

	err := f.waitStart(t)
	assert.ErrorIs(t, err, ErrAcceptFailed)

	errs := f.sink.Errors()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Description, "socket exploded")
}

func TestClient_FailedHandshakeIsDropped(t *testing.T) {
	f := newClientFixture(t, nil)
	f.start(t)

	f.ep.PushIncoming(&mocks.MockConnecting{Err: errors.New("bad certificate")})

	peer := randomNodeID(t)
	conn := mocks.NewMockConnection(peer, "10.0.0.5:4001")
	f.ep.PushIncoming(&mocks.MockConnecting{Conn: conn})

	require.True(t, f.sink.WaitFor(connectedTo(peer), waitTimeout))
	assert.Empty(t, f.sink.Errors())
}

func TestClient_HandshakeTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.Transport.HandshakeTimeout = config.Duration(20 * time.Millisecond)
	f := newClientFixture(t, cfg)
	f.start(t)

	stuck := &mocks.MockConnecting{Block: make(chan struct{}), Conn: mocks.NewMockConnection(randomNodeID(t), "10.0.0.5:4001")}
	f.ep.PushIncoming(stuck)

	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, f.sink.Connections())

	// 接受循环不受阻塞的握手影响
	peer := randomNodeID(t)
	f.ep.PushIncoming(&mocks.MockConnecting{Conn: mocks.NewMockConnection(peer, "10.0.0.6:4001")})
	require.True(t, f.sink.WaitFor(connectedTo(peer), waitTimeout))
}

// ============================================================================
//                              发送
// ============================================================================

func TestClient_SendReusesInboundConnection(t *testing.T) {
	f := newClientFixture(t, nil)
	f.start(t)

	peer := randomNodeID(t)
	conn := mocks.NewMockConnection(peer, "10.0.0.5:4001")
	f.ep.PushIncoming(&mocks.MockConnecting{Conn: conn})
	require.True(t, f.sink.WaitFor(connectedTo(peer), waitTimeout))

	require.NoError(t, f.client.Send(context.Background(), peer, "hi"))

	streams := conn.OpenedUniStreams()
	require.Len(t, streams, 1)
	assert.Equal(t, "hi", string(streams[0].Written()))
	assert.True(t, streams[0].IsClosed())
	assert.Equal(t, 0, f.ep.ConnectCalls())
}

func TestClient_SendDialsDirectoryHint(t *testing.T) {
	f := newClientFixture(t, nil)
	peer := randomNodeID(t)
	f.dir.Put(types.PeerRecord{PeerID: peer, AddressHint: "10.0.0.9:7000"})

	conn := mocks.NewMockConnection(peer, "10.0.0.9:7000")
	f.ep.ConnectFunc = func(context.Context, types.NodeID, []string) (interfaces.Connection, error) {
		return conn, nil
	}

	require.NoError(t, f.client.Send(context.Background(), peer, "hello"))
	require.NoError(t, f.client.Send(context.Background(), peer, "again"))

	assert.Equal(t, 1, f.ep.ConnectCalls())
	assert.Equal(t, [][]string{{"10.0.0.9:7000"}}, f.ep.ConnectAddrs())
	require.Len(t, conn.OpenedUniStreams(), 2)
	assert.Equal(t, "again", string(conn.OpenedUniStreams()[1].Written()))
	assert.Equal(t, 1, f.client.registry.len())
}

func TestClient_SendFirstContactCreatesRecord(t *testing.T) {
	f := newClientFixture(t, nil)
	peer := randomNodeID(t)

	require.NoError(t, f.client.Connect(context.Background(), peer, "10.0.0.9:7000"))

	rec, ok, err := f.dir.Get(peer)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(0), rec.MessageCount)
}

func TestClient_SendUnreachable(t *testing.T) {
	f := newClientFixture(t, nil)

	err := f.client.Send(context.Background(), randomNodeID(t), "hello")
	assert.ErrorIs(t, err, ErrUnreachable)
	assert.ErrorIs(t, err, ErrNoAddress)
	assert.Equal(t, 0, f.ep.ConnectCalls())

	peer := randomNodeID(t)
	f.dir.Put(types.PeerRecord{PeerID: peer, AddressHint: "10.0.0.9:7000"})
	f.ep.ConnectFunc = func(context.Context, types.NodeID, []string) (interfaces.Connection, error) {
		return nil, errors.New("connection refused")
	}
	err = f.client.Send(context.Background(), peer, "hello")
	assert.ErrorIs(t, err, ErrUnreachable)
}

func TestClient_SendRelayHintIsNotDialed(t *testing.T) {
	f := newClientFixture(t, nil)
	peer := randomNodeID(t)
	f.dir.Put(types.PeerRecord{PeerID: peer, AddressHint: types.RelayAddressHint})

	err := f.client.Send(context.Background(), peer, "hello")
	assert.ErrorIs(t, err, ErrNoAddress)
}

func TestClient_SendStreamFailureEvicts(t *testing.T) {
	f := newClientFixture(t, nil)
	peer := randomNodeID(t)
	f.dir.Put(types.PeerRecord{PeerID: peer, AddressHint: "10.0.0.9:7000"})

	broken := mocks.NewMockConnection(peer, "10.0.0.9:7000")
	broken.OpenUniStreamFunc = func(context.Context) (interfaces.SendStream, error) {
		return nil, errors.New("stream limit")
	}
	healthy := mocks.NewMockConnection(peer, "10.0.0.9:7000")

	var calls int
	f.ep.ConnectFunc = func(context.Context, types.NodeID, []string) (interfaces.Connection, error) {
		calls++
		if calls == 1 {
			return broken, nil
		}
		return healthy, nil
	}

	err := f.client.Send(context.Background(), peer, "hello")
	assert.ErrorIs(t, err, ErrStreamFailure)
	assert.True(t, broken.IsClosed())
	code, _, _ := broken.CloseCode()
	assert.Equal(t, interfaces.CloseCodeEvicted, code)

	require.NoError(t, f.client.Send(context.Background(), peer, "hello"))
	assert.Equal(t, 2, f.ep.ConnectCalls())
	require.Len(t, healthy.OpenedUniStreams(), 1)
}

func TestClient_ConcurrentDialsCoalesce(t *testing.T) {
	f := newClientFixture(t, nil)
	peer := randomNodeID(t)
	f.dir.Put(types.PeerRecord{PeerID: peer, AddressHint: "10.0.0.9:7000"})

	release := make(chan struct{})
	conn := mocks.NewMockConnection(peer, "10.0.0.9:7000")
	f.ep.ConnectFunc = func(ctx context.Context, _ types.NodeID, _ []string) (interfaces.Connection, error) {
		<-release
		return conn, nil
	}

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			return f.client.Send(context.Background(), peer, "m")
		})
	}
	time.Sleep(50 * time.Millisecond)
	close(release)

	require.NoError(t, g.Wait())
	assert.Equal(t, 1, f.ep.ConnectCalls())
	assert.Len(t, conn.OpenedUniStreams(), 8)
}

func TestClient_SendValidation(t *testing.T) {
	f := newClientFixture(t, nil)

	err := f.client.Send(context.Background(), f.ep.LocalID, "me")
	assert.ErrorIs(t, err, ErrDialToSelf)

	err = f.client.Send(context.Background(), randomNodeID(t), strings.Repeat("x", messaging.MaxMessageSize+1))
	assert.ErrorIs(t, err, messaging.ErrMessageTooLarge)
	assert.Equal(t, 0, f.ep.ConnectCalls())
}

func TestClient_Request(t *testing.T) {
	f := newClientFixture(t, nil)
	peer := randomNodeID(t)

	conn := mocks.NewMockConnection(peer, "10.0.0.9:7000")
	conn.BiReply = []byte(messaging.AckText(peer))
	f.ep.ConnectFunc = func(context.Context, types.NodeID, []string) (interfaces.Connection, error) {
		return conn, nil
	}
	require.NoError(t, f.client.Connect(context.Background(), peer, "10.0.0.9:7000"))

	ack, err := f.client.Request(context.Background(), peer, "ping")
	require.NoError(t, err)
	assert.Equal(t, "ACK from "+peer.String()+"!", ack)

	streams := conn.OpenedBiStreams()
	require.Len(t, streams, 1)
	assert.Equal(t, "ping", string(streams[0].Written()))
}

func TestClient_SendDatagram(t *testing.T) {
	f := newClientFixture(t, nil)
	peer := randomNodeID(t)
	conn := mocks.NewMockConnection(peer, "10.0.0.9:7000")
	f.ep.ConnectFunc = func(context.Context, types.NodeID, []string) (interfaces.Connection, error) {
		return conn, nil
	}
	require.NoError(t, f.client.Connect(context.Background(), peer, "10.0.0.9:7000"))

	require.NoError(t, f.client.SendDatagram(context.Background(), peer, "d1"))
	require.NoError(t, f.client.SendDatagram(context.Background(), peer, "d2"))
	assert.Equal(t, [][]byte{[]byte("d1"), []byte("d2")}, conn.SentDatagrams())

	conn.SendDatagramFunc = func([]byte) error { return errors.New("too large") }
	assert.ErrorIs(t, f.client.SendDatagram(context.Background(), peer, "d3"), ErrStreamFailure)
}

// ============================================================================
//                              Connect
// ============================================================================

func TestClient_ConnectEmitsEvents(t *testing.T) {
	f := newClientFixture(t, nil)
	f.start(t)

	peer := randomNodeID(t)
	conn := mocks.NewMockConnection(peer, "10.0.0.9:7000")
	f.ep.ConnectFunc = func(context.Context, types.NodeID, []string) (interfaces.Connection, error) {
		return conn, nil
	}

	require.NoError(t, f.client.Connect(context.Background(), peer, "10.0.0.9:7000"))
	require.True(t, f.sink.WaitFor(connectedTo(peer), waitTimeout))
	assert.Equal(t, [][]string{{"10.0.0.9:7000"}}, f.ep.ConnectAddrs())

	// 出站连接上同样接收对端消息
	conn.PushUni(mocks.NewMockReceiveStream([]byte("over outbound")))
	require.True(t, f.sink.WaitFor(hasMessages(1), waitTimeout))

	conn.Close()
	require.True(t, f.sink.WaitFor(func(ev []types.Event) bool {
		return countStatus(f.sink.Connections(), types.StatusDisconnected) == 1
	}, waitTimeout))
	require.Eventually(t, func() bool { return f.client.registry.len() == 0 }, waitTimeout, 10*time.Millisecond)
}

func TestClient_ConnectValidation(t *testing.T) {
	f := newClientFixture(t, nil)

	err := f.client.Connect(context.Background(), randomNodeID(t), "not-an-address")
	assert.ErrorIs(t, err, types.ErrInvalidAddress)

	err = f.client.Connect(context.Background(), f.ep.LocalID, "10.0.0.1:1")
	assert.ErrorIs(t, err, ErrDialToSelf)
}

func TestClient_ConnectIdentityMismatch(t *testing.T) {
	f := newClientFixture(t, nil)
	impostor := mocks.NewMockConnection(randomNodeID(t), "10.0.0.9:7000")
	f.ep.ConnectFunc = func(context.Context, types.NodeID, []string) (interfaces.Connection, error) {
		return impostor, nil
	}

	err := f.client.Connect(context.Background(), randomNodeID(t), "10.0.0.9:7000")
	assert.ErrorIs(t, err, ErrUnreachable)
	assert.ErrorIs(t, err, ErrProtocolViolation)
	code, _, _ := impostor.CloseCode()
	assert.Equal(t, interfaces.CloseCodeIdentityMismatch, code)
}

func TestClient_RegistryEviction(t *testing.T) {
	cfg := testConfig()
	cfg.Session.MaxConnections = 2
	f := newClientFixture(t, cfg)

	var mu sync.Mutex
	conns := map[types.NodeID]*mocks.MockConnection{}
	f.ep.ConnectFunc = func(_ context.Context, peer types.NodeID, _ []string) (interfaces.Connection, error) {
		mu.Lock()
		defer mu.Unlock()
		c := mocks.NewMockConnection(peer, "10.0.0.9:7000")
		conns[peer] = c
		return c, nil
	}

	peers := []types.NodeID{randomNodeID(t), randomNodeID(t), randomNodeID(t)}
	for _, p := range peers {
		require.NoError(t, f.client.Connect(context.Background(), p, "10.0.0.9:7000"))
	}

	mu.Lock()
	first := conns[peers[0]]
	mu.Unlock()

	code, _, closed := first.CloseCode()
	require.True(t, closed)
	assert.Equal(t, interfaces.CloseCodeEvicted, code)
	assert.Equal(t, 2, f.client.registry.len())
}

// ============================================================================
//                              关闭
// ============================================================================

func TestClient_Close(t *testing.T) {
	f := newClientFixture(t, nil)
	peer := randomNodeID(t)
	conn := mocks.NewMockConnection(peer, "10.0.0.9:7000")
	f.ep.ConnectFunc = func(context.Context, types.NodeID, []string) (interfaces.Connection, error) {
		return conn, nil
	}
	require.NoError(t, f.client.Connect(context.Background(), peer, "10.0.0.9:7000"))

	require.NoError(t, f.client.Close())
	require.NoError(t, f.client.Close())

	code, _, closed := conn.CloseCode()
	require.True(t, closed)
	assert.Equal(t, interfaces.CloseCodeShutdown, code)

	assert.ErrorIs(t, f.client.Send(context.Background(), peer, "late"), ErrClientClosed)
	assert.ErrorIs(t, f.client.Connect(context.Background(), peer, "10.0.0.9:7000"), ErrClientClosed)
}
