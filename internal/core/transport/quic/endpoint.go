package quic

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/quic-go/quic-go"
	"go.uber.org/multierr"

	"github.com/Lejla94/lxp2p/config"
	"github.com/Lejla94/lxp2p/internal/core/identity"
	pkgif "github.com/Lejla94/lxp2p/pkg/interfaces"
	"github.com/Lejla94/lxp2p/pkg/lib/log"
	"github.com/Lejla94/lxp2p/pkg/types"
)

var logger = log.Logger("transport/quic")

// 确保实现了接口
var _ pkgif.Endpoint = (*Endpoint)(nil)

// Endpoint QUIC 传输端点
//
// 使用共享的 UDP socket 进行监听和拨号：
//   - quic.Transport 支持在同一个 socket 上同时监听和拨号
//   - 入站连接的远端地址即对端的监听地址，可直接作为地址提示保存
type Endpoint struct {
	identity *identity.Identity
	cfg      config.TransportConfig

	cert      tls.Certificate
	serverTLS *tls.Config
	quicConf  *quic.Config

	udpConn   *net.UDPConn
	transport *quic.Transport
	listener  *quic.EarlyListener

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// New 创建端点并开始监听 cfg.ListenAddr
func New(id *identity.Identity, cfg config.TransportConfig) (*Endpoint, error) {
	if id == nil {
		return nil, identity.ErrNilPrivateKey
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cert, err := newCertificate(id)
	if err != nil {
		return nil, err
	}

	udpAddr, err := net.ResolveUDPAddr("udp", cfg.ListenAddr)
	if err != nil {
		return nil, fmt.Errorf("resolve listen address: %w", err)
	}
	udpConn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("listen udp: %w", err)
	}

	e := &Endpoint{
		identity:  id,
		cfg:       cfg,
		cert:      cert,
		serverTLS: serverTLSConfig(cert, cfg.ALPN),
		quicConf: &quic.Config{
			HandshakeIdleTimeout: cfg.HandshakeTimeout.Duration(),
			// 快速断开检测：KeepAlivePeriod(3s) + MaxIdleTimeout(6s)
			MaxIdleTimeout:        cfg.MaxIdleTimeout.Duration(),
			KeepAlivePeriod:       cfg.KeepAlivePeriod.Duration(),
			MaxIncomingStreams:    cfg.MaxIncomingStreams,
			MaxIncomingUniStreams: cfg.MaxIncomingUniStreams,
			EnableDatagrams:       true,
		},
		udpConn:   udpConn,
		transport: &quic.Transport{Conn: udpConn},
	}

	// ListenEarly 在握手完成前返回连接，握手由 Connecting.Await 显式等待
	e.listener, err = e.transport.ListenEarly(e.serverTLS, e.quicConf)
	if err != nil {
		_ = udpConn.Close()
		return nil, fmt.Errorf("listen quic: %w", err)
	}

	logger.Info("QUIC 端点已启动",
		"nodeID", id.ID().ShortString(),
		"addr", udpConn.LocalAddr().String())
	return e, nil
}

// ID 返回本地节点 ID
func (e *Endpoint) ID() types.NodeID {
	return e.identity.ID()
}

// PublicKey 返回本地原始公钥字节
func (e *Endpoint) PublicKey() []byte {
	return e.identity.PublicKeyBytes()
}

// LocalAddr 返回实际监听地址
func (e *Endpoint) LocalAddr() net.Addr {
	return e.udpConn.LocalAddr()
}

// Accept 等待下一个入站连接
func (e *Endpoint) Accept(ctx context.Context) (pkgif.Connecting, error) {
	if e.closed.Load() {
		return nil, pkgif.ErrEndpointClosed
	}

	qc, err := e.listener.Accept(ctx)
	if err != nil {
		if e.closed.Load() || errors.Is(err, quic.ErrServerClosed) {
			return nil, pkgif.ErrEndpointClosed
		}
		return nil, err
	}
	return &connecting{conn: qc, timeout: e.cfg.HandshakeTimeout.Duration()}, nil
}

// Connect 按地址提示依次拨号，返回第一个成功的连接
//
// TLS 校验回调保证对端身份等于 peer，校验失败视为该地址拨号失败。
func (e *Endpoint) Connect(ctx context.Context, peer types.NodeID, addrs []string) (pkgif.Connection, error) {
	if e.closed.Load() {
		return nil, pkgif.ErrEndpointClosed
	}
	if len(addrs) == 0 {
		return nil, ErrNoAddress
	}

	clientTLS := clientTLSConfig(e.cert, e.cfg.ALPN, peer)

	var errs error
	for _, addr := range addrs {
		conn, err := e.dial(ctx, peer, addr, clientTLS)
		if err == nil {
			return conn, nil
		}
		logger.Debug("拨号失败", "peer", peer.ShortString(), "addr", addr, "error", err)
		errs = multierr.Append(errs, fmt.Errorf("%s: %w", addr, err))

		if ctx.Err() != nil {
			break
		}
	}
	return nil, fmt.Errorf("%w: %w", ErrDialFailed, errs)
}

func (e *Endpoint) dial(ctx context.Context, peer types.NodeID, addr string, tlsConf *tls.Config) (*Connection, error) {
	if err := types.ValidateHostPort(addr); err != nil {
		return nil, err
	}
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}

	dialCtx, cancel := context.WithTimeout(ctx, e.cfg.DialTimeout.Duration())
	defer cancel()

	qc, err := e.transport.Dial(dialCtx, udpAddr, tlsConf.Clone(), e.quicConf)
	if err != nil {
		if errors.Is(err, ErrPeerIDMismatch) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrHandshake, err)
	}

	conn := newConnection(qc)
	if remote, ok := conn.RemotePeer(); !ok || remote != peer {
		_ = qc.CloseWithError(quic.ApplicationErrorCode(pkgif.CloseCodeIdentityMismatch), "identity mismatch")
		return nil, ErrPeerIDMismatch
	}
	return conn, nil
}

// Close 关闭端点（监听器、所有连接与 UDP socket）
func (e *Endpoint) Close() error {
	e.closeOnce.Do(func() {
		e.closed.Store(true)

		// 监听器与 quic.Transport 的关闭错误只记录，socket 的关闭错误返回给调用方
		if err := ignoreClosed(e.listener.Close()); err != nil {
			logger.Debug("关闭监听器失败", "error", err)
		}
		if err := ignoreClosed(e.transport.Close()); err != nil {
			logger.Debug("关闭 quic transport 失败", "error", err)
		}
		e.closeErr = ignoreClosed(e.udpConn.Close())
		logger.Debug("QUIC 端点已关闭", "nodeID", e.ID().ShortString())
	})
	return e.closeErr
}

func ignoreClosed(err error) error {
	if err == nil || errors.Is(err, net.ErrClosed) || errors.Is(err, quic.ErrServerClosed) {
		return nil
	}
	return err
}
