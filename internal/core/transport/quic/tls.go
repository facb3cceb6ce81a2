package quic

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"math/big"
	"time"

	"github.com/Lejla94/lxp2p/internal/core/identity"
	"github.com/Lejla94/lxp2p/pkg/types"
)

// certValidity 自签名证书有效期
const certValidity = 180 * 24 * time.Hour

// newCertificate 用节点私钥签发自签名证书
func newCertificate(id *identity.Identity) (tls.Certificate, error) {
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 62))
	if err != nil {
		return tls.Certificate{}, err
	}

	now := time.Now()
	template := &x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			Organization: []string{"lxp2p"},
			CommonName:   id.ID().ShortString(),
		},
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.Add(certValidity),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
	}

	priv := id.PrivateKey()
	certDER, err := x509.CreateCertificate(rand.Reader, template, template, priv.Public(), priv)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("创建证书失败: %w", err)
	}

	return tls.Certificate{
		Certificate: [][]byte{certDER},
		PrivateKey:  priv,
	}, nil
}

// serverTLSConfig 生成监听端 TLS 配置
//
// InsecureSkipVerify 只关闭 CA 链校验，身份由 verifyPeerCertificate 从公钥派生。
func serverTLSConfig(cert tls.Certificate, alpn string) *tls.Config {
	return &tls.Config{
		Certificates:          []tls.Certificate{cert},
		NextProtos:            []string{alpn},
		InsecureSkipVerify:    true,
		ClientAuth:            tls.RequireAnyClientCert,
		VerifyPeerCertificate: verifyPeerCertificate(types.EmptyNodeID),
		MinVersion:            tls.VersionTLS13,
	}
}

// clientTLSConfig 生成拨号端 TLS 配置，要求对端为 expected
func clientTLSConfig(cert tls.Certificate, alpn string, expected types.NodeID) *tls.Config {
	return &tls.Config{
		Certificates:          []tls.Certificate{cert},
		NextProtos:            []string{alpn},
		InsecureSkipVerify:    true,
		VerifyPeerCertificate: verifyPeerCertificate(expected),
		MinVersion:            tls.VersionTLS13,
	}
}

// verifyPeerCertificate 返回证书校验回调
//
// expected 为空时只校验证书本身。
func verifyPeerCertificate(expected types.NodeID) func([][]byte, [][]*x509.Certificate) error {
	return func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
		if len(rawCerts) == 0 {
			return ErrNoCertificate
		}

		cert, err := x509.ParseCertificate(rawCerts[0])
		if err != nil {
			return fmt.Errorf("解析证书失败: %w", err)
		}
		// 证书不是 CA，CheckSignatureFrom 会拒绝，直接校验自签名
		if err := cert.CheckSignature(cert.SignatureAlgorithm, cert.RawTBSCertificate, cert.Signature); err != nil {
			return fmt.Errorf("证书自签名无效: %w", err)
		}

		now := time.Now()
		if now.Before(cert.NotBefore) || now.After(cert.NotAfter) {
			return fmt.Errorf("证书不在有效期内: %v - %v", cert.NotBefore, cert.NotAfter)
		}

		derived, err := nodeIDFromCertificate(cert)
		if err != nil {
			return err
		}
		if !expected.IsEmpty() && derived != expected {
			return fmt.Errorf("%w: want %s, got %s", ErrPeerIDMismatch, expected.ShortString(), derived.ShortString())
		}
		return nil
	}
}

// nodeIDFromCertificate 从证书公钥派生 NodeID
func nodeIDFromCertificate(cert *x509.Certificate) (types.NodeID, error) {
	pub, ok := cert.PublicKey.(ed25519.PublicKey)
	if !ok {
		return types.EmptyNodeID, fmt.Errorf("%w: %T", ErrUnsupportedKey, cert.PublicKey)
	}
	return types.NodeIDFromPublicKey(pub), nil
}

// nodeIDFromState 从 TLS 连接状态中提取对端 NodeID
func nodeIDFromState(state tls.ConnectionState) (types.NodeID, error) {
	if len(state.PeerCertificates) == 0 {
		return types.EmptyNodeID, ErrNoCertificate
	}
	return nodeIDFromCertificate(state.PeerCertificates[0])
}
