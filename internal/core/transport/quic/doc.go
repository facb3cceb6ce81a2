// Package quic 实现基于 QUIC 的传输端点
//
// 端点在一个共享 UDP socket 上同时监听与拨号，
// 因此对端观察到的源地址就是本节点可被拨回的地址。
//
// # 身份
//
// TLS 1.3 自签名证书由节点的 Ed25519 私钥签发，双方都必须出示证书。
// 对端 NodeID = SHA-256(证书中的原始 Ed25519 公钥)，
// 拨号方额外校验派生的 NodeID 与目标一致。
//
// # 使用示例
//
//	ep, err := quic.New(id, config.DefaultTransportConfig())
//	if err != nil {
//	    return err
//	}
//	defer ep.Close()
//
//	conn, err := ep.Connect(ctx, peerID, []string{"203.0.113.5:4433"})
package quic
