// Package identity 实现节点身份管理
//
// 节点身份是一对 Ed25519 密钥：
//   - NodeID = SHA-256(原始公钥)，以 Base58 文本表示
//   - 私钥以 PEM 格式保存在数据目录中，重启后 NodeID 不变
//   - 传输层使用同一私钥签发自签名 TLS 证书
package identity
