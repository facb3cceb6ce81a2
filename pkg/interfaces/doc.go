// Package interfaces 定义 lxp2p 公共接口
//
// 会话层只依赖这里定义的抽象能力：
//   - Endpoint / Connecting / Connection - 传输端点（默认实现：internal/core/transport/quic）
//   - EventSink                          - 事件接收方（默认实现：internal/core/eventbus）
//   - PeerDirectory                      - 节点目录（默认实现：internal/core/peerstore）
package interfaces
