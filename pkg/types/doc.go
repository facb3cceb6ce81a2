// Package types 定义 lxp2p 的公共数据结构
//
// 这是整个系统的最底层包，不依赖任何其他 lxp2p 内部包。
// 所有类型都是纯值类型，用于在各模块间传递数据。
//
// # 文件组织
//
//   - ids.go      - NodeID 节点标识（Base58 外部表示）
//   - peer.go     - PeerRecord 节点目录记录
//   - events.go   - Event 事件（封闭变体：连接 / 消息 / 错误）
//   - address.go  - host:port 地址校验
//   - errors.go   - 公共错误定义
package types
