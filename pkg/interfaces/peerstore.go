// Package interfaces 定义 lxp2p 公共接口
//
// 本文件定义节点目录接口，记录每个节点的地址提示、
// 最后活跃时间与入站消息计数。
package interfaces

import "github.com/Lejla94/lxp2p/pkg/types"

// PeerDirectory 节点目录
//
// 每个 NodeID 至多一条记录；首次写入时惰性创建。
// 同一节点的并发更新互不丢失（按键原子读-改-写）。
type PeerDirectory interface {
	// Get 读取记录，不存在时 ok 为 false
	Get(id types.NodeID) (rec *types.PeerRecord, ok bool, err error)

	// TouchLastSeen 将 LastSeen 推进到当前时间（必要时创建记录）
	TouchLastSeen(id types.NodeID) error

	// IncrementMessageCount 消息计数加 by，并推进 LastSeen
	IncrementMessageCount(id types.NodeID, by uint64) error

	// Observe 记录一次连接事件：推进 LastSeen，hint 非空时更新地址提示
	Observe(id types.NodeID, addressHint string) error
}
