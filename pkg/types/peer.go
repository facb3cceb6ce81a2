package types

import "time"

// RelayAddressHint 直连地址未知时使用的占位地址提示
const RelayAddressHint = "<relay>"

// PeerRecord 节点目录中的一条记录
//
// 每个出现过的 NodeID 恰好对应一条记录，首次接触时以
// MessageCount = 0 惰性创建，之后永不删除。
// LastSeen 与 MessageCount 单调不减。
type PeerRecord struct {
	// PeerID 节点 ID，记录创建后不可变
	PeerID NodeID `json:"peer_id"`

	// AddressHint 最佳可达地址提示（host:port 或 "<relay>"）
	AddressHint string `json:"address_hint"`

	// LastSeen 最后一次连接事件或入站消息的时间
	LastSeen time.Time `json:"last_seen"`

	// MessageCount 归属于该节点的入站消息数
	MessageCount uint64 `json:"message_count"`
}

// Clone 克隆记录
func (r *PeerRecord) Clone() *PeerRecord {
	clone := *r
	return &clone
}

// HasDirectAddress 是否记录了可直接拨号的地址
func (r *PeerRecord) HasDirectAddress() bool {
	return r.AddressHint != "" && r.AddressHint != RelayAddressHint
}
