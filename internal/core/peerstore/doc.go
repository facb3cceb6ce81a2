// Package peerstore 实现持久化节点目录
//
// 目录为每个出现过的节点保存一条 types.PeerRecord：
//
//	键:  "peer:" + base58(NodeID)
//	值:  JSON {"peer_id", "address_hint", "last_seen", "message_count"}
//
// 记录在首次接触时惰性创建，之后只更新不删除。
// 读取时忽略未知字段，旧版本可以读取新版本写入的数据。
//
// # 并发
//
// 同一节点的写入通过按键引用计数的锁串行化，不同节点互不阻塞。
// 读-改-写本身运行在 Badger 读写事务中，遇到提交冲突时重试，
// 因此多个进程内 Directory 实例共享引擎时也不会丢失更新。
//
// LastSeen 与 MessageCount 只会增加：时钟回拨时保留较大的旧值。
package peerstore
