// Package session 实现会话层：连接多路复用、接受循环与会话客户端
//
// # 组成
//
//   - Multiplexer: 每个连接一个，并发接受单向流、双向流与数据报，
//     为每个流派生独立的处理器 goroutine
//   - 接受循环: 从 Endpoint 接受入站连接，每个连接在独立 goroutine 中
//     完成握手后交给 Multiplexer
//   - 连接注册表: 按节点 ID 缓存活跃连接（LRU），出站发送优先复用
//   - Client: 对外入口，Start 运行接受循环，Send/Request/SendDatagram 发送消息
//
// # 连接生命周期
//
//	Established ──(身份确认)──▶ Active ──(任一来源失败 / 关闭)──▶ Closed
//	     │
//	     └──(无法确认身份)──▶ Closed（ErrProtocolViolation，不推送事件）
//
// 进入 Active 前推送 connection{connected} 并在节点目录中记录地址提示；
// 进入 Closed 时恰好推送一次 connection{disconnected}，之后不再派发。
// 已派发的处理器继续运行至完成，Client.Close 会等待它们。
//
// # 并发
//
// 接受循环与来源循环从不等待派生的工作。不同节点、不同流之间没有顺序保证；
// 同一连接上的数据报由单个 worker 按到达顺序处理，队列满时丢弃。
package session
