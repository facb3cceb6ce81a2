// Package lxp2p 是点对点消息应用的会话层
//
// 一个进程同时只运行一个节点。Initialize 绑定 QUIC 端点、打开节点目录
// 并返回 Node；Node.Start 开始接受入站连接并把事件推送给接收方。
//
// # 快速开始
//
//	node, err := lxp2p.Initialize(ctx, "./data")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer node.Close()
//
//	sub := node.Subscribe(lxp2p.Kinds(types.EventKindMessage))
//	go node.Start(nil)
//
//	for ev := range sub.Out() {
//	    msg := ev.(types.MessageEvent)
//	    fmt.Printf("%s: %s\n", msg.Sender.ShortString(), msg.Content)
//	}
//
// # 投递模式
//
//   - Send: 单向流，发后即忘
//   - Request: 双向流，返回对端确认 "ACK from <id>!"
//   - SendDatagram: 不可靠数据报
//
// # 生命周期
//
//	Uninitialized ──Initialize──▶ Running ──Close──▶ Closed
//
// Close 释放进程级槽位，之后可以再次 Initialize。
package lxp2p
