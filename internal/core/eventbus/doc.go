// Package eventbus 实现会话事件总线
//
// Bus 实现 interfaces.EventSink，把会话层推送的事件分发给订阅者。
//
// # 投递语义
//
// 推送是发后即忘的：每个订阅者有独立的缓冲通道，缓冲区满时
// 丢弃该订阅者的事件，不阻塞会话层。丢弃会以限频的方式记录警告。
//
// # 使用示例
//
//	bus := eventbus.NewBus()
//	sub := bus.Subscribe(eventbus.BufSize(64), eventbus.Kinds(types.EventKindMessage))
//	defer sub.Close()
//
//	client.Start(bus)
//
//	for ev := range sub.Out() {
//	    msg := ev.(types.MessageEvent)
//	    fmt.Println(msg.Sender, msg.Content)
//	}
package eventbus
