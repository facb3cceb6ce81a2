// Package messaging 实现三种投递模式的流协议处理器
//
// # 投递模式
//
//   - uni: 对端打开单向流写入消息并结束，接收方不回复
//   - bi: 对端打开双向流写入请求，接收方回复 "ACK from <本地ID>!" 后结束发送
//   - datagram: 不可靠数据报，一个数据报即一条消息，不重传不重组
//
// # 线格式
//
// 流上的负载就是原始字节，以 FIN 作为消息结束，没有长度前缀。
// 接收方读取至 EOF 或 MaxMessageSize（1 MiB）。超过上限的负载
// 在上限处确定性截断，接收方取消读取（StreamCodeMessageTooLarge），
// 消息事件带 Truncated 标记。
//
// 负载按 UTF-8 宽松解码，非法序列替换为 U+FFFD。
//
// # 副作用顺序
//
// 每条入站消息先推送 MessageEvent，再更新节点目录
// （IncrementMessageCount 同时推进 last_seen）。
// 双向流在目录更新之后才写确认；确认失败不回滚已记录的接收。
//
// 读取失败（流中途出错）时不推送事件，也不更新目录。
package messaging
