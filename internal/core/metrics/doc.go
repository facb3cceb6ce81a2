// Package metrics 提供会话层 Prometheus 指标
//
// 每个节点使用独立的 prometheus.Registry，避免同一进程内多个节点
// （测试中常见）重复注册。命令行通过 promhttp 暴露 /metrics。
//
// 指标：
//
//	lxp2p_connections_active                当前活跃连接数
//	lxp2p_connections_total{direction}      建立过的连接数
//	lxp2p_messages_received_total{mode}     入站消息数
//	lxp2p_messages_truncated_total{mode}    被截断的入站消息数
//	lxp2p_messages_sent_total{mode}         出站消息数
//	lxp2p_handler_errors_total{mode}        处理器错误数
//	lxp2p_datagrams_dropped_total           队列满被丢弃的数据报数
//
// 所有方法对 nil *Metrics 安全，禁用指标时直接传 nil。
package metrics
