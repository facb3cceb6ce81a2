// Package mocks 提供测试用的手写替身
//
// 包含内存中的传输端点、连接、流、节点目录与事件接收方，
// 用于在不启动真实 QUIC 的情况下驱动会话层与协议处理器。
package mocks
