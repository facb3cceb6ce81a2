// Package types 定义 lxp2p 的基础类型
//
// 本文件定义所有公共错误类型。
package types

import "errors"

var (
	// ErrInvalidNodeID 无效的节点 ID
	ErrInvalidNodeID = errors.New("invalid node ID: must be 32-byte Base58")

	// ErrInvalidAddress 无效的网络地址
	ErrInvalidAddress = errors.New("invalid address: must be host:port")
)
