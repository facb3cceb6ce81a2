package peerstore

import "errors"

var (
	// ErrDirectory 节点目录读写失败
	ErrDirectory = errors.New("peerstore: directory failure")

	// ErrCorruptRecord 记录无法解码
	ErrCorruptRecord = errors.New("peerstore: corrupt record")
)
