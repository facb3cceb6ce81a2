package config

import (
	"errors"
	"path/filepath"
)

// StorageConfig 存储配置
//
// 节点目录（PeerRecord）保存在 BadgerDB 中，通过 Key 前缀隔离。
//
// 数据目录结构：
//
//	${DataDir}/
//	├── peers.db/           # BadgerDB 节点目录库
//	│   ├── 000001.vlog
//	│   ├── 000001.sst
//	│   └── MANIFEST
//	└── identity.key        # 节点身份私钥（PEM）
type StorageConfig struct {
	// DataDir 数据目录路径
	// 默认值: "./data"
	DataDir string `json:"data_dir"`

	// InMemory 使用内存模式（测试用，数据不落盘）
	InMemory bool `json:"in_memory,omitempty"`

	// SyncWrites 每次写入后同步到磁盘
	SyncWrites bool `json:"sync_writes"`
}

// DefaultStorageConfig 返回默认的存储配置
func DefaultStorageConfig() StorageConfig {
	return StorageConfig{
		DataDir:    "./data",
		SyncWrites: true,
	}
}

// Validate 验证存储配置的有效性
func (c StorageConfig) Validate() error {
	if c.DataDir == "" && !c.InMemory {
		return errors.New("data_dir cannot be empty")
	}
	return nil
}

// DBPath 返回 BadgerDB 数据库路径
func (c StorageConfig) DBPath() string {
	return filepath.Join(c.DataDir, "peers.db")
}
