package storage

import (
	"fmt"
	"time"

	"github.com/Lejla94/lxp2p/config"
)

// Options 数据库选项
type Options struct {
	// Path 数据库目录（InMemory 为 false 时必需）
	Path string

	// InMemory 数据只保存在内存中
	InMemory bool

	// SyncWrites 每次提交都落盘
	SyncWrites bool

	// GCInterval 值日志 GC 间隔，0 禁用
	GCInterval time.Duration

	// GCDiscardRatio 值日志文件可回收比例阈值
	GCDiscardRatio float64

	// MaxRetries Mutate 遇到写冲突时的最大尝试次数
	MaxRetries int
}

// DefaultOptions 返回 path 上的默认选项
func DefaultOptions(path string) Options {
	return Options{
		Path:           path,
		SyncWrites:     true,
		GCInterval:     10 * time.Minute,
		GCDiscardRatio: 0.5,
		MaxRetries:     32,
	}
}

// OptionsFromConfig 从节点配置生成数据库选项
func OptionsFromConfig(cfg *config.Config) Options {
	if cfg == nil {
		return DefaultOptions(config.DefaultStorageConfig().DBPath())
	}
	opts := DefaultOptions(cfg.Storage.DBPath())
	opts.InMemory = cfg.Storage.InMemory
	opts.SyncWrites = cfg.Storage.SyncWrites
	return opts
}

// Validate 校验选项
func (o Options) Validate() error {
	if o.Path == "" && !o.InMemory {
		return fmt.Errorf("%w: path is required", ErrInvalidOptions)
	}
	if o.GCInterval > 0 && (o.GCDiscardRatio <= 0 || o.GCDiscardRatio >= 1) {
		return fmt.Errorf("%w: gc discard ratio %.2f", ErrInvalidOptions, o.GCDiscardRatio)
	}
	if o.MaxRetries < 1 {
		return fmt.Errorf("%w: max retries %d", ErrInvalidOptions, o.MaxRetries)
	}
	return nil
}
