package config

import (
	"errors"
	"path/filepath"
)

// DefaultKeyFile 默认的身份密钥文件名（相对于数据目录）
const DefaultKeyFile = "identity.key"

// IdentityConfig 身份配置
//
// 节点身份是一对 Ed25519 密钥，NodeID 由公钥派生。
// 密钥以 PEM 格式持久化，重启后节点 ID 保持不变。
type IdentityConfig struct {
	// KeyFile 密钥文件路径
	// 相对路径相对于 Storage.DataDir 解析
	KeyFile string `json:"key_file"`

	// AutoGenerate 当密钥文件不存在时是否自动生成
	AutoGenerate bool `json:"auto_generate"`
}

// DefaultIdentityConfig 返回默认身份配置
func DefaultIdentityConfig() IdentityConfig {
	return IdentityConfig{
		KeyFile:      DefaultKeyFile,
		AutoGenerate: true,
	}
}

// Validate 验证身份配置
func (c IdentityConfig) Validate() error {
	if c.KeyFile == "" {
		return errors.New("key_file cannot be empty")
	}
	if filepath.Base(c.KeyFile) == "." || filepath.Base(c.KeyFile) == string(filepath.Separator) {
		return errors.New("key_file must name a file")
	}
	return nil
}
