package lxp2p

import (
	"crypto/ed25519"
	"errors"
	"fmt"

	"go.uber.org/fx"

	"github.com/Lejla94/lxp2p/config"
	"github.com/Lejla94/lxp2p/internal/core/identity"
)

// Option 节点选项
type Option func(*options) error

type options struct {
	config     *config.Config
	identity   *identity.Identity
	listenAddr string
	inMemory   bool
	fxOptions  []fx.Option
}

// WithConfig 使用完整配置（数据目录仍以 Initialize 参数为准）
func WithConfig(cfg *config.Config) Option {
	return func(o *options) error {
		if cfg == nil {
			return errors.New("config is nil")
		}
		o.config = cfg
		return nil
	}
}

// WithConfigFile 从 JSON 文件加载配置
func WithConfigFile(path string) Option {
	return func(o *options) error {
		cfg, err := config.LoadFile(path)
		if err != nil {
			return err
		}
		o.config = cfg
		return nil
	}
}

// WithListenAddr 设置监听地址（host:port）
func WithListenAddr(addr string) Option {
	return func(o *options) error {
		o.listenAddr = addr
		return nil
	}
}

// WithPrivateKey 使用给定私钥作为节点身份（不读写密钥文件）
func WithPrivateKey(key ed25519.PrivateKey) Option {
	return func(o *options) error {
		id, err := identity.New(key)
		if err != nil {
			return fmt.Errorf("invalid private key: %w", err)
		}
		o.identity = id
		return nil
	}
}

// WithInMemoryStorage 节点目录只保存在内存中
func WithInMemoryStorage() Option {
	return func(o *options) error {
		o.inMemory = true
		return nil
	}
}

// WithFxOptions 追加自定义 Fx 选项
func WithFxOptions(opts ...fx.Option) Option {
	return func(o *options) error {
		o.fxOptions = append(o.fxOptions, opts...)
		return nil
	}
}

// buildConfig 合并选项得到最终配置
func (o *options) buildConfig(dataDir string) (*config.Config, error) {
	cfg := o.config
	if cfg == nil {
		cfg = config.NewConfig()
	}
	if dataDir != "" {
		cfg.Storage.DataDir = dataDir
	}
	if o.listenAddr != "" {
		cfg.Transport.ListenAddr = o.listenAddr
	}
	if o.inMemory {
		cfg.Storage.InMemory = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
