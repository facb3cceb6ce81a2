package identity

import (
	"go.uber.org/fx"

	"github.com/Lejla94/lxp2p/config"
)

// ModuleInput 定义模块输入依赖
type ModuleInput struct {
	fx.In

	Config *config.Config

	// Identity 直接注入的身份（可选，优先于密钥文件）
	Identity *Identity `name:"preset_identity" optional:"true"`
}

// ProvideIdentity 提供节点身份
//
// 优先级：注入的身份 > 密钥文件 > 自动生成。
func ProvideIdentity(input ModuleInput) (*Identity, error) {
	if input.Identity != nil {
		return input.Identity, nil
	}
	return LoadOrCreate(input.Config.KeyPath(), input.Config.Identity.AutoGenerate)
}

// Module 返回 fx 模块配置
func Module() fx.Option {
	return fx.Module("identity",
		fx.Provide(ProvideIdentity),
	)
}
