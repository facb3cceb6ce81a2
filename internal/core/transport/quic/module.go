package quic

import (
	"context"

	"go.uber.org/fx"

	"github.com/Lejla94/lxp2p/config"
	"github.com/Lejla94/lxp2p/internal/core/identity"
	pkgif "github.com/Lejla94/lxp2p/pkg/interfaces"
)

// Params 端点模块依赖参数
type Params struct {
	fx.In

	Identity *identity.Identity
	Config   *config.Config
}

// Result 端点模块提供的结果
type Result struct {
	fx.Out

	Endpoint  *Endpoint
	Transport pkgif.Endpoint
}

// ProvideEndpoint 创建并绑定 QUIC 端点
func ProvideEndpoint(p Params) (Result, error) {
	ep, err := New(p.Identity, p.Config.Transport)
	if err != nil {
		return Result{}, err
	}
	return Result{Endpoint: ep, Transport: ep}, nil
}

// Module 返回 QUIC 端点 Fx 模块
//
// 生命周期:
//   - OnStop: 关闭端点
func Module() fx.Option {
	return fx.Module("transport/quic",
		fx.Provide(ProvideEndpoint),
		fx.Invoke(func(lc fx.Lifecycle, ep *Endpoint) {
			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					return ep.Close()
				},
			})
		}),
	)
}
