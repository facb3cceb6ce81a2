package session

import (
	"context"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/Lejla94/lxp2p/config"
	"github.com/Lejla94/lxp2p/internal/core/metrics"
	pkgif "github.com/Lejla94/lxp2p/pkg/interfaces"
)

// Params 会话模块依赖参数
type Params struct {
	fx.In

	Endpoint  pkgif.Endpoint
	Directory pkgif.PeerDirectory
	Config    *config.Config   `optional:"true"`
	Metrics   *metrics.Metrics `optional:"true"`
	Clock     clock.Clock      `optional:"true"`
}

// ProvideClient 创建会话客户端
func ProvideClient(p Params) (*Client, error) {
	return New(p.Endpoint, p.Directory, p.Config,
		WithMetrics(p.Metrics),
		WithClock(p.Clock),
	)
}

// Module 返回会话 Fx 模块
//
// 生命周期:
//   - OnStop: 关闭客户端（先于端点与存储关闭）
func Module() fx.Option {
	return fx.Module("session",
		fx.Provide(ProvideClient),
		fx.Invoke(func(lc fx.Lifecycle, c *Client) {
			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					return c.Close()
				},
			})
		}),
	)
}
