package metrics

import (
	"go.uber.org/fx"

	"github.com/Lejla94/lxp2p/config"
)

// Params Metrics 依赖参数
type Params struct {
	fx.In

	Config *config.Config `optional:"true"`
}

// Module 返回 metrics 的 Fx 模块
func Module() fx.Option {
	return fx.Module("metrics",
		fx.Provide(ProvideMetrics),
	)
}

// ProvideMetrics 创建指标；配置禁用时返回 nil
func ProvideMetrics(p Params) *Metrics {
	if p.Config != nil && !p.Config.Metrics.Enabled {
		logger.Debug("指标已禁用")
		return nil
	}
	return New()
}
