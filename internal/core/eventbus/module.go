package eventbus

import (
	"context"

	"go.uber.org/fx"

	pkgif "github.com/Lejla94/lxp2p/pkg/interfaces"
)

// ============================================================================
// Fx 模块
// ============================================================================

// Result Fx 模块输出结果
type Result struct {
	fx.Out

	Bus       *Bus
	EventSink pkgif.EventSink
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("eventbus",
		fx.Provide(ProvideEventBus),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideEventBus 提供 Bus 实例
func ProvideEventBus() Result {
	bus := NewBus()
	return Result{
		Bus:       bus,
		EventSink: bus,
	}
}

func registerLifecycle(lc fx.Lifecycle, bus *Bus) {
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return bus.Close()
		},
	})
}
