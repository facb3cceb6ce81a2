package lxp2p

import (
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/Lejla94/lxp2p/config"
	"github.com/Lejla94/lxp2p/internal/core/eventbus"
	"github.com/Lejla94/lxp2p/internal/core/identity"
	"github.com/Lejla94/lxp2p/internal/core/metrics"
	"github.com/Lejla94/lxp2p/internal/core/peerstore"
	"github.com/Lejla94/lxp2p/internal/core/session"
	"github.com/Lejla94/lxp2p/internal/core/storage"
	"github.com/Lejla94/lxp2p/internal/core/transport/quic"
	pkgif "github.com/Lejla94/lxp2p/pkg/interfaces"
)

// buildFxApp 组装节点
//
// 加载顺序（按依赖）：
//
//	Storage → Peerstore → EventBus → Metrics → Identity → QUIC Endpoint → Session
//
// 关闭顺序相反：Session 先关闭连接，随后端点、事件总线与存储。
func buildFxApp(cfg *config.Config, o *options, node *Node) *fx.App {
	modules := []fx.Option{
		fx.Supply(cfg),

		storage.Module(),
		peerstore.Module(),
		eventbus.Module(),
		metrics.Module(),
		identity.Module(),
		quic.Module(),
		session.Module(),
	}

	if o.identity != nil {
		modules = append(modules, fx.Supply(
			fx.Annotated{Name: "preset_identity", Target: o.identity},
		))
	}

	if len(o.fxOptions) > 0 {
		modules = append(modules, o.fxOptions...)
	}

	modules = append(modules,
		fx.Invoke(injectNodeComponents(node)),
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		}),
	)

	return fx.New(modules...)
}

// nodeInjectParams Node 组件注入参数
type nodeInjectParams struct {
	fx.In

	Client    *session.Client
	Bus       *eventbus.Bus
	Directory pkgif.PeerDirectory
	Metrics   *metrics.Metrics `optional:"true"`
}

func injectNodeComponents(node *Node) interface{} {
	return func(p nodeInjectParams) {
		node.client = p.Client
		node.bus = p.Bus
		node.dir = p.Directory
		node.metrics = p.Metrics
	}
}
