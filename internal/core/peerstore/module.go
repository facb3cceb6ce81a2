package peerstore

import (
	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/Lejla94/lxp2p/internal/core/storage"
	pkgif "github.com/Lejla94/lxp2p/pkg/interfaces"
)

// Params 目录模块依赖参数
type Params struct {
	fx.In

	DB    *storage.DB
	Clock clock.Clock `optional:"true"`
}

// Result 目录模块提供的结果
type Result struct {
	fx.Out

	Directory     *Directory
	PeerDirectory pkgif.PeerDirectory
}

// ProvideDirectory 提供节点目录
func ProvideDirectory(p Params) Result {
	var opts []Option
	if p.Clock != nil {
		opts = append(opts, WithClock(p.Clock))
	}
	d := NewDirectory(p.DB, opts...)
	return Result{Directory: d, PeerDirectory: d}
}

// Module 返回节点目录 Fx 模块
func Module() fx.Option {
	return fx.Module("peerstore",
		fx.Provide(ProvideDirectory),
	)
}
