package storage

import (
	"context"

	"go.uber.org/fx"

	"github.com/Lejla94/lxp2p/config"
)

// Params 存储模块依赖参数
type Params struct {
	fx.In

	Config *config.Config `optional:"true"`
}

// Module 返回存储 Fx 模块
//
// 生命周期:
//   - OnStart: 启动值日志 GC
//   - OnStop: 关闭数据库
func Module() fx.Option {
	return fx.Module("storage",
		fx.Provide(ProvideDB),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideDB 按节点配置打开数据库
func ProvideDB(p Params) (*DB, error) {
	db, err := Open(OptionsFromConfig(p.Config))
	if err != nil {
		logger.Error("打开数据库失败", "error", err)
		return nil, err
	}
	return db, nil
}

func registerLifecycle(lc fx.Lifecycle, db *DB) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			db.StartGC()
			return nil
		},
		OnStop: func(context.Context) error {
			if err := db.Close(); err != nil {
				logger.Warn("关闭数据库失败", "error", err)
				return err
			}
			return nil
		},
	})
}
