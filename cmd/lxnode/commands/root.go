// Package commands 实现 lxnode 子命令
package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Lejla94/lxp2p"
	"github.com/Lejla94/lxp2p/config"
	"github.com/Lejla94/lxp2p/pkg/lib/log"
)

var logger = log.Logger("cmd/lxnode")

// 全局参数
//
// 命令行参数覆盖配置文件，配置文件覆盖默认值。
var (
	dataDir    string
	configFile string
	listenAddr string
	logLevel   string
	logFormat  string
)

// Execute 运行根命令
func Execute() error {
	root := &cobra.Command{
		Use:           "lxnode",
		Short:         "lxp2p 点对点消息节点",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if logLevel == "" && logFormat == "" {
				return nil
			}
			level, ok := log.ParseLevel(logLevel)
			if logLevel != "" && !ok {
				return fmt.Errorf("unknown log level %q", logLevel)
			}
			log.Setup(os.Stderr, level, log.ParseFormat(logFormat))
			return nil
		},
	}

	root.PersistentFlags().StringVar(&dataDir, "data-dir", "", "数据目录（默认: ./data）")
	root.PersistentFlags().StringVar(&configFile, "config", "", "JSON 配置文件路径")
	root.PersistentFlags().StringVar(&listenAddr, "listen", "", "监听地址 host:port（覆盖配置文件）")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 debug/info/warn/error")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "", "日志格式 text/json")

	root.AddCommand(runCmd(), sendCmd(), connectCmd(), idCmd())
	return root.Execute()
}

// loadConfig 按命令行参数加载配置
func loadConfig() (*config.Config, error) {
	cfg := config.NewConfig()
	if configFile != "" {
		loaded, err := config.LoadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("加载配置文件失败: %w", err)
		}
		cfg = loaded
	}
	if dataDir != "" {
		cfg.Storage.DataDir = dataDir
	}
	if listenAddr != "" {
		cfg.Transport.ListenAddr = listenAddr
	}
	return cfg, cfg.Validate()
}

// startNode 初始化节点并在后台运行接受循环
func startNode(ctx context.Context) (*lxp2p.Node, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	node, err := lxp2p.Initialize(ctx, cfg.Storage.DataDir, lxp2p.WithConfig(cfg))
	if err != nil {
		return nil, err
	}

	go func() {
		if err := node.Start(nil); err != nil {
			logger.Error("接受循环退出", "error", err)
		}
	}()
	return node, nil
}
