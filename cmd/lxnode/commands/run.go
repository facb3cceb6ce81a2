package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/Lejla94/lxp2p"
	"github.com/Lejla94/lxp2p/pkg/types"
)

// run: 启动节点并打印收到的事件，直到收到退出信号
func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "启动节点并打印事件",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			node, err := startNode(ctx)
			if err != nil {
				return fmt.Errorf("启动失败: %w", err)
			}
			defer func() { _ = node.Close() }()

			sub := node.Subscribe(lxp2p.BufSize(256))
			defer sub.Close()

			if srv := serveMetrics(node); srv != nil {
				defer shutdownMetrics(srv)
			}

			printNodeInfo(node)
			fmt.Println("节点已启动，按 Ctrl+C 退出")

			for {
				select {
				case <-ctx.Done():
					fmt.Println("\n正在关闭节点...")
					return nil
				case ev, ok := <-sub.Out():
					if !ok {
						return nil
					}
					printEvent(ev)
				}
			}
		},
	}
}

// serveMetrics 在 metrics.listen_addr 上暴露 /metrics
func serveMetrics(node *lxp2p.Node) *http.Server {
	addr := node.Config().Metrics.ListenAddr
	reg := node.MetricsRegistry()
	if addr == "" || reg == nil {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("指标服务异常退出", "addr", addr, "error", err)
		}
	}()
	logger.Info("指标服务已启动", "addr", addr)
	return srv
}

func shutdownMetrics(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}

func printNodeInfo(node *lxp2p.Node) {
	id, _ := node.Identity()
	fmt.Println("════════════════════════════════════════")
	fmt.Printf("  节点 ID:   %s\n", id.String())
	fmt.Printf("  监听地址:  %s\n", node.LocalAddr())
	fmt.Printf("  数据目录:  %s\n", node.Config().Storage.DataDir)
	fmt.Println("════════════════════════════════════════")
}

func printEvent(ev types.Event) {
	switch e := ev.(type) {
	case types.MessageEvent:
		suffix := ""
		if e.Truncated {
			suffix = " (truncated)"
		}
		fmt.Fprintf(os.Stdout, "[%s] %s: %s%s\n", e.Mode, e.Sender.ShortString(), e.Content, suffix)
	case types.ConnectionEvent:
		fmt.Fprintf(os.Stdout, "[conn] %s %s\n", e.PeerID.ShortString(), e.Status)
	case types.ErrorEvent:
		fmt.Fprintf(os.Stderr, "[error] %s\n", e.Description)
	}
}
