package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Lejla94/lxp2p/pkg/types"
)

// connect <peer> <host:port>: 建立连接并记录地址提示
func connectCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "connect <peer> <host:port>",
		Short: "连接对端并保存其地址",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			peer, err := types.ParseNodeID(args[0])
			if err != nil {
				return err
			}
			if err := types.ValidateHostPort(args[1]); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			node, err := startNode(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = node.Close() }()

			if err := node.Connect(ctx, peer, args[1]); err != nil {
				return err
			}
			fmt.Printf("connected to %s\n", peer.ShortString())
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "连接超时")
	return cmd
}
