package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Lejla94/lxp2p/pkg/types"
)

// send <peer> <message>: 向对端发送一条消息
func sendCmd() *cobra.Command {
	var (
		addr    string
		mode    string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "send <peer> <message>",
		Short: "向对端发送消息",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			peer, err := types.ParseNodeID(args[0])
			if err != nil {
				return err
			}
			if addr != "" {
				if err := types.ValidateHostPort(addr); err != nil {
					return err
				}
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			node, err := startNode(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = node.Close() }()

			if addr != "" {
				if err := node.Connect(ctx, peer, addr); err != nil {
					return err
				}
			}

			switch mode {
			case "uni":
				err = node.Send(ctx, peer, args[1])
			case "bi":
				var ack string
				ack, err = node.Request(ctx, peer, args[1])
				if err == nil {
					fmt.Println(ack)
				}
			case "datagram":
				err = node.SendDatagram(ctx, peer, args[1])
			default:
				return fmt.Errorf("unknown mode %q (uni/bi/datagram)", mode)
			}
			if err != nil {
				return err
			}
			fmt.Println("sent")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "对端地址 host:port（未知对端时必需）")
	cmd.Flags().StringVar(&mode, "mode", "bi", "投递模式 uni/bi/datagram")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "发送超时")
	return cmd
}
