package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Lejla94/lxp2p/internal/core/identity"
)

// id: 打印本地节点 ID（不存在时生成密钥）
func idCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "id",
		Short: "打印本地节点 ID",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			id, err := identity.LoadOrCreate(cfg.KeyPath(), cfg.Identity.AutoGenerate)
			if err != nil {
				return err
			}
			fmt.Println(id.ID().String())
			return nil
		},
	}
}
