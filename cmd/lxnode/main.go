// Package main 提供 lxnode 命令行入口
package main

import (
	"fmt"
	"os"

	"github.com/Lejla94/lxp2p/cmd/lxnode/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
