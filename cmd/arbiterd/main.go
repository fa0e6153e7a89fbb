// arbiterd 运行单个事件循环上的 Arbiter 与 Fiber 池，并暴露 Prometheus 指标
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version 运行时版本
const version = "0.1.dev"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "arbiterd",
		Short:         "Actor runtime on a single-threaded event loop",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newRunCmd(), newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the runtime version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
