package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "portfolio-chat",
		Short:         "Portfolio chat assistant that answers recruiters in the owner's voice",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}
	root.PersistentFlags().String("config", "", "path to a TOML config file (overrides CONFIG_FILE)")

	root.AddCommand(newServeCmd(), newAskCmd(), newClassifyCmd(), newProfileCmd())
	return root
}
