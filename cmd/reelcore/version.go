package main

import (
	"github.com/spf13/cobra"

	"github.com/PizzaHomicide/reelcore/internal/version"
)

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and build time",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(version.GetVersionInfo())
	},
}
