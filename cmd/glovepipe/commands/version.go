package commands

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the glovepipe version",
	Run: func(cmd *cobra.Command, args []string) {
		version := "dev"
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
			version = info.Main.Version
		}
		fmt.Println("glovepipe", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
