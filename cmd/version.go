package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var version = "unknown"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of " + app,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("%s %s\n", app, version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
