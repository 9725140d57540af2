package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var selftestCmd = &cobra.Command{
	Use:   "selftest",
	Short: "Check the model registry, the diagnostic scorers and every content filter",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, cleanup, err := setup()
		if err != nil {
			return err
		}
		defer cleanup()

		if err := e.Check(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "ok")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(selftestCmd)
}
