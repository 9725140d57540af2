package main

import (
	"github.com/spf13/cobra"
)

var (
	diagnoseRequest requestFlags

	diagnoseCmd = &cobra.Command{
		Use:   "diagnose",
		Short: "Compute the full diagnostic of a request",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, cleanup, err := setupChecked()
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, err := diagnoseRequest.context(e)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), e.Diagnose(ctx))
		},
	}
)

func init() {
	diagnoseRequest.register(diagnoseCmd)
	rootCmd.AddCommand(diagnoseCmd)
}
