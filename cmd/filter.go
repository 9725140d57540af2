package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	filterRequest requestFlags
	filterBest    bool

	filterCmd = &cobra.Command{
		Use:   "filter COLLECTION",
		Short: "List the records of a content collection applying to a request",
		Long: `List the records of a content collection (advice_modules, job_boards, associations,
diagnostic_sentences, testimonials) whose filters all pass for the request,
by decreasing priority then specificity.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, cleanup, err := setupChecked()
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, err := filterRequest.context(e)
			if err != nil {
				return err
			}

			if filterBest {
				best, found := e.BestRecord(ctx, args[0])
				if !found {
					return fmt.Errorf("no record of %s applies", args[0])
				}
				return printJSON(cmd.OutOrStdout(), best)
			}
			return printJSON(cmd.OutOrStdout(), e.FilterRecords(ctx, args[0]))
		},
	}
)

func init() {
	filterRequest.register(filterCmd)
	filterCmd.Flags().BoolVar(&filterBest, "best", false, "only print the most specific record")
	rootCmd.AddCommand(filterCmd)
}
