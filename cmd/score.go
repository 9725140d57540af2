package main

import (
	"coach/internal/scoring"
	"errors"

	"github.com/spf13/cobra"
)

type scoreOutput struct {
	Model         string   `json:"model"`
	Score         *float64 `json:"score,omitempty"`
	Reasons       []string `json:"reasons,omitempty"`
	NotEnoughData bool     `json:"notEnoughData,omitempty"`
}

var (
	scoreRequest requestFlags

	scoreCmd = &cobra.Command{
		Use:   "score MODEL...",
		Short: "Score a request with one or more models",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, cleanup, err := setupChecked()
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, err := scoreRequest.context(e)
			if err != nil {
				return err
			}

			outputs := make([]scoreOutput, 0, len(args))
			for _, id := range args {
				output := scoreOutput{Model: id}
				result, err := e.Score(ctx, id)
				switch {
				case errors.Is(err, scoring.ErrNotEnoughData):
					output.NotEnoughData = true
				case err != nil:
					return err
				default:
					output.Score = &result.Score
					output.Reasons = result.Reasons
				}
				outputs = append(outputs, output)
			}
			return printJSON(cmd.OutOrStdout(), outputs)
		},
	}
)

func init() {
	scoreRequest.register(scoreCmd)
	rootCmd.AddCommand(scoreCmd)
}
