package main

import (
	"github.com/spf13/cobra"

	degkit "github.com/degkit/degkit"
)

func analyzeCmd() *cobra.Command {
	var temperature float64

	cmd := &cobra.Command{
		Use:   "analyze <smiles> <stress>",
		Short: "Report descriptors, reactive sites, susceptibility, and kinetics",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(func(engine degkit.Engine) error {
				analysis, err := engine.AnalyzeStructure(cmd.Context(), args[0], stressArg(args[1]),
					degkit.WithTemperature(temperature))
				if err != nil {
					return err
				}
				return printJSON(analysis)
			})
		},
	}

	cmd.Flags().Float64Var(&temperature, "temperature", 25, "kinetics estimation temperature in °C")
	return cmd
}
