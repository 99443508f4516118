package main

import (
	"fmt"

	"github.com/spf13/cobra"

	degkit "github.com/degkit/degkit"
	"github.com/degkit/degkit/eval"
)

func similarCmd() *cobra.Command {
	var k int

	cmd := &cobra.Command{
		Use:   "similar <smiles>",
		Short: "Find stored compounds nearest by fingerprint similarity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(func(engine degkit.Engine) error {
				compounds, err := engine.SimilarCompounds(cmd.Context(), args[0], k)
				if err != nil {
					return err
				}
				return printJSON(map[string]interface{}{"compounds": compounds})
			})
		},
	}

	cmd.Flags().IntVar(&k, "k", 5, "number of neighbors to return")
	return cmd
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <workbook.xlsx>",
		Short: "Import measured stress-study observations from an Excel workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			obs, err := eval.LoadObservationsXLSX(args[0])
			if err != nil {
				return fmt.Errorf("loading %s: %w", args[0], err)
			}
			return withEngine(func(engine degkit.Engine) error {
				inserted, err := engine.ImportObservations(cmd.Context(), obs)
				if err != nil {
					return err
				}
				fmt.Printf("imported %d observations from %s\n", inserted, args[0])
				return nil
			})
		},
	}
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show store counts and engine diagnostics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEngine(func(engine degkit.Engine) error {
				stats, err := engine.Stats(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(stats)
			})
		},
	}
}

func evalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "eval",
		Short: "Run the built-in benchmark datasets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEngine(func(engine degkit.Engine) error {
				ev := eval.New(engine)
				failed := 0
				for _, ds := range eval.AllDatasets() {
					report, err := ev.Run(cmd.Context(), ds)
					if err != nil {
						return fmt.Errorf("dataset %s: %w", ds.Name, err)
					}
					if err := printJSON(report); err != nil {
						return err
					}
					failed += report.Failed
				}
				if failed > 0 {
					return fmt.Errorf("%d benchmark cases failed", failed)
				}
				return nil
			})
		},
	}
}
