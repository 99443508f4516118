package main

import (
	"fmt"

	"github.com/spf13/cobra"

	degkit "github.com/degkit/degkit"
)

func predictCmd() *cobra.Command {
	var maxProducts int

	cmd := &cobra.Command{
		Use:   "predict <smiles> <stress>",
		Short: "Predict degradation products for a structure under a stress condition",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(func(engine degkit.Engine) error {
				var opts []degkit.PredictOption
				if maxProducts > 0 {
					opts = append(opts, degkit.WithMaxProducts(maxProducts))
				}
				products, err := engine.PredictProducts(cmd.Context(), args[0], stressArg(args[1]), opts...)
				if err != nil {
					return err
				}
				return printJSON(map[string]interface{}{"products": products})
			})
		},
	}

	cmd.Flags().IntVar(&maxProducts, "max-products", 0, "cap on returned candidates (default from config)")
	return cmd
}

func mbCmd() *cobra.Command {
	var degradation float64

	cmd := &cobra.Command{
		Use:   "mb <smiles> <stress>",
		Short: "Project mass balance at a given degradation level",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if degradation < 0 || degradation > 100 {
				return fmt.Errorf("degradation must be in [0,100], got %v", degradation)
			}
			return withEngine(func(engine degkit.Engine) error {
				mb, err := engine.ProjectMassBalance(cmd.Context(), args[0], stressArg(args[1]), degradation)
				if err != nil {
					return err
				}
				return printJSON(mb)
			})
		},
	}

	cmd.Flags().Float64Var(&degradation, "degradation", 10, "observed or assumed degradation percent")
	return cmd
}
