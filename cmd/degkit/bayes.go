package main

import (
	"github.com/spf13/cobra"

	degkit "github.com/degkit/degkit"
)

func bayesCmd() *cobra.Command {
	var (
		priorMean, priorStd float64
		dataMean, dataStd   float64
		n                   int
	)

	cmd := &cobra.Command{
		Use:   "bayes",
		Short: "Fuse a prior estimate with measured data",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEngine(func(engine degkit.Engine) error {
				posterior := engine.UpdatePosterior(priorMean, priorStd, dataMean, dataStd, n)
				return printJSON(posterior)
			})
		},
	}

	cmd.Flags().Float64Var(&priorMean, "prior-mean", 0, "prior mean")
	cmd.Flags().Float64Var(&priorStd, "prior-std", 0, "prior standard deviation")
	cmd.Flags().Float64Var(&dataMean, "data-mean", 0, "measured mean")
	cmd.Flags().Float64Var(&dataStd, "data-std", 0, "measured standard deviation")
	cmd.Flags().IntVar(&n, "n", 3, "number of replicates behind the measurement")
	_ = cmd.MarkFlagRequired("prior-mean")
	_ = cmd.MarkFlagRequired("prior-std")
	_ = cmd.MarkFlagRequired("data-mean")
	_ = cmd.MarkFlagRequired("data-std")
	return cmd
}

func historicalCmd() *cobra.Command {
	var (
		metric            string
		dataMean, dataStd float64
		n                 int
	)

	cmd := &cobra.Command{
		Use:   "historical <smiles> <stress>",
		Short: "Update a prior pooled from stored observations with new data",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(func(engine degkit.Engine) error {
				posterior, err := engine.HistoricalPosterior(cmd.Context(), args[0], stressArg(args[1]),
					metric, dataMean, dataStd, n)
				if err != nil {
					return err
				}
				return printJSON(posterior)
			})
		},
	}

	cmd.Flags().StringVar(&metric, "metric", "degradation_percent", "observed metric name")
	cmd.Flags().Float64Var(&dataMean, "data-mean", 0, "measured mean")
	cmd.Flags().Float64Var(&dataStd, "data-std", 0, "measured standard deviation")
	cmd.Flags().IntVar(&n, "n", 3, "number of replicates behind the measurement")
	_ = cmd.MarkFlagRequired("data-mean")
	_ = cmd.MarkFlagRequired("data-std")
	return cmd
}
