package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	degkit "github.com/degkit/degkit"
)

// request is the one-shot action envelope read from stdin. Fields beyond
// action are interpreted per action; unknown fields are ignored.
type request struct {
	Action             string   `json:"action"`
	SMILES             string   `json:"smiles"`
	StressType         string   `json:"stress_type"`
	MaxProducts        int      `json:"max_products"`
	DegradationPercent *float64 `json:"degradation_percent"`
	Temperature        *float64 `json:"temperature"`
	PriorMean          float64  `json:"prior_mean"`
	PriorStd           float64  `json:"prior_std"`
	DataMean           float64  `json:"data_mean"`
	DataStd            float64  `json:"data_std"`
	N                  int      `json:"n"`
}

func requestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "request",
		Short: "Execute one JSON request from stdin and print the result",
		Long: `request reads a single JSON object from stdin with an "action" field
(predict_products, predict_mb, analyze_structure, or bayesian_update) and
action-specific parameters, then prints the result as JSON on stdout.
Errors are reported as {"error": "..."} with a non-zero exit.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var req request
			if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
				return reportError(fmt.Errorf("parsing request: %w", err))
			}

			var (
				result interface{}
				err    error
			)
			runErr := withEngine(func(engine degkit.Engine) error {
				result, err = dispatch(cmd, engine, req)
				return nil
			})
			if runErr != nil {
				return reportError(runErr)
			}
			if err != nil {
				return reportError(err)
			}
			return printJSON(result)
		},
	}
}

func dispatch(cmd *cobra.Command, engine degkit.Engine, req request) (interface{}, error) {
	ctx := cmd.Context()
	stress := stressArg(req.StressType)

	switch req.Action {
	case "predict_products":
		var opts []degkit.PredictOption
		if req.MaxProducts > 0 {
			opts = append(opts, degkit.WithMaxProducts(req.MaxProducts))
		}
		products, err := engine.PredictProducts(ctx, req.SMILES, stress, opts...)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"products": products}, nil

	case "predict_mb":
		degradation := 10.0
		if req.DegradationPercent != nil {
			degradation = *req.DegradationPercent
		}
		return engine.ProjectMassBalance(ctx, req.SMILES, stress, degradation)

	case "analyze_structure":
		var opts []degkit.AnalyzeOption
		if req.Temperature != nil {
			opts = append(opts, degkit.WithTemperature(*req.Temperature))
		}
		return engine.AnalyzeStructure(ctx, req.SMILES, stress, opts...)

	case "bayesian_update":
		return engine.UpdatePosterior(req.PriorMean, req.PriorStd, req.DataMean, req.DataStd, req.N), nil

	default:
		return nil, fmt.Errorf("unknown action: %q", req.Action)
	}
}

// reportError mirrors the error onto stdout as a JSON envelope so callers
// reading only stdout still see a parseable result.
func reportError(err error) error {
	_ = printJSON(map[string]string{"error": err.Error()})
	return err
}
