package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/invaen/ricochet/internal/suggest"
)

var suggestFlags struct {
	param string
}

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Suggest likely trigger locations for a parameter name",
	RunE:  runSuggest,
}

func init() {
	rootCmd.AddCommand(suggestCmd)
	suggestCmd.Flags().StringVar(&suggestFlags.param, "param", "", "parameter name to match against the trigger catalog (required)")
	_ = suggestCmd.MarkFlagRequired("param")
}

func runSuggest(cmd *cobra.Command, args []string) error {
	if suggestFlags.param == "" {
		return usageErrorf("suggest requires --param NAME")
	}

	suggestions := suggest.For(suggestFlags.param)
	if len(suggestions) == 0 {
		logger.Info("no known trigger suggestions for parameter", zap.String("param", suggestFlags.param))
		return nil
	}

	for _, s := range suggestions {
		logger.Info("suggested trigger location",
			zap.String("param", suggestFlags.param),
			zap.String("location", s.Location),
			zap.String("likelihood", s.Likelihood),
			zap.String("description", s.Description),
			zap.Strings("manual_steps", s.ManualSteps))
	}
	return nil
}
