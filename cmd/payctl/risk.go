package main

import (
	"encoding/json"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/baharkarakas/payments-core/internal/api/validate"
	"github.com/baharkarakas/payments-core/internal/risk"
)

func riskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "risk",
		Short: "Risk engine tools",
	}
	cmd.AddCommand(riskEvaluateCmd())
	return cmd
}

func riskEvaluateCmd() *cobra.Command {
	var (
		amount    string
		clock     string
		attempts  int
		channel   string
		threshold string
		limit     int
	)
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score a request offline and print the verdict as JSON",
		Long: `Run the risk rules against one request without touching any store.

Examples:
  payctl risk evaluate --amount 1500 --time 23:00 --attempts 5
  payctl risk evaluate --amount 350 --time 14:00 --attempts 1 --threshold 500`,
		RunE: func(cmd *cobra.Command, args []string) error {
			amt, err := decimal.NewFromString(amount)
			if err != nil {
				return validate.Errs{{Field: "amount", Msg: "must be a decimal number"}}
			}
			thr, err := decimal.NewFromString(threshold)
			if err != nil {
				return validate.Errs{{Field: "threshold", Msg: "must be a decimal number"}}
			}
			req, err := validate.RiskInput(validate.RiskPayload{
				Amount:   amt,
				Time:     clock,
				Attempts: &attempts,
				Channel:  channel,
			})
			if err != nil {
				return err
			}

			verdict := risk.NewEngine(risk.Rules(thr, limit)...).Evaluate(req)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(verdict)
		},
	}
	cmd.Flags().StringVar(&amount, "amount", "", "transaction amount")
	cmd.Flags().StringVar(&clock, "time", "", "local time of the request, HH:MM")
	cmd.Flags().IntVar(&attempts, "attempts", 0, "attempts in the last 24h")
	cmd.Flags().StringVar(&channel, "channel", risk.DefaultChannel, "payment channel")
	cmd.Flags().StringVar(&threshold, "threshold", "300", "high-value threshold")
	cmd.Flags().IntVar(&limit, "max-attempts", 3, "excessive-attempts limit")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("time")
	return cmd
}
