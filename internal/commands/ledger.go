package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/glengine/internal/period"
	"github.com/cleared-dev/glengine/internal/report"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// monthFlag parses --month; empty means the current month.
func monthFlag(s string) (*period.Month, error) {
	if s == "" {
		return nil, nil
	}
	m, err := period.ParseMonth(s)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func newBalancesCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "balances",
		Short: "Print the signed balance of every account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			rep, err := a.ledger.Balances(cmd.Context(), a.tenant)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rep)
		},
	}
}

func newTransactionsCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "transactions",
		Short: "Print the derived transaction feed, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			feed, err := a.ledger.Transactions(cmd.Context(), a.tenant)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), feed)
		},
	}
}

func newSummaryCommand(opts *globalOptions) *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print monthly income, expenses and net profit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := monthFlag(month)
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			sum, err := a.ledger.Summary(cmd.Context(), a.tenant, m)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), sum)
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "month as YYYY-MM (default: current month)")
	return cmd
}

func newReportCommand(opts *globalOptions) *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:       "report <name|all>",
		Short:     "Print one financial report, or the whole batch",
		Args:      cobra.ExactArgs(1),
		ValidArgs: append([]string{"all"}, report.Names...),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := monthFlag(month)
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			batch, err := a.reports().Reports(cmd.Context(), a.tenant, m)
			if err != nil {
				return err
			}
			if args[0] == "all" {
				return printJSON(cmd.OutOrStdout(), batch)
			}
			rep, err := batch.Get(args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rep)
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "month as YYYY-MM (default: current month)")
	return cmd
}

func newValidateCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check journal entries for unbalanced or malformed postings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			errs, err := a.ledger.Validate(cmd.Context(), a.tenant)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(errs) == 0 {
				fmt.Fprintln(out, "All journal entries are valid.")
				return nil
			}
			for _, e := range errs {
				fmt.Fprintln(out, e.Error())
			}
			return fmt.Errorf("%d validation problem(s) found", len(errs))
		},
	}
}
