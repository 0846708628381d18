package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/glengine/internal/report"
)

func newExportCommand(opts *globalOptions) *cobra.Command {
	var month, format, out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export accounts, journal, transactions and reports as CSV or XLSX",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var write func(io.Writer, []report.Section) error
			switch format {
			case "csv":
				write = report.WriteCSV
			case "xlsx":
				if out == "" {
					return fmt.Errorf("--out is required for xlsx exports")
				}
				write = report.WriteXLSX
			default:
				return fmt.Errorf("unknown export format %q (want csv or xlsx)", format)
			}

			m, err := monthFlag(month)
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			sections, err := a.ledger.Export(cmd.Context(), a.tenant, m)
			if err != nil {
				return err
			}
			if out == "" {
				return write(cmd.OutOrStdout(), sections)
			}
			return writeFile(out, func(w io.Writer) error { return write(w, sections) })
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "month as YYYY-MM (default: current month)")
	cmd.Flags().StringVar(&format, "format", "csv", "export format: csv or xlsx")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: stdout, csv only)")
	return cmd
}
