package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"txdash/internal/export"
	"txdash/internal/log"
)

func newExportCommand(app *App) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the grouped transactions to an XLSX workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := app.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer ws.Close()

			idx := ws.sess.Index()
			if err := export.WriteFile(out, idx, ws.locale, ws.sess.StatusName); err != nil {
				return err
			}
			app.Logger.WithComponent(log.ComponentExport).Info("Workbook written", "path", out, "transactions", idx.Count())
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d transactions in %d sheets to %s\n", idx.Count(), max(len(idx.Years), 1), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output .xlsx path")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}
