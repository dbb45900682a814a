package cli

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"txdash/internal/core"
	apperr "txdash/internal/errors"
	"txdash/internal/mutation"
)

func newListCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print transactions grouped by year and month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := app.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer ws.Close()

			out := cmd.OutOrStdout()
			idx := ws.sess.Index()
			if idx.Empty() {
				fmt.Fprintln(out, "No transactions.")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			header := "\t\tID\t" + strings.Join(ws.locale.Headers(), "\t")
			for _, y := range idx.Years {
				fmt.Fprintf(tw, "%d (%d)\n", y.Year, y.Count())
				for _, m := range y.Months {
					fmt.Fprintf(tw, "\t%s\n", m.Name)
					fmt.Fprintln(tw, header)
					for _, tx := range m.Transactions {
						cells := []string{tx.ID}
						for _, row := range ws.locale.Detail(tx, ws.sess.StatusName) {
							cells = append(cells, row.Value)
						}
						fmt.Fprintf(tw, "\t\t%s\n", strings.Join(cells, "\t"))
					}
				}
			}
			return tw.Flush()
		},
	}
}

func newShowCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show one transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := app.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer ws.Close()

			if err := ws.sess.OpenView(args[0]); err != nil {
				return err
			}
			tx := *ws.sess.Dialog().Payload
			defer ws.closeView()

			return printDetail(cmd.OutOrStdout(), ws, tx)
		},
	}
}

type draftFlags struct {
	productID, productName, customer, amount, status string
}

func (f *draftFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.productID, "product-id", "", "product ID")
	cmd.Flags().StringVar(&f.productName, "product-name", "", "product name")
	cmd.Flags().StringVar(&f.customer, "customer", "", "customer name")
	cmd.Flags().StringVar(&f.amount, "amount", "", "amount, a non-negative decimal")
	cmd.Flags().StringVar(&f.status, "status", "", "status code from the catalog")
}

// apply overlays the flags the operator actually passed onto d.
func (f *draftFlags) apply(cmd *cobra.Command, d mutation.Draft) mutation.Draft {
	set := func(name string, dst *string, v string) {
		if cmd.Flags().Changed(name) {
			*dst = v
		}
	}
	set("product-id", &d.ProductID, f.productID)
	set("product-name", &d.ProductName, f.productName)
	set("customer", &d.CustomerName, f.customer)
	set("amount", &d.Amount, f.amount)
	set("status", &d.Status, f.status)
	return d
}

func newAddCommand(app *App) *cobra.Command {
	var flags draftFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a transaction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := app.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer ws.Close()

			ws.sess.OpenAdd()
			saved, err := ws.sess.Submit(cmd.Context(), flags.apply(cmd, mutation.Draft{}))
			if err != nil {
				printFieldErrors(cmd.ErrOrStderr(), err)
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", saved.ID)
			return printDetail(cmd.OutOrStdout(), ws, saved)
		},
	}
	flags.register(cmd)
	return cmd
}

func newEditCommand(app *App) *cobra.Command {
	var flags draftFlags
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change a transaction; omitted flags keep their current value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := app.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer ws.Close()

			if err := ws.sess.OpenEdit(args[0]); err != nil {
				return err
			}
			current := *ws.sess.Dialog().Payload
			saved, err := ws.sess.Submit(cmd.Context(), flags.apply(cmd, mutation.DraftFrom(current)))
			if err != nil {
				printFieldErrors(cmd.ErrOrStderr(), err)
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", saved.ID)
			return printDetail(cmd.OutOrStdout(), ws, saved)
		},
	}
	flags.register(cmd)
	return cmd
}

func newDeleteCommand(app *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a transaction after confirmation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := app.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer ws.Close()

			out := cmd.OutOrStdout()
			gate := mutation.Confirmed(true)
			if !yes {
				gate = promptGate(cmd.InOrStdin(), out, ws)
			}
			deleted, err := ws.sess.Delete(cmd.Context(), args[0], gate)
			if err != nil {
				return err
			}
			if deleted {
				fmt.Fprintf(out, "Deleted %s\n", args[0])
			} else {
				fmt.Fprintln(out, "Aborted.")
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

// promptGate asks on out and reads the answer from in. Anything but y/yes
// declines, end of input included.
func promptGate(in io.Reader, out io.Writer, ws *workspace) mutation.ConfirmGate {
	return func(tx core.Transaction) bool {
		fmt.Fprintf(out, "Delete %s (%s, %s)? [y/N] ", tx.ID, tx.ProductName, ws.locale.Amount(tx.Amount))
		answer, _ := bufio.NewReader(in).ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
			return true
		}
		return false
	}
}

func printDetail(out io.Writer, ws *workspace, tx core.Transaction) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, row := range ws.locale.Detail(tx, ws.sess.StatusName) {
		fmt.Fprintf(tw, "%s:\t%s\n", row.Label, row.Value)
	}
	return tw.Flush()
}

func printFieldErrors(out io.Writer, err error) {
	appErr, ok := apperr.As(err)
	if !ok || len(appErr.Fields) == 0 {
		return
	}
	keys := make([]string, 0, len(appErr.Fields))
	for k := range appErr.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(out, "  %s: %s\n", k, appErr.Fields[k])
	}
}
