package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"expensetracker/internal/core"
	"expensetracker/internal/dashboard"
	"expensetracker/internal/export"
	"expensetracker/internal/services"
)

func newListCommand(a *app) *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := core.ParseFilter(filter)
			if err != nil {
				return err
			}
			return a.withService(cmd, func(ctx context.Context, svc *services.TransactionService) error {
				list, err := svc.List(ctx, f)
				if err != nil {
					return err
				}
				return writeTable(cmd.OutOrStdout(), list)
			})
		},
	}

	filterFlag(cmd, &filter)
	return cmd
}

func writeTable(w io.Writer, list []core.Transaction) error {
	if len(list) == 0 {
		printf(w, "No transactions.\n")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tTYPE\tAMOUNT\tTAG\tTITLE")
	for _, t := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", t.ID, t.Date, t.Type, core.FormatAmount(t.Amount), t.Tag, t.Title)
	}
	return tw.Flush()
}

func newSummaryCommand(a *app) *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print income, expense and balance totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := core.ParseFilter(filter)
			if err != nil {
				return err
			}
			return a.withService(cmd, func(ctx context.Context, svc *services.TransactionService) error {
				list, err := svc.List(ctx, f)
				if err != nil {
					return err
				}
				return writeTotals(cmd.OutOrStdout(), f, len(list), core.Summarize(list))
			})
		},
	}

	filterFlag(cmd, &filter)
	return cmd
}

func writeTotals(w io.Writer, f core.Filter, count int, totals core.Totals) error {
	tw := tabwriter.NewWriter(w, 0, 4, 1, ' ', 0)
	fmt.Fprintf(tw, "Filter:\t%s\n", f)
	fmt.Fprintf(tw, "Transactions:\t%d\n", count)
	fmt.Fprintf(tw, "Income:\t%s\n", core.FormatAmount(totals.Income))
	fmt.Fprintf(tw, "Expense:\t%s\n", core.FormatAmount(totals.Expense))
	fmt.Fprintf(tw, "Balance:\t%s\n", core.FormatAmount(totals.Balance))
	return tw.Flush()
}

func newExportCommand(a *app) *cobra.Command {
	var filter, out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write transactions as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := core.ParseFilter(filter)
			if err != nil {
				return err
			}
			return a.withService(cmd, func(ctx context.Context, svc *services.TransactionService) error {
				list, err := svc.List(ctx, f)
				if err != nil {
					return err
				}
				if out == "-" {
					return export.WriteTransactions(cmd.OutOrStdout(), list)
				}

				file, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create export file: %w", err)
				}
				if err := export.WriteTransactions(file, list); err != nil {
					file.Close()
					return err
				}
				if err := file.Close(); err != nil {
					return fmt.Errorf("close export file: %w", err)
				}
				printf(cmd.OutOrStdout(), "Exported %d transactions to %s\n", len(list), out)
				return nil
			})
		},
	}

	filterFlag(cmd, &filter)
	cmd.Flags().StringVar(&out, "out", "-", "output file, - for stdout")
	return cmd
}

// newWatchCommand prints every state of the list screen until interrupted.
// Lines read from stdin drive the session: "d <id>" deletes, "u" restores the
// last delete and "f <filter>" switches the filter.
func newWatchCommand(a *app) *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the transaction list and its totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := core.ParseFilter(filter)
			if err != nil {
				return err
			}
			return a.withService(cmd, func(ctx context.Context, svc *services.TransactionService) error {
				d := dashboard.New(svc)
				defer d.Close()
				if f != core.FilterAll {
					d.SetFilter(f)
				}

				w := cmd.OutOrStdout()
				input := readLines(ctx, cmd.InOrStdin())
				for {
					select {
					case <-ctx.Done():
						return nil
					case line, ok := <-input:
						if !ok {
							input = nil
							continue
						}
						f = runWatchInput(ctx, cmd, svc, d, f, line)
					case st, ok := <-d.States():
						if !ok {
							return nil
						}
						if st.Filter != f {
							continue
						}
						writeState(w, st)
					}
				}
			})
		},
	}

	filterFlag(cmd, &filter)
	return cmd
}

// readLines forwards trimmed lines from r until EOF or ctx is done.
func readLines(ctx context.Context, r io.Reader) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case out <- strings.TrimSpace(sc.Text()):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// runWatchInput applies one watch command and returns the filter to follow.
// Failures are reported on stderr and keep the session running.
func runWatchInput(ctx context.Context, cmd *cobra.Command, svc *services.TransactionService, d *dashboard.Dashboard, current core.Filter, line string) core.Filter {
	w, errw := cmd.OutOrStdout(), cmd.ErrOrStderr()
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "":
	case "d":
		id, err := parseID(arg)
		if err != nil {
			printf(errw, "%v\n", err)
			return current
		}
		t, err := svc.Get(ctx, id)
		if errors.Is(err, core.ErrNotFound) {
			printf(w, "Transaction #%d not found.\n", id)
			return current
		}
		if err == nil {
			err = d.Delete(ctx, t)
		}
		if err != nil {
			printf(errw, "delete #%d: %v\n", id, err)
			return current
		}
		printf(w, "Deleted transaction #%d, u to undo\n", id)
	case "u":
		if !d.CanUndo() {
			printf(w, "Nothing to undo.\n")
			return current
		}
		restored, err := d.Undo(ctx)
		if err != nil {
			printf(errw, "undo: %v\n", err)
			return current
		}
		printf(w, "Restored transaction #%d\n", restored.ID)
	case "f":
		f, err := core.ParseFilter(arg)
		if err != nil {
			printf(errw, "%v\n", err)
			return current
		}
		d.SetFilter(f)
		return f
	default:
		printf(errw, "unknown command %q: use d <id>, u or f <filter>\n", name)
	}
	return current
}

func writeState(w io.Writer, st core.ViewState) {
	switch st.Status {
	case core.StatusLoading:
		printf(w, "[%s] %s\n", st.Status, st.Filter)
	case core.StatusEmpty:
		printf(w, "[%s] %s: no transactions\n", st.Status, st.Filter)
	case core.StatusError:
		printf(w, "[%s] %s: %v\n", st.Status, st.Filter, st.Err)
	default:
		printf(w, "[%s] %s: %d transactions, income %s, expense %s, balance %s\n",
			st.Status, st.Filter, len(st.Transactions),
			core.FormatAmount(st.Totals.Income),
			core.FormatAmount(st.Totals.Expense),
			core.FormatAmount(st.Totals.Balance))
	}
}
