package commands

import (
	"context"
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"expensetracker/internal/core"
	"expensetracker/internal/services"
)

// transactionFlags are the user-entered fields shared by add and edit.
type transactionFlags struct {
	title  string
	amount string
	typ    string
	tag    string
	date   string
	note   string
}

func (f *transactionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "transaction title")
	cmd.Flags().StringVar(&f.amount, "amount", "", "amount, e.g. 12.50 or 12,50")
	cmd.Flags().StringVar(&f.typ, "type", string(core.Expense), "Income or Expense")
	cmd.Flags().StringVar(&f.tag, "tag", "", "category tag")
	cmd.Flags().StringVar(&f.date, "date", time.Now().Format(core.DateLayout), "date as dd/mm/yyyy")
	cmd.Flags().StringVar(&f.note, "note", "", "free-form note")
}

// apply copies the flags onto t. With onlyChanged, flags the user did not
// set leave the existing values alone.
func (f *transactionFlags) apply(cmd *cobra.Command, t *core.Transaction, onlyChanged bool) error {
	set := func(name string) bool {
		return !onlyChanged || cmd.Flags().Changed(name)
	}
	if set("title") {
		t.Title = f.title
	}
	if set("amount") {
		amount, err := core.ParseAmount(f.amount)
		if err != nil {
			return err
		}
		t.Amount = amount
	}
	if set("type") {
		t.Type = core.TransactionType(f.typ)
	}
	if set("tag") {
		t.Tag = f.tag
	}
	if set("date") {
		t.Date = f.date
	}
	if set("note") {
		t.Note = f.note
	}
	return nil
}

func newAddCommand(a *app) *cobra.Command {
	var flags transactionFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a new transaction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var t core.Transaction
			if err := flags.apply(cmd, &t, false); err != nil {
				return err
			}
			return a.withService(cmd, func(ctx context.Context, svc *services.TransactionService) error {
				stored, err := svc.Create(ctx, t)
				if err != nil {
					return err
				}
				printf(cmd.OutOrStdout(), "Added transaction #%d\n", stored.ID)
				return nil
			})
		},
	}

	flags.register(cmd)
	for _, name := range []string{"title", "amount", "tag", "note"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func newEditCommand(a *app) *cobra.Command {
	var flags transactionFlags

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of an existing transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withService(cmd, func(ctx context.Context, svc *services.TransactionService) error {
				t, err := svc.Get(ctx, id)
				if err != nil {
					return err
				}
				if err := flags.apply(cmd, &t, true); err != nil {
					return err
				}
				if err := svc.Update(ctx, t); err != nil {
					return err
				}
				printf(cmd.OutOrStdout(), "Updated transaction #%d\n", id)
				return nil
			})
		},
	}

	flags.register(cmd)
	return cmd
}

func newShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a transaction as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withService(cmd, func(ctx context.Context, svc *services.TransactionService) error {
				t, err := svc.Get(ctx, id)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(t)
			})
		},
	}
}

// newDeleteCommand removes a transaction. Deleting an id that does not exist
// succeeds.
func newDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withService(cmd, func(ctx context.Context, svc *services.TransactionService) error {
				if err := svc.DeleteByID(ctx, id); err != nil {
					return err
				}
				printf(cmd.OutOrStdout(), "Deleted transaction #%d\n", id)
				return nil
			})
		},
	}
}

func newShareCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "share <id>",
		Short: "Print the shareable text of a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.withService(cmd, func(ctx context.Context, svc *services.TransactionService) error {
				t, err := svc.Get(ctx, id)
				if err != nil {
					return err
				}
				printf(cmd.OutOrStdout(), "%s", core.ShareText(t))
				return nil
			})
		},
	}
}
