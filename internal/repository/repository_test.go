package repository_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"expensetracker/internal/core"
	"expensetracker/internal/live"
	"expensetracker/internal/repository"
	"expensetracker/internal/storage"
	"expensetracker/internal/storage/memory"
)

// stepClock returns a strictly increasing time on every call.
type stepClock struct {
	mu  sync.Mutex
	cur time.Time
}

func newStepClock() *stepClock {
	return &stepClock{cur: time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur = c.cur.Add(time.Second)
	return c.cur
}

func backends(t *testing.T) map[string]func(t *testing.T) repository.Store {
	return map[string]func(t *testing.T) repository.Store{
		"memory": func(t *testing.T) repository.Store {
			return memory.NewWithClock(newStepClock().Now)
		},
		"sqlite": func(t *testing.T) repository.Store {
			path := filepath.Join(t.TempDir(), "transaction.db")
			s, err := storage.NewSQLiteRepository(path, storage.WithClock(newStepClock().Now))
			if err != nil {
				t.Fatalf("open sqlite store: %v", err)
			}
			t.Cleanup(func() { s.Close() })
			return s
		},
	}
}

func forEachBackend(t *testing.T, fn func(t *testing.T, repo *repository.TransactionRepo)) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			fn(t, repository.NewTransactionRepo(open(t)))
		})
	}
}

func sample(title string, typ core.TransactionType, amount string) core.Transaction {
	return core.Transaction{
		Title:  title,
		Amount: decimal.RequireFromString(amount),
		Type:   typ,
		Tag:    "General",
		Date:   "15/10/2026",
		Note:   "note for " + title,
	}
}

func mustInsert(t *testing.T, repo *repository.TransactionRepo, tx core.Transaction) core.Transaction {
	t.Helper()
	stored, err := repo.Insert(context.Background(), tx)
	if err != nil {
		t.Fatalf("insert %q: %v", tx.Title, err)
	}
	return stored
}

func next[T any](t *testing.T, sub *live.Subscription[T]) T {
	t.Helper()
	select {
	case snap, ok := <-sub.C():
		if !ok {
			t.Fatalf("subscription closed")
		}
		if snap.Err != nil {
			t.Fatalf("snapshot error: %v", snap.Err)
		}
		return snap.Value
	case <-time.After(3 * time.Second):
		t.Fatalf("timed out waiting for live result")
	}
	var zero T
	return zero
}

func titles(list []core.Transaction) []string {
	out := make([]string, len(list))
	for i, tx := range list {
		out[i] = tx.Title
	}
	return out
}

func TestInsertAssignsIDAndCreatedAt(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repo *repository.TransactionRepo) {
		ctx := context.Background()
		in := sample("Salary", core.Income, "1500.25")
		stored := mustInsert(t, repo, in)

		if stored.ID == 0 {
			t.Fatalf("expected assigned id")
		}
		if stored.CreatedAt.IsZero() {
			t.Fatalf("expected createdAt to be set")
		}
		if !stored.SameContent(in) {
			t.Fatalf("stored %+v does not match input %+v", stored, in)
		}

		got, err := repo.Get(ctx, stored.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if !got.SameContent(in) || !got.CreatedAt.Equal(stored.CreatedAt) {
			t.Fatalf("get returned %+v, want %+v", got, stored)
		}

		sub := repo.GetByID(ctx, stored.ID)
		defer sub.Close()
		if live := next(t, sub); live == nil || !live.SameContent(in) {
			t.Fatalf("live get returned %+v", live)
		}
	})
}

func TestListOrderedNewestFirst(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repo *repository.TransactionRepo) {
		mustInsert(t, repo, sample("first", core.Income, "1"))
		mustInsert(t, repo, sample("second", core.Expense, "2"))
		mustInsert(t, repo, sample("third", core.Income, "3"))

		list, err := repo.List(context.Background(), core.FilterAll)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		got := titles(list)
		want := []string{"third", "second", "first"}
		if len(got) != len(want) {
			t.Fatalf("got %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("got %v, want %v", got, want)
			}
		}
		for i := 1; i < len(list); i++ {
			if list[i-1].CreatedAt.Before(list[i].CreatedAt) {
				t.Fatalf("list not ordered by createdAt desc: %v", list)
			}
		}
	})
}

func TestFilterResolution(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repo *repository.TransactionRepo) {
		ctx := context.Background()
		mustInsert(t, repo, sample("salary", core.Income, "100"))
		mustInsert(t, repo, sample("rent", core.Expense, "40"))
		mustInsert(t, repo, sample("bonus", core.Income, "25"))
		// Stored types are matched exactly; a lowercase value belongs to no filter.
		mustInsert(t, repo, sample("odd", "income", "5"))

		all, err := repo.List(ctx, core.FilterAll)
		if err != nil {
			t.Fatalf("list all: %v", err)
		}
		direct, err := repo.List(ctx, core.FilterAll)
		if err != nil || len(direct) != len(all) || len(all) != 4 {
			t.Fatalf("overall must equal list-all: %d vs %d (%v)", len(all), len(direct), err)
		}

		income, err := repo.List(ctx, core.FilterIncome)
		if err != nil {
			t.Fatalf("list income: %v", err)
		}
		if len(income) != 2 {
			t.Fatalf("income titles = %v", titles(income))
		}
		for _, tx := range income {
			if tx.Type != core.Income {
				t.Fatalf("income filter returned %q", tx.Type)
			}
		}

		expense, err := repo.List(ctx, core.FilterExpense)
		if err != nil {
			t.Fatalf("list expense: %v", err)
		}
		if len(expense) != 1 || expense[0].Type != core.Expense {
			t.Fatalf("expense titles = %v", titles(expense))
		}

		totals := core.Summarize(all)
		if !totals.Income.Equal(decimal.NewFromInt(125)) || !totals.Expense.Equal(decimal.NewFromInt(40)) || !totals.Balance.Equal(decimal.NewFromInt(85)) {
			t.Fatalf("totals = %+v", totals)
		}
	})
}

func TestLiveFilteredListReemitsOnMutation(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repo *repository.TransactionRepo) {
		ctx := context.Background()
		incomeSub := repo.GetFiltered(ctx, core.FilterIncome)
		defer incomeSub.Close()
		allSub := repo.GetFiltered(ctx, core.FilterAll)
		defer allSub.Close()

		if got := next(t, incomeSub); len(got) != 0 {
			t.Fatalf("expected empty income list, got %v", titles(got))
		}
		if got := next(t, allSub); len(got) != 0 {
			t.Fatalf("expected empty list, got %v", titles(got))
		}

		mustInsert(t, repo, sample("rent", core.Expense, "40"))
		if got := next(t, allSub); len(got) != 1 {
			t.Fatalf("all after expense insert = %v", titles(got))
		}
		if got := next(t, incomeSub); len(got) != 0 {
			t.Fatalf("income list must not contain expenses: %v", titles(got))
		}

		salary := mustInsert(t, repo, sample("salary", core.Income, "100"))
		if got := next(t, incomeSub); len(got) != 1 || got[0].ID != salary.ID {
			t.Fatalf("income after insert = %v", titles(got))
		}
		if got := next(t, allSub); len(got) != 2 || got[0].ID != salary.ID {
			t.Fatalf("all after insert = %v", titles(got))
		}
	})
}

func TestUpdatePreservesCreatedAtAndMissingIDIsNoop(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repo *repository.TransactionRepo) {
		ctx := context.Background()
		stored := mustInsert(t, repo, sample("coffee", core.Expense, "3.5"))

		sub := repo.GetByID(ctx, stored.ID)
		defer sub.Close()
		next(t, sub)

		edited := stored
		edited.Title = "espresso"
		edited.Amount = decimal.RequireFromString("2.75")
		edited.CreatedAt = stored.CreatedAt.Add(48 * time.Hour)
		if changed, err := repo.Update(ctx, edited); err != nil || !changed {
			t.Fatalf("update = %v, %v; want true, nil", changed, err)
		}

		got := next(t, sub)
		if got == nil || got.Title != "espresso" || !got.Amount.Equal(decimal.RequireFromString("2.75")) {
			t.Fatalf("live detail after update = %+v", got)
		}
		if !got.CreatedAt.Equal(stored.CreatedAt) {
			t.Fatalf("createdAt changed from %v to %v", stored.CreatedAt, got.CreatedAt)
		}

		ghost := sample("ghost", core.Income, "1")
		ghost.ID = stored.ID + 100
		if changed, err := repo.Update(ctx, ghost); err != nil || changed {
			t.Fatalf("update of missing id = %v, %v; want false, nil", changed, err)
		}
		all, _ := repo.List(ctx, core.FilterAll)
		if len(all) != 1 {
			t.Fatalf("update of missing id must not insert, got %v", titles(all))
		}
	})
}

func TestUpsertOverwritesExistingRow(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repo *repository.TransactionRepo) {
		ctx := context.Background()
		stored := mustInsert(t, repo, sample("gym", core.Expense, "30"))

		changed := stored
		changed.Note = "annual plan"
		again, err := repo.Insert(ctx, changed)
		if err != nil {
			t.Fatalf("upsert: %v", err)
		}
		if again.ID != stored.ID || again.Note != "annual plan" || !again.CreatedAt.Equal(stored.CreatedAt) {
			t.Fatalf("upsert result = %+v", again)
		}
		all, _ := repo.List(ctx, core.FilterAll)
		if len(all) != 1 {
			t.Fatalf("upsert of existing id must not add a row, got %v", titles(all))
		}
	})
}

func TestDeleteIsIdempotentAndEmitsAbsence(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repo *repository.TransactionRepo) {
		ctx := context.Background()
		keep := mustInsert(t, repo, sample("keep", core.Income, "10"))
		drop := mustInsert(t, repo, sample("drop", core.Expense, "5"))

		sub := repo.GetByID(ctx, drop.ID)
		defer sub.Close()
		if got := next(t, sub); got == nil {
			t.Fatalf("expected row before delete")
		}

		if changed, err := repo.Delete(ctx, drop); err != nil || !changed {
			t.Fatalf("delete = %v, %v; want true, nil", changed, err)
		}
		if got := next(t, sub); got != nil {
			t.Fatalf("expected absence after delete, got %+v", got)
		}

		if changed, err := repo.Delete(ctx, drop); err != nil || changed {
			t.Fatalf("second delete = %v, %v; want false, nil", changed, err)
		}
		if changed, err := repo.DeleteByID(ctx, drop.ID); err != nil || changed {
			t.Fatalf("delete by id of missing row = %v, %v; want false, nil", changed, err)
		}

		all, _ := repo.List(ctx, core.FilterAll)
		if len(all) != 1 || all[0].ID != keep.ID {
			t.Fatalf("remaining = %v", titles(all))
		}
		if _, err := repo.Get(ctx, drop.ID); err != core.ErrNotFound {
			t.Fatalf("get of deleted row err = %v, want ErrNotFound", err)
		}
	})
}

func TestDeleteThenReinsertEquivalentRecord(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repo *repository.TransactionRepo) {
		ctx := context.Background()
		original := sample("dinner", core.Expense, "62.40")
		t1 := mustInsert(t, repo, original)

		if _, err := repo.DeleteByID(ctx, t1.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		restored := mustInsert(t, repo, original)
		if restored.ID == t1.ID {
			t.Fatalf("id %d was reused after deletion", t1.ID)
		}

		all, _ := repo.List(ctx, core.FilterAll)
		matches := 0
		for _, tx := range all {
			if tx.SameContent(original) {
				matches++
			}
		}
		if matches != 1 {
			t.Fatalf("expected exactly one matching record, got %d in %v", matches, titles(all))
		}
	})
}

func TestEmptyTypeFilterResolvesToEmptyState(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repo *repository.TransactionRepo) {
		mustInsert(t, repo, sample("rent", core.Expense, "40"))

		list, err := repo.List(context.Background(), core.FilterIncome)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(list) != 0 {
			t.Fatalf("expected no income rows, got %v", titles(list))
		}
		if st := core.ResolveViewState(core.FilterIncome, list, err); st.Status != core.StatusEmpty {
			t.Fatalf("state = %v, want empty", st.Status)
		}
	})
}

func TestCancelledSubscriptionDoesNotBlockMutations(t *testing.T) {
	forEachBackend(t, func(t *testing.T, repo *repository.TransactionRepo) {
		ctx, cancel := context.WithCancel(context.Background())
		sub := repo.GetFiltered(ctx, core.FilterAll)
		next(t, sub)
		cancel()

		for range sub.C() {
		}

		stored := mustInsert(t, repo, sample("after cancel", core.Income, "1"))
		if _, err := repo.Get(context.Background(), stored.ID); err != nil {
			t.Fatalf("mutation after cancel failed: %v", err)
		}
	})
}
