package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/existflow/binge/internal/db"
	"github.com/existflow/binge/internal/model"
)

var doneCmd = &cobra.Command{
	Use:   "done [item-id]",
	Short: "Mark an item as completed",
	Long: `Mark an item as completed.

Examples:
  binge done 3f2a9c1e
  binge done 3f2a --undo`,
	Args: cobra.ExactArgs(1),
	RunE: runDone,
}

var doneUndo bool

func init() {
	doneCmd.Flags().BoolVar(&doneUndo, "undo", false, "Mark item as not completed")
}

func runDone(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := context.Background()

	it, err := a.findItem(ctx, args[0])
	if err != nil {
		return err
	}

	before := map[string]bool{}
	for _, award := range a.ctrl.EarnedAwards(ctx) {
		before[award.ID] = true
	}

	done := !doneUndo
	if it.Completed != done {
		if err := a.ctrl.UpdateItem(ctx, it.ID, db.ItemUpdate{Completed: &done}); err != nil {
			return fmt.Errorf("failed to update item: %w", err)
		}
	}

	if done {
		fmt.Printf("✓ Completed: %q\n", model.ItemTitle(it))
		for _, award := range a.ctrl.EarnedAwards(ctx) {
			if !before[award.ID] {
				fmt.Printf("🏆 Award unlocked: %s\n", award.Name)
			}
		}
	} else {
		fmt.Printf("○ Reopened: %q\n", model.ItemTitle(it))
	}

	MaybeSyncAfterChange(ctx, a.store, false)
	return nil
}
