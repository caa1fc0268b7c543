package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/existflow/binge/internal/model"
)

var deleteCmd = &cobra.Command{
	Use:     "delete [item-id]",
	Aliases: []string{"rm"},
	Short:   "Delete an item",
	Long: `Delete an item by id, or items by their position in 'binge list'.

Examples:
  binge delete 3f2a9c1e
  binge delete --at 1 --at 4              # current project, current sort order
  binge delete --project Garden --at 2`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDelete,
}

var (
	deleteProject   string
	deletePositions []int
	deleteForce     bool
)

func init() {
	deleteCmd.Flags().StringVarP(&deleteProject, "project", "P", "", "Project for --at (default: current project)")
	deleteCmd.Flags().IntSliceVar(&deletePositions, "at", nil, "Positions (1-based) as shown by 'binge list'")
	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "Do not ask for confirmation")
}

func runDelete(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && len(deletePositions) == 0 {
		return errors.New("give an item id or --at positions")
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := context.Background()

	if len(deletePositions) > 0 {
		return deleteAt(ctx, a)
	}

	it, err := a.findItem(ctx, args[0])
	if err != nil {
		return err
	}

	if cfg.ConfirmDelete && !deleteForce {
		if !confirm(fmt.Sprintf("Delete %q?", model.ItemTitle(it))) {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	if err := a.ctrl.DeleteItem(ctx, it.ID); err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	MaybeSyncAfterChange(ctx, a.store, false)
	fmt.Printf("🗑️  Deleted: %q\n", model.ItemTitle(it))
	return nil
}

func deleteAt(ctx context.Context, a *app) error {
	ref, err := projectRef(deleteProject)
	if err != nil {
		return err
	}
	p, err := a.findProject(ctx, ref)
	if err != nil {
		return err
	}

	offsets := make([]int, len(deletePositions))
	for i, pos := range deletePositions {
		offsets[i] = pos - 1
	}

	if cfg.ConfirmDelete && !deleteForce {
		if !confirm(fmt.Sprintf("Delete %d items from %q?", len(offsets), model.ProjectTitle(p))) {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	n, err := a.ctrl.DeleteItems(ctx, p.ID, sortOrder(), offsets)
	if err != nil {
		return fmt.Errorf("failed to delete items: %w", err)
	}

	MaybeSyncAfterChange(ctx, a.store, false)
	fmt.Printf("🗑️  Deleted %d items from %s\n", n, model.ProjectTitle(p))
	return nil
}
