package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/existflow/binge/internal/db"
	"github.com/existflow/binge/internal/model"
)

var addCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Add a new item",
	Long: `Add a new item to a project (the current project by default).

Examples:
  binge add "Plant tomatoes"
  binge add "Fix fence" -p 3
  binge add "Read chapter 4" --project "Reading list" --detail "Pages 80-120"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

var (
	addProject  string
	addPriority int
	addDetail   string
)

func init() {
	addCmd.Flags().StringVarP(&addProject, "project", "P", "", "Project title or id (default: current project)")
	addCmd.Flags().IntVarP(&addPriority, "priority", "p", model.PriorityMedium, "Priority (1=low, 2=medium, 3=high)")
	addCmd.Flags().StringVarP(&addDetail, "detail", "d", "", "Item description")
}

func runAdd(cmd *cobra.Command, args []string) error {
	if !model.ValidPriority(addPriority) || addPriority == model.PriorityUnset {
		return fmt.Errorf("priority must be 1, 2 or 3")
	}

	ref, err := projectRef(addProject)
	if err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := context.Background()

	p, err := a.findProject(ctx, ref)
	if err != nil {
		return err
	}

	title := strings.Join(args, " ")
	it, err := a.ctrl.AddItem(ctx, db.NewItem{
		ProjectID: p.ID,
		Title:     &title,
		Detail:    optional(addDetail),
		Priority:  addPriority,
	})
	if err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}

	MaybeSyncAfterChange(ctx, a.store, false)

	fmt.Printf("✓ Added to [%s]: %q (%s, id: %s)\n",
		model.ProjectTitle(p), title, priorityLabel(it.Priority), shortID(it.ID))
	return nil
}

func priorityLabel(p int) string {
	switch p {
	case model.PriorityHigh:
		return "high"
	case model.PriorityMedium:
		return "medium"
	default:
		return "low"
	}
}
