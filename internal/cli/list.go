package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/existflow/binge/internal/model"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List a project's items",
	Long: `List the items of a project (the current project by default) in the configured sort order.

Examples:
  binge list
  binge list --project Garden --sort title
  binge list --all`,
	RunE: runList,
}

var (
	listProject string
	listAll     bool
	listSync    bool
)

func init() {
	listCmd.Flags().StringVarP(&listProject, "project", "P", "", "Project title or id")
	listCmd.Flags().BoolVarP(&listAll, "all", "a", false, "Show every open project")
	listCmd.Flags().BoolVarP(&listSync, "sync", "s", false, "Sync with server before listing")
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := context.Background()

	MaybeSyncCLI(ctx, a.store, listSync)

	order := sortOrder()

	if listAll {
		projects, err := a.ctrl.OpenProjects(ctx)
		if err != nil {
			return fmt.Errorf("failed to list projects: %w", err)
		}
		if len(projects) == 0 {
			fmt.Println("No open projects. Create one with: binge project new \"Title\"")
			return nil
		}
		for _, p := range projects {
			printProject(p, order)
		}
		return nil
	}

	ref, err := projectRef(listProject)
	if err != nil {
		return err
	}
	p, err := a.findProject(ctx, ref)
	if err != nil {
		return err
	}
	printProject(p, order)
	return nil
}

func printProject(p model.Project, order model.SortOrder) {
	items := model.ProjectItems(p, order)

	fmt.Printf("\n📁 %s  %s  (sorted by %s)\n", model.ProjectTitle(p), model.AccessibleLabel(p), order)
	if d := model.ProjectDetail(p); d != "" {
		fmt.Printf("   %s\n", d)
	}
	fmt.Println(strings.Repeat("─", 64))

	if len(items) == 0 {
		fmt.Println("  No items. Add one with: binge add \"Title\"")
	}
	for i, it := range items {
		printItem(i+1, it)
	}
	fmt.Println()
}

func printItem(num int, it model.Item) {
	icon := "[ ]"
	if it.Completed {
		icon = "[x]"
	}

	marker := "  "
	switch it.Rank() {
	case model.PriorityHigh:
		marker = "▲▲"
	case model.PriorityMedium:
		marker = "▲ "
	}

	fmt.Printf("  %2d. %s  %-8s  %s  %s\n", num, icon, shortID(it.ID), marker, truncate(model.ItemTitle(it), 40))
}
