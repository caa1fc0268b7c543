package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/existflow/binge/internal/db"
	"github.com/existflow/binge/internal/model"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
	Long:  `Create, list, close and manage projects.`,
}

var projectNewCmd = &cobra.Command{
	Use:   "new [title]",
	Short: "Create a new project",
	Long: `Create a new open project.

Without the full version you can keep up to 3 open projects.

Examples:
  binge project new "Garden"
  binge project new "Reading list" --color Purple --detail "Books for 2024"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runProjectNew,
}

var projectListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List projects",
	RunE:    runProjectList,
}

var projectCloseCmd = &cobra.Command{
	Use:   "close [project]",
	Short: "Close a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setProjectClosed(args[0], true)
	},
}

var projectReopenCmd = &cobra.Command{
	Use:   "reopen [project]",
	Short: "Reopen a closed project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setProjectClosed(args[0], false)
	},
}

var projectDeleteCmd = &cobra.Command{
	Use:     "delete [project]",
	Aliases: []string{"rm"},
	Short:   "Delete a project and all its items",
	Args:    cobra.ExactArgs(1),
	RunE:    runProjectDelete,
}

var projectEditCmd = &cobra.Command{
	Use:   "edit [project]",
	Short: "Change a project's title, detail or color",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectEdit,
}

var projectRemindCmd = &cobra.Command{
	Use:   "remind [project] [HH:MM|off]",
	Short: "Set or remove a project's daily reminder",
	Args:  cobra.ExactArgs(2),
	RunE:  runProjectRemind,
}

var (
	projectColor  string
	projectDetail string
	projectTitle  string
	projectClosed bool
	projectAll    bool
	projectForce  bool
)

func init() {
	projectNewCmd.Flags().StringVarP(&projectColor, "color", "c", "", "Project color ("+strings.Join(model.Colors, ", ")+")")
	projectNewCmd.Flags().StringVarP(&projectDetail, "detail", "d", "", "Project description")

	projectListCmd.Flags().BoolVar(&projectClosed, "closed", false, "Show closed projects")
	projectListCmd.Flags().BoolVarP(&projectAll, "all", "a", false, "Show open and closed projects")

	projectEditCmd.Flags().StringVarP(&projectTitle, "title", "t", "", "New title")
	projectEditCmd.Flags().StringVarP(&projectDetail, "detail", "d", "", "New description")
	projectEditCmd.Flags().StringVarP(&projectColor, "color", "c", "", "New color")

	projectDeleteCmd.Flags().BoolVarP(&projectForce, "force", "f", false, "Do not ask for confirmation")

	projectCmd.AddCommand(projectNewCmd)
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectCloseCmd)
	projectCmd.AddCommand(projectReopenCmd)
	projectCmd.AddCommand(projectDeleteCmd)
	projectCmd.AddCommand(projectEditCmd)
	projectCmd.AddCommand(projectRemindCmd)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func runProjectNew(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if projectColor != "" && !model.IsColor(projectColor) {
		return fmt.Errorf("unknown color %q (choose from %s)", projectColor, strings.Join(model.Colors, ", "))
	}

	np := db.NewProject{Detail: optional(projectDetail), Color: optional(projectColor)}
	if len(args) == 1 {
		np.Title = optional(args[0])
	}

	p, ok, err := a.ctrl.AddProject(context.Background(), np)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	if !ok {
		fmt.Printf("🔒 You can have up to %d open projects.\n", model.FreeProjectLimit)
		fmt.Println("   Close one, or unlock the full version with 'binge unlock buy'.")
		return nil
	}

	fmt.Printf("✓ Created project: %s (id: %s)\n", model.ProjectTitle(p), shortID(p.ID))
	return nil
}

func runProjectList(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := context.Background()

	MaybeSyncCLI(ctx, a.store, false)

	var projects []model.Project
	switch {
	case projectAll:
		projects, err = a.store.QueryProjects(ctx, db.ProjectQuery{})
	case projectClosed:
		projects, err = a.ctrl.ClosedProjects(ctx)
	default:
		projects, err = a.ctrl.OpenProjects(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to list projects: %w", err)
	}

	if len(projects) == 0 {
		fmt.Println("No projects found. Create one with: binge project new \"Title\"")
		return nil
	}

	current := GetCurrentContext()
	fmt.Println()
	fmt.Printf("  %-8s  %-24s  %-10s  %-6s  %s\n", "ID", "Title", "Color", "Done", "Items")
	fmt.Println(strings.Repeat("─", 64))
	for _, p := range projects {
		marker := "  "
		if p.ID == current {
			marker = "❯ "
		}
		state := ""
		if p.Closed {
			state = " (closed)"
		}
		fmt.Printf("%s%-8s  %-24s  %-10s  %5.0f%%  %d%s\n",
			marker, shortID(p.ID), truncate(model.ProjectTitle(p), 24), model.ProjectColor(p),
			model.CompletionAmount(p)*100, len(p.Items), state)
	}
	fmt.Println(strings.Repeat("─", 64))
	fmt.Printf("  %d projects\n\n", len(projects))
	return nil
}

func setProjectClosed(ref string, closed bool) error {
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
	if p.Closed == closed {
		fmt.Printf("%s is already %s\n", model.ProjectTitle(p), openState(closed))
		return nil
	}

	if _, err := a.ctrl.ToggleClosed(ctx, p.ID); err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	fmt.Printf("✓ %s is now %s\n", model.ProjectTitle(p), openState(closed))
	return nil
}

func openState(closed bool) string {
	if closed {
		return "closed"
	}
	return "open"
}

func runProjectDelete(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := context.Background()

	p, err := a.findProject(ctx, args[0])
	if err != nil {
		return err
	}

	if cfg.ConfirmDelete && !projectForce {
		if !confirm(fmt.Sprintf("Delete %q and its %d items?", model.ProjectTitle(p), len(p.Items))) {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	if err := a.ctrl.DeleteProject(ctx, p.ID); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if GetCurrentContext() == p.ID {
		_ = ClearContext()
	}

	fmt.Printf("🗑️  Deleted project: %s\n", model.ProjectTitle(p))
	return nil
}

func runProjectEdit(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := context.Background()

	p, err := a.findProject(ctx, args[0])
	if err != nil {
		return err
	}

	var u db.ProjectUpdate
	if cmd.Flags().Changed("title") {
		u.Title = &projectTitle
	}
	if cmd.Flags().Changed("detail") {
		u.Detail = &projectDetail
	}
	if cmd.Flags().Changed("color") {
		u.Color = &projectColor
	}
	if u == (db.ProjectUpdate{}) {
		return errors.New("nothing to change: pass --title, --detail or --color")
	}

	if err := a.ctrl.UpdateProject(ctx, p.ID, u); err != nil {
		return err
	}
	fmt.Printf("✓ Updated project %s\n", shortID(p.ID))
	return nil
}

func runProjectRemind(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := context.Background()

	p, err := a.findProject(ctx, args[0])
	if err != nil {
		return err
	}

	if strings.EqualFold(args[1], "off") {
		if err := a.ctrl.SetReminder(ctx, p.ID, nil); err != nil {
			return err
		}
		fmt.Printf("🔕 Reminder removed for %s\n", model.ProjectTitle(p))
		return nil
	}

	at, err := model.ParseTimeOfDay(args[1])
	if err != nil {
		return err
	}

	err = a.ctrl.SetReminder(ctx, p.ID, &at)
	if errors.Is(err, model.ErrAuthorizationDenied) {
		fmt.Println("⚠️  Reminders are not allowed. Enable them with 'binge remind allow'.")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Printf("🔔 %s will remind you every day at %s\n", model.ProjectTitle(p), at)
	fmt.Println("   Keep 'binge remind run' running to receive reminders.")
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
