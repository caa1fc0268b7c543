package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Create sample projects to try things out",
	Long: `Create 5 sample projects with 10 items each.

Use --reset to delete everything first.`,
	RunE: runSample,
}

var sampleReset bool

func init() {
	sampleCmd.Flags().BoolVar(&sampleReset, "reset", false, "Delete all projects before creating samples")
}

func runSample(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := context.Background()

	if sampleReset {
		if cfg.ConfirmDelete && !confirm("Delete all projects and items first?") {
			fmt.Println("Cancelled.")
			return nil
		}
		if err := a.ctrl.ResetSampleData(ctx); err != nil {
			return fmt.Errorf("failed to reset data: %w", err)
		}
		_ = ClearContext()
	} else if err := a.ctrl.CreateSampleData(ctx); err != nil {
		return fmt.Errorf("failed to create sample data: %w", err)
	}

	MaybeSyncAfterChange(ctx, a.store, false)
	fmt.Println("✓ Sample data created. Try: binge home")
	return nil
}
