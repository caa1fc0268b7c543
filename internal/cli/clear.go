package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/existflow/binge/internal/sync"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear all projects and items",
	Long: `Clear all projects and items from the local database or/and the sync server.
By default, it only clears the local database unless --remote or --all is specified.`,
	RunE: runClear,
}

var (
	clearLocal  bool
	clearRemote bool
	clearAll    bool
	clearForce  bool
)

func init() {
	clearCmd.Flags().BoolVar(&clearLocal, "local", true, "Clear local data (default)")
	clearCmd.Flags().BoolVar(&clearRemote, "remote", false, "Clear remote data on the sync server")
	clearCmd.Flags().BoolVar(&clearAll, "all", false, "Clear both local and remote data")
	clearCmd.Flags().BoolVarP(&clearForce, "force", "f", false, "Do not ask for confirmation")
}

func runClear(cmd *cobra.Command, args []string) error {
	local, remote := clearLocal, clearRemote
	if clearAll {
		local, remote = true, true
	}
	if cmd.Flags().Changed("remote") && !cmd.Flags().Changed("local") {
		local = clearAll
	}

	if !clearForce && !confirm("Clear all data? This cannot be undone.") {
		fmt.Println("Aborted.")
		return nil
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := context.Background()

	client, err := sync.NewClient()
	if err != nil {
		return err
	}

	if local {
		fmt.Println("🧹 Clearing local data...")
		if err := client.ClearLocal(ctx, a.store); err != nil {
			return fmt.Errorf("failed to clear local data: %w", err)
		}
		_ = ClearContext()
		fmt.Println("Local data cleared.")
	}

	if remote {
		if !client.IsLoggedIn() {
			fmt.Println("Skipping remote clear: not logged in.")
			return nil
		}
		fmt.Println("🌐 Clearing remote data...")
		if err := client.ClearRemote(ctx); err != nil {
			return fmt.Errorf("failed to clear remote data: %w", err)
		}
		fmt.Println("Remote data cleared.")
	}

	return nil
}
