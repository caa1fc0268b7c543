package cli

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/existflow/binge/internal/sync"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync projects with the server",
	Long: `Sync your projects across devices.

Commands:
  binge sync              # Merge local and remote changes
  binge sync --pull       # Replace local data with the server's
  binge sync --push       # Replace the server's data with local
  binge sync status       # Show sync status
  binge sync key          # Set up end-to-end encryption`,
	RunE: runSync,
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sync status",
	RunE:  runSyncStatus,
}

var syncKeyCmd = &cobra.Command{
	Use:   "key",
	Short: "Derive or show the encryption key",
	Long: `Derive the end-to-end encryption key from a password.

Every device must use the same password and salt. On the first device run
'binge sync key', then on the others run 'binge sync key --salt <salt>'
with the salt printed by the first.`,
	RunE: runSyncKey,
}

var syncConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Configure sync settings",
	RunE:  runSyncConfig,
}

var (
	syncPull   bool
	syncPush   bool
	keySalt    string
	keyReset   bool
	syncServer string
)

func init() {
	syncCmd.AddCommand(syncStatusCmd)
	syncCmd.AddCommand(syncKeyCmd)
	syncCmd.AddCommand(syncConfigCmd)

	syncCmd.Flags().BoolVar(&syncPull, "pull", false, "Force sync from remote (replaces local)")
	syncCmd.Flags().BoolVar(&syncPush, "push", false, "Force sync from local (replaces remote)")

	syncKeyCmd.Flags().StringVar(&keySalt, "salt", "", "Salt printed by another device (base64)")
	syncKeyCmd.Flags().BoolVar(&keyReset, "reset", false, "Derive a new key even if one is set")

	syncConfigCmd.Flags().StringVar(&syncServer, "server", "", "Set server URL")
}

func runSync(cmd *cobra.Command, args []string) error {
	if syncPull && syncPush {
		return errors.New("cannot use both --pull and --push")
	}

	client, err := sync.NewClient()
	if err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	mode := sync.SyncModeMerge
	switch {
	case syncPull:
		mode = sync.SyncModeRemoteToLocal
		fmt.Println("⚠️  Forcing sync from remote (replacing local data)...")
	case syncPush:
		mode = sync.SyncModeLocalToRemote
		fmt.Println("⚠️  Forcing sync from local (replacing remote data)...")
	default:
		fmt.Println("🔄 Synchronizing...")
	}

	result, err := client.Sync(context.Background(), a.store, mode)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	_ = client.UpdateSyncTime()

	fmt.Printf("✓ Sync complete! Pushed: %d, Pulled: %d\n", result.Pushed, result.Pulled)
	if result.Skipped > 0 {
		fmt.Printf("⚠️  %d remote entries could not be applied (wrong encryption key?)\n", result.Skipped)
	}
	return nil
}

func runSyncStatus(cmd *cobra.Command, args []string) error {
	client, err := sync.NewClient()
	if err != nil {
		return err
	}

	serverURL, userID, version := client.GetStatus()

	fmt.Printf("Server:     %s\n", serverURL)
	if !client.IsLoggedIn() {
		fmt.Println("Status:     Not logged in")
		return nil
	}

	fmt.Printf("User ID:    %s\n", userID)
	fmt.Printf("Version:    %d\n", version)
	if t := client.LastSyncTime(); !t.IsZero() {
		fmt.Printf("Last Sync:  %s\n", t.Local().Format("2006-01-02 15:04"))
	} else {
		fmt.Println("Last Sync:  never")
	}
	if fp := client.KeyFingerprint(); fp != "" {
		fmt.Printf("Key:        %s\n", fp)
	} else {
		fmt.Println("Key:        none (data is not end-to-end encrypted)")
	}
	fmt.Println("Status:     ✓ Logged in")
	return nil
}

func runSyncKey(cmd *cobra.Command, args []string) error {
	client, err := sync.NewClient()
	if err != nil {
		return err
	}

	if fp := client.KeyFingerprint(); fp != "" && !keyReset {
		fmt.Printf("Key fingerprint: %s\n", fp)
		fmt.Printf("Salt:            %s\n", client.Salt())
		return nil
	}

	var salt []byte
	if keySalt != "" {
		salt, err = base64.StdEncoding.DecodeString(keySalt)
		if err != nil {
			return fmt.Errorf("invalid salt: %w", err)
		}
	}

	fmt.Print("Encryption password: ")
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return err
	}
	if len(pw) < 8 {
		return errors.New("password must be at least 8 characters")
	}

	fp, err := client.GenerateEncryptionKey(string(pw), salt)
	if err != nil {
		return err
	}

	fmt.Println("\n✓ Encryption key derived!")
	fmt.Printf("Key fingerprint: %s\n", fp)
	fmt.Printf("Salt:            %s\n", client.Salt())
	if keySalt == "" {
		fmt.Println("\n⚠️  On other devices run: binge sync key --salt " + client.Salt())
	}
	return nil
}

func runSyncConfig(cmd *cobra.Command, args []string) error {
	client, err := sync.NewClient()
	if err != nil {
		return err
	}

	if syncServer == "" {
		url, _, _ := client.GetStatus()
		fmt.Printf("Server: %s\n", url)
		return nil
	}

	if err := client.SetServer(syncServer); err != nil {
		return err
	}
	fmt.Printf("✓ Server set to: %s\n", syncServer)
	return nil
}
