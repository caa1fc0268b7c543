package cli

import (
	"context"
	"fmt"

	"github.com/existflow/binge/internal/db"
	"github.com/existflow/binge/internal/logger"
	"github.com/existflow/binge/internal/sync"
)

// dueClient returns a logged-in client and whether a sync should run now
func dueClient(force bool) (*sync.Client, bool) {
	client, err := sync.NewClient()
	if err != nil || !client.IsLoggedIn() {
		return nil, false
	}
	return client, force || (cfg.AutoSync && client.ShouldAutoSync())
}

// mergeNow runs a merge sync and reports the outcome on stdout
func mergeNow(ctx context.Context, client *sync.Client, store *db.DB, banner string) (*sync.SyncResult, bool) {
	fmt.Println(banner)
	result, err := client.Sync(ctx, store, sync.SyncModeMerge)
	if err != nil {
		logger.Warn("Sync failed", logger.F("error", err))
		fmt.Printf("⚠️  Sync failed: %v\n", err)
		return nil, false
	}
	if err := client.UpdateSyncTime(); err != nil {
		logger.Warn("Failed to record sync time", logger.F("error", err))
	}
	return result, true
}

// MaybeSyncCLI syncs before a read when forced or when the auto-sync interval has passed.
// It returns the client, or nil when not logged in.
func MaybeSyncCLI(ctx context.Context, store *db.DB, force bool) *sync.Client {
	client, due := dueClient(force)
	if client == nil || !due {
		return client
	}

	result, ok := mergeNow(ctx, client, store, "🔄 Syncing...")
	switch {
	case !ok:
	case result.Pushed > 0 || result.Pulled > 0:
		fmt.Printf("✓ Synced (↑%d ↓%d)\n", result.Pushed, result.Pulled)
	default:
		fmt.Println("✓ Already up to date")
	}
	return client
}

// MaybeSyncAfterChange pushes a write under the same rules as MaybeSyncCLI
func MaybeSyncAfterChange(ctx context.Context, store *db.DB, force bool) {
	client, due := dueClient(force)
	if client == nil || !due {
		return
	}
	if result, ok := mergeNow(ctx, client, store, "🔄 Syncing changes..."); ok {
		fmt.Printf("✓ Synced (↑%d ↓%d)\n", result.Pushed, result.Pulled)
	}
}
