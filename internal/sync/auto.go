package sync

import (
	"context"
	"sync"
	"time"

	"github.com/existflow/binge/internal/db"
	"github.com/existflow/binge/internal/logger"
)

// AutoSync manages automatic background syncing
type AutoSync struct {
	client       *Client
	store        *db.DB
	debounceTime time.Duration
	pollInterval time.Duration

	mu      sync.Mutex
	pending bool
	onPull  func() // Called when remote changes are pulled

	running sync.Mutex // Serializes Sync calls
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewAutoSync creates an auto-sync manager that pushes local edits after a
// short quiet period and polls the server for remote changes
func NewAutoSync(client *Client, store *db.DB) *AutoSync {
	return newAutoSync(client, store, 5*time.Second, 30*time.Second)
}

func newAutoSync(client *Client, store *db.DB, debounce, poll time.Duration) *AutoSync {
	ctx, cancel := context.WithCancel(context.Background())
	a := &AutoSync{
		client:       client,
		store:        store,
		debounceTime: debounce,
		pollInterval: poll,
		ctx:          ctx,
		cancel:       cancel,
	}

	store.OnChange(func(ch db.Change) {
		if !ch.Remote {
			a.TriggerSync()
		}
	})

	go a.pollLoop()
	return a
}

// SetOnPull sets a callback function to be called when remote changes are pulled
func (a *AutoSync) SetOnPull(callback func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onPull = callback
}

func (a *AutoSync) pollLoop() {
	ticker := time.NewTicker(a.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if a.client.CanAutoSync() {
				a.sync()
			}
		case <-a.ctx.Done():
			return
		}
	}
}

// TriggerSync schedules a sync after the debounce period
func (a *AutoSync) TriggerSync() {
	if !a.client.CanAutoSync() || a.ctx.Err() != nil {
		return
	}

	a.mu.Lock()
	if !a.pending {
		a.pending = true
		go a.debouncedSync()
	}
	a.mu.Unlock()
}

func (a *AutoSync) debouncedSync() {
	timer := time.NewTimer(a.debounceTime)
	defer timer.Stop()

	select {
	case <-timer.C:
		a.mu.Lock()
		a.pending = false
		a.mu.Unlock()
		a.sync()
	case <-a.ctx.Done():
	}
}

func (a *AutoSync) sync() {
	a.running.Lock()
	defer a.running.Unlock()

	result, err := a.client.Sync(a.ctx, a.store, SyncModeMerge)
	if err != nil {
		logger.Warn("Background sync failed", logger.F("error", err))
		return
	}
	_ = a.client.UpdateSyncTime()

	if result.Pulled > 0 {
		a.mu.Lock()
		callback := a.onPull
		a.mu.Unlock()

		if callback != nil {
			callback()
		}
	}
}

// Stop stops the auto-sync manager
func (a *AutoSync) Stop() {
	a.cancel()
}

// SyncNowIfPending performs an immediate sync if a debounced one is waiting
func (a *AutoSync) SyncNowIfPending() error {
	a.mu.Lock()
	isPending := a.pending
	a.pending = false
	a.mu.Unlock()

	if !isPending {
		return nil
	}

	a.running.Lock()
	defer a.running.Unlock()
	_, err := a.client.Sync(context.Background(), a.store, SyncModeMerge)
	return err
}

// IsPending returns true if a sync is scheduled
func (a *AutoSync) IsPending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pending
}
