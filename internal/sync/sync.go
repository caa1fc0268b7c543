package sync

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/existflow/binge/internal/db"
	"github.com/existflow/binge/internal/logger"
)

// Entity types on the wire
const (
	TypeProject = "project"
	TypeItem    = "item"
)

// SyncItem is one entity as exchanged with the server. The payload is the
// JSON entity, sealed when an encryption key is configured.
type SyncItem struct {
	ClientID      string `json:"client_id"`
	Type          string `json:"type"`
	ProjectID     string `json:"project_id,omitempty"`
	EncryptedData string `json:"encrypted_data,omitempty"`
	SyncVersion   int64  `json:"sync_version"`
	Deleted       bool   `json:"deleted"`
}

// SyncPullResponse is the response from pull
type SyncPullResponse struct {
	Items       []SyncItem `json:"items"`
	SyncVersion int64      `json:"sync_version"`
}

// SyncPushRequest is the body of a push
type SyncPushRequest struct {
	Items []SyncItem `json:"items"`
}

// SyncPushResponse is the response from push
type SyncPushResponse struct {
	Updated []SyncItem `json:"updated"`
}

// SyncResult holds sync statistics
type SyncResult struct {
	Pushed  int
	Pulled  int
	Skipped int // Remote entities that could not be applied
}

// SyncMode defines how the sync should be performed
type SyncMode int

const (
	SyncModeMerge         SyncMode = iota // Push local, then pull remote
	SyncModeRemoteToLocal                 // Wipe local, then pull all from remote
	SyncModeLocalToRemote                 // Wipe remote, then push all from local
)

// Sync performs sync with server based on the specified mode
func (c *Client) Sync(ctx context.Context, store *db.DB, mode SyncMode) (*SyncResult, error) {
	if !c.IsLoggedIn() {
		return nil, ErrNotLoggedIn
	}

	result := &SyncResult{}
	var err error

	switch mode {
	case SyncModeRemoteToLocal:
		if err := c.ClearLocal(ctx, store); err != nil {
			return nil, err
		}
		if err := c.pull(ctx, store, result); err != nil {
			return nil, fmt.Errorf("pull failed: %w", err)
		}

	case SyncModeLocalToRemote:
		if err := c.ClearRemote(ctx); err != nil {
			return nil, err
		}
		if err := store.MarkAllDirty(ctx); err != nil {
			return nil, err
		}
		if result.Pushed, err = c.push(ctx, store); err != nil {
			return nil, fmt.Errorf("push failed: %w", err)
		}

	default:
		if result.Pushed, err = c.push(ctx, store); err != nil {
			return nil, fmt.Errorf("push failed: %w", err)
		}
		if err := c.pull(ctx, store, result); err != nil {
			return nil, fmt.Errorf("pull failed: %w", err)
		}
	}

	if !c.config.HasSyncedOnce {
		_ = c.SetSyncedOnce()
	}
	return result, nil
}

// ClearLocal removes every local entity without recording deletions and forgets the sync position
func (c *Client) ClearLocal(ctx context.Context, store *db.DB) error {
	if err := store.ClearLocal(ctx); err != nil {
		return fmt.Errorf("failed to clear local data: %w", err)
	}
	if err := store.Flush(); err != nil {
		return err
	}
	c.config.LastSync = 0
	return c.saveConfig()
}

// push sends modified entities and deletions, then clears their modified flags
func (c *Client) push(ctx context.Context, store *db.DB) (int, error) {
	pending, err := store.PendingChanges(ctx)
	if err != nil {
		return 0, err
	}
	if pending.Empty() {
		logger.Debug("No items to push")
		return 0, nil
	}

	items := make([]SyncItem, 0, len(pending.Projects)+len(pending.Items)+len(pending.Deletions))
	for _, p := range pending.Projects {
		p.Items = nil
		data, err := c.seal(p)
		if err != nil {
			return 0, err
		}
		items = append(items, SyncItem{ClientID: p.ID, Type: TypeProject, ProjectID: p.ID, EncryptedData: data})
	}
	for _, it := range pending.Items {
		data, err := c.seal(it)
		if err != nil {
			return 0, err
		}
		items = append(items, SyncItem{ClientID: it.ID, Type: TypeItem, ProjectID: it.ProjectID, EncryptedData: data})
	}
	for _, t := range pending.Deletions {
		items = append(items, SyncItem{ClientID: t.ID, Type: string(t.Kind), ProjectID: t.ProjectID, Deleted: true})
	}

	logger.Info("Pushing changes to server", logger.F("itemCount", len(items)))

	var resp SyncPushResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/sync", SyncPushRequest{Items: items}, &resp); err != nil {
		return 0, err
	}

	if err := store.MarkSynced(ctx, pending); err != nil {
		return 0, err
	}
	if err := store.Flush(); err != nil {
		return 0, err
	}

	logger.Info("Push completed", logger.F("updated", len(resp.Updated)))
	return len(resp.Updated), nil
}

// pull applies remote changes newer than the last seen version.
// Projects are applied before items and item deletions before project deletions.
func (c *Client) pull(ctx context.Context, store *db.DB, result *SyncResult) error {
	var resp SyncPullResponse
	path := fmt.Sprintf("/api/v1/sync?since=%d", c.config.LastSync)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return err
	}

	logger.Info("Received items from server",
		logger.F("itemCount", len(resp.Items)),
		logger.F("syncVersion", resp.SyncVersion))

	passes := []func(SyncItem) bool{
		func(s SyncItem) bool { return s.Type == TypeProject && !s.Deleted },
		func(s SyncItem) bool { return s.Type == TypeItem && !s.Deleted },
		func(s SyncItem) bool { return s.Type == TypeItem && s.Deleted },
		func(s SyncItem) bool { return s.Type == TypeProject && s.Deleted },
	}
	batch := make([]db.Remote, 0, len(resp.Items))
	for _, match := range passes {
		for _, item := range resp.Items {
			if !match(item) {
				continue
			}
			r, err := c.decode(item)
			if err != nil {
				logger.Warn("Skipping remote change",
					logger.F("type", item.Type),
					logger.F("clientID", item.ClientID),
					logger.F("error", err))
				result.Skipped++
				continue
			}
			batch = append(batch, r)
		}
	}

	applied, err := store.ApplyRemote(ctx, batch)
	if err != nil {
		return err
	}
	if err := store.Flush(); err != nil {
		return err
	}
	result.Pulled += applied.Applied
	result.Skipped += applied.Skipped
	if applied.Kept > 0 {
		logger.Info("Kept local edits over remote changes", logger.F("count", applied.Kept))
	}

	if resp.SyncVersion > c.config.LastSync {
		c.config.LastSync = resp.SyncVersion
		if err := c.saveConfig(); err != nil {
			return err
		}
	}

	logger.Info("Pull completed", logger.F("applied", result.Pulled), logger.F("skipped", result.Skipped))
	return nil
}

// decode turns a wire entity into a store entity, opening its payload
func (c *Client) decode(item SyncItem) (db.Remote, error) {
	r := db.Remote{ID: item.ClientID, Version: item.SyncVersion, Deleted: item.Deleted}
	switch item.Type {
	case TypeProject:
		r.Kind = db.KindProject
	case TypeItem:
		r.Kind = db.KindItem
	default:
		return r, fmt.Errorf("unknown sync item type %q", item.Type)
	}
	if item.Deleted {
		return r, nil
	}

	if r.Kind == db.KindProject {
		if err := c.open(item.EncryptedData, &r.Project); err != nil {
			return r, err
		}
		r.Project.Items = nil
		return r, nil
	}
	if err := c.open(item.EncryptedData, &r.Item); err != nil {
		return r, err
	}
	r.Item.ProjectID = item.ProjectID
	return r, nil
}

// seal encodes an entity as JSON, encrypted when a key is configured
func (c *Client) seal(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	if c.crypto == nil {
		return base64.StdEncoding.EncodeToString(data), nil
	}
	return c.crypto.Encrypt(data)
}

func (c *Client) open(encoded string, v interface{}) error {
	var data []byte
	var err error
	if c.crypto == nil {
		data, err = base64.StdEncoding.DecodeString(encoded)
	} else {
		data, err = c.crypto.Decrypt(encoded)
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	return nil
}
