package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/existflow/binge/internal/logger"
)

// Entity types accepted from clients
const (
	typeProject = "project"
	typeItem    = "item"
)

// SyncItem is an opaque client entity. The server never reads the payload.
type SyncItem struct {
	ClientID      string `json:"client_id"`
	Type          string `json:"type"`
	ProjectID     string `json:"project_id,omitempty"`
	EncryptedData string `json:"encrypted_data,omitempty"` // Base64
	SyncVersion   int64  `json:"sync_version"`
	Deleted       bool   `json:"deleted"`
}

// SyncPullResponse is the response for pull requests
type SyncPullResponse struct {
	Items       []SyncItem `json:"items"`
	SyncVersion int64      `json:"sync_version"`
}

// SyncPushRequest is the request for push
type SyncPushRequest struct {
	Items []SyncItem `json:"items"`
}

// SyncPushResponse is the response for push requests
type SyncPushResponse struct {
	Updated []SyncItem `json:"updated"`
}

// handleSyncPull returns entities changed since the "since" version
func (s *Server) handleSyncPull(c echo.Context) error {
	userID := currentUser(c)
	ctx := c.Request().Context()

	since := int64(0)
	if v := c.QueryParam("since"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return errorJSON(c, http.StatusBadRequest, "invalid since")
		}
		since = n
	}

	resp := SyncPullResponse{Items: []SyncItem{}}
	for _, table := range []string{"projects", "items"} {
		items, err := s.changedSince(ctx, table, userID, since)
		if err != nil {
			logger.Error("Sync pull failed", logger.F("user", userID), logger.F("error", err))
			return errorJSON(c, http.StatusInternalServerError, "internal error")
		}
		resp.Items = append(resp.Items, items...)
	}

	err := s.db.QueryRowContext(ctx, `SELECT sync_version FROM users WHERE id = $1`, userID).Scan(&resp.SyncVersion)
	if err != nil {
		logger.Error("Failed to read sync version", logger.F("user", userID), logger.F("error", err))
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}

	logger.Info("Sync pull",
		logger.F("user", userID),
		logger.F("items", len(resp.Items)),
		logger.F("since", since))
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) changedSince(ctx context.Context, table, userID string, since int64) ([]SyncItem, error) {
	typ, projectCol := typeProject, "client_id"
	if table == "items" {
		typ, projectCol = typeItem, "project_id"
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT client_id, %s, COALESCE(encode(encrypted_data, 'base64'), ''), sync_version, deleted
		FROM %s
		WHERE user_id = $1 AND sync_version > $2
		ORDER BY sync_version ASC`, projectCol, table),
		userID, since)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var items []SyncItem
	for rows.Next() {
		item := SyncItem{Type: typ}
		if err := rows.Scan(&item.ClientID, &item.ProjectID, &item.EncryptedData, &item.SyncVersion, &item.Deleted); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// handleSyncPush stores changed entities, each under a new per-user version
func (s *Server) handleSyncPush(c echo.Context) error {
	userID := currentUser(c)
	ctx := c.Request().Context()

	var req SyncPushRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	updated := []SyncItem{}
	for _, item := range req.Items {
		if item.Type != typeProject && item.Type != typeItem {
			logger.Warn("Ignoring unknown sync type", logger.F("type", item.Type))
			continue
		}

		version, err := nextVersion(ctx, tx, userID)
		if err != nil {
			logger.Error("Failed to bump sync version", logger.F("error", err))
			return errorJSON(c, http.StatusInternalServerError, "internal error")
		}

		if item.Type == typeProject {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO projects (user_id, client_id, encrypted_data, deleted, sync_version, updated_at)
				VALUES ($1, $2, decode($3, 'base64'), $4, $5, NOW())
				ON CONFLICT (user_id, client_id) DO UPDATE SET
					encrypted_data = EXCLUDED.encrypted_data,
					deleted = EXCLUDED.deleted,
					sync_version = EXCLUDED.sync_version,
					updated_at = NOW()`,
				userID, item.ClientID, item.EncryptedData, item.Deleted, version)
		} else {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO items (user_id, client_id, project_id, encrypted_data, deleted, sync_version, updated_at)
				VALUES ($1, $2, $3, decode($4, 'base64'), $5, $6, NOW())
				ON CONFLICT (user_id, client_id) DO UPDATE SET
					project_id = EXCLUDED.project_id,
					encrypted_data = EXCLUDED.encrypted_data,
					deleted = EXCLUDED.deleted,
					sync_version = EXCLUDED.sync_version,
					updated_at = NOW()`,
				userID, item.ClientID, item.ProjectID, item.EncryptedData, item.Deleted, version)
		}
		if err != nil {
			logger.Error("Failed to store sync item", logger.F("clientID", item.ClientID), logger.F("error", err))
			return errorJSON(c, http.StatusInternalServerError, "internal error")
		}

		item.SyncVersion = version
		updated = append(updated, item)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("Failed to commit push", logger.F("error", err))
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}

	logger.Info("Sync push", logger.F("user", userID), logger.F("updated", len(updated)))
	return c.JSON(http.StatusOK, SyncPushResponse{Updated: updated})
}

func nextVersion(ctx context.Context, tx *sql.Tx, userID string) (int64, error) {
	var v int64
	err := tx.QueryRowContext(ctx,
		`UPDATE users SET sync_version = sync_version + 1 WHERE id = $1 RETURNING sync_version`, userID,
	).Scan(&v)
	return v, err
}

// handleClear deletes every synced entity of the user. Rows become deletion
// markers under one new version so other devices pull the removals; the
// version counter never goes backwards.
func (s *Server) handleClear(c echo.Context) error {
	userID := currentUser(c)
	ctx := c.Request().Context()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	version, err := nextVersion(ctx, tx, userID)
	if err != nil {
		logger.Error("Failed to bump sync version", logger.F("error", err))
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}

	for _, table := range []string{"items", "projects"} {
		_, err := tx.ExecContext(ctx, fmt.Sprintf(`
			UPDATE %s SET deleted = TRUE, encrypted_data = NULL, sync_version = $2, updated_at = NOW()
			WHERE user_id = $1 AND NOT deleted`, table),
			userID, version)
		if err != nil {
			logger.Error("Failed to clear remote data", logger.F("user", userID), logger.F("error", err))
			return errorJSON(c, http.StatusInternalServerError, "internal error")
		}
	}

	if err := tx.Commit(); err != nil {
		return errorJSON(c, http.StatusInternalServerError, "internal error")
	}

	logger.Info("Remote data cleared", logger.F("user", userID), logger.F("version", version))
	return c.JSON(http.StatusOK, map[string]string{"status": "cleared"})
}
