package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
)

// Setting keys
const (
	SettingFullVersionUnlocked = "full_version_unlocked"
	SettingNotificationAuth    = "notifications_authorization"
)

// GetSetting returns the stored value and whether it was set
func (db *DB) GetSetting(ctx context.Context, key string) (string, bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var value string
	err := db.q().QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, true, nil
}

// SetSetting stores a value. It joins pending changes if any, otherwise it is written immediately.
func (db *DB) SetSetting(ctx context.Context, key, value string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.q().ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}

// GetBool reads a boolean setting; unset reads as false
func (db *DB) GetBool(ctx context.Context, key string) (bool, error) {
	value, ok, err := db.GetSetting(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("setting %q is not a boolean: %w", key, err)
	}
	return b, nil
}

// SetBool stores a boolean setting
func (db *DB) SetBool(ctx context.Context, key string, value bool) error {
	return db.SetSetting(ctx, key, strconv.FormatBool(value))
}
