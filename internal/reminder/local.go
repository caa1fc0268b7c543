package reminder

import (
	"context"
	"fmt"

	"github.com/existflow/binge/internal/db"
)

// Prompter asks the user whether reminders may be shown
type Prompter func(ctx context.Context) (bool, error)

// LocalCenter keeps reminder requests and the authorization decision in the local store
type LocalCenter struct {
	store  *db.DB
	prompt Prompter
}

var _ Center = (*LocalCenter)(nil)

// NewLocalCenter creates a center; prompt may be nil when no one can be asked
func NewLocalCenter(store *db.DB, prompt Prompter) *LocalCenter {
	return &LocalCenter{store: store, prompt: prompt}
}

func (c *LocalCenter) AuthorizationStatus(ctx context.Context) (AuthorizationStatus, error) {
	value, ok, err := c.store.GetSetting(ctx, db.SettingNotificationAuth)
	if err != nil {
		return NotDetermined, err
	}
	if !ok {
		return NotDetermined, nil
	}
	switch value {
	case Authorized.String():
		return Authorized, nil
	case Denied.String():
		return Denied, nil
	default:
		return NotDetermined, nil
	}
}

// RequestAuthorization asks once and remembers the answer
func (c *LocalCenter) RequestAuthorization(ctx context.Context) (bool, error) {
	if c.prompt == nil {
		return false, nil
	}

	granted, err := c.prompt(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to ask for notification permission: %w", err)
	}

	status := Denied
	if granted {
		status = Authorized
	}
	if err := c.SetStatus(ctx, status); err != nil {
		return false, err
	}
	return granted, nil
}

// SetStatus records an authorization decision; NotDetermined clears it
func (c *LocalCenter) SetStatus(ctx context.Context, status AuthorizationStatus) error {
	return c.store.SetSetting(ctx, db.SettingNotificationAuth, status.String())
}

func (c *LocalCenter) Add(ctx context.Context, r Request) error {
	return c.store.PutReminder(ctx, db.Reminder{
		ProjectID: r.ID,
		Title:     r.Title,
		Subtitle:  r.Subtitle,
		Time:      r.Time,
	})
}

func (c *LocalCenter) Remove(ctx context.Context, ids ...string) error {
	for _, id := range ids {
		if err := c.store.DeleteReminder(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// Pending lists the placed requests
func (c *LocalCenter) Pending(ctx context.Context) ([]db.Reminder, error) {
	return c.store.Reminders(ctx)
}
