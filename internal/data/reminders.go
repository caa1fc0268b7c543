package data

import (
	"context"
	"fmt"

	"github.com/existflow/binge/internal/db"
	"github.com/existflow/binge/internal/logger"
	"github.com/existflow/binge/internal/model"
)

// AddReminders places the daily reminder of a project and reports whether it worked
func (c *Controller) AddReminders(ctx context.Context, p model.Project) bool {
	if c.reminders == nil {
		return false
	}

	at := model.TimeOfDay{Hour: c.now().Hour(), Minute: c.now().Minute()}
	if p.ReminderTime != nil {
		at = *p.ReminderTime
	}
	return c.reminders.Schedule(ctx, p.ID, model.ProjectTitle(p), model.ProjectDetail(p), at)
}

// RemoveReminders cancels the daily reminder of a project
func (c *Controller) RemoveReminders(ctx context.Context, p model.Project) {
	if c.reminders != nil {
		c.reminders.Cancel(ctx, p.ID)
	}
}

// SetReminder enables (at != nil) or disables the daily reminder of a project.
// When the reminder cannot be placed the project keeps no reminder time and
// ErrAuthorizationDenied is returned.
func (c *Controller) SetReminder(ctx context.Context, projectID string, at *model.TimeOfDay) error {
	if at == nil {
		if err := c.UpdateProject(ctx, projectID, db.ProjectUpdate{ClearReminder: true}); err != nil {
			return err
		}
		c.RemoveReminders(ctx, model.Project{ID: projectID})
		return nil
	}

	if err := c.UpdateProject(ctx, projectID, db.ProjectUpdate{ReminderTime: at}); err != nil {
		return err
	}

	p, err := c.store.GetProject(ctx, projectID)
	if err != nil {
		return err
	}

	if c.AddReminders(ctx, p) {
		c.store.Save()
		return nil
	}

	c.log.Info("Reminder refused, reverting", logger.F("project", projectID))
	c.RemoveReminders(ctx, p)
	if err := c.UpdateProject(ctx, projectID, db.ProjectUpdate{ClearReminder: true}); err != nil {
		return err
	}
	return fmt.Errorf("%w: could not schedule reminder for %q", model.ErrAuthorizationDenied, model.ProjectTitle(p))
}
