package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/existflow/binge/internal/model"
)

// Reminder is a pending daily notification request for a project
type Reminder struct {
	ProjectID string
	Title     string
	Subtitle  string
	Time      model.TimeOfDay
	LastFired string // Day (YYYY-MM-DD) the reminder last fired, empty if never
}

// PutReminder adds or replaces the reminder for a project
func (db *DB) PutReminder(ctx context.Context, r Reminder) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.q().ExecContext(ctx,
		`INSERT INTO reminders (project_id, title, subtitle, hour, minute, last_fired)
		 VALUES (?, ?, ?, ?, ?, NULL)
		 ON CONFLICT(project_id) DO UPDATE SET
		   title = excluded.title, subtitle = excluded.subtitle,
		   hour = excluded.hour, minute = excluded.minute, last_fired = NULL`,
		r.ProjectID, r.Title, r.Subtitle, r.Time.Hour, r.Time.Minute)
	if err != nil {
		return fmt.Errorf("failed to store reminder: %w", err)
	}
	return nil
}

// DeleteReminder removes the reminder for a project, if any
func (db *DB) DeleteReminder(ctx context.Context, projectID string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, err := db.q().ExecContext(ctx, `DELETE FROM reminders WHERE project_id = ?`, projectID); err != nil {
		return fmt.Errorf("failed to delete reminder: %w", err)
	}
	return nil
}

// Reminders lists all pending reminders ordered by time of day
func (db *DB) Reminders(ctx context.Context) ([]Reminder, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	rows, err := db.q().QueryContext(ctx,
		`SELECT project_id, title, subtitle, hour, minute, last_fired FROM reminders ORDER BY hour, minute, project_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var reminders []Reminder
	for rows.Next() {
		var r Reminder
		var last sql.NullString
		if err := rows.Scan(&r.ProjectID, &r.Title, &r.Subtitle, &r.Time.Hour, &r.Time.Minute, &last); err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		r.LastFired = last.String
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

// MarkReminderFired records the day a reminder was delivered
func (db *DB) MarkReminderFired(ctx context.Context, projectID, day string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, err := db.q().ExecContext(ctx,
		`UPDATE reminders SET last_fired = ? WHERE project_id = ?`, day, projectID); err != nil {
		return fmt.Errorf("failed to mark reminder: %w", err)
	}
	return nil
}
