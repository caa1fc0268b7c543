// Package reminder schedules daily project reminders through a notification center.
package reminder

import (
	"context"

	"github.com/existflow/binge/internal/logger"
	"github.com/existflow/binge/internal/model"
)

// AuthorizationStatus is whether the user allows reminders
type AuthorizationStatus int

const (
	NotDetermined AuthorizationStatus = iota
	Authorized
	Denied
)

func (s AuthorizationStatus) String() string {
	switch s {
	case Authorized:
		return "authorized"
	case Denied:
		return "denied"
	default:
		return "not determined"
	}
}

// Request is a repeating daily notification. ID is the project id.
type Request struct {
	ID       string
	Title    string
	Subtitle string
	Time     model.TimeOfDay
}

// Center places and removes notification requests
type Center interface {
	AuthorizationStatus(ctx context.Context) (AuthorizationStatus, error)
	RequestAuthorization(ctx context.Context) (bool, error)
	Add(ctx context.Context, r Request) error
	Remove(ctx context.Context, ids ...string) error
}

// Scheduler turns project reminder settings into center requests
type Scheduler struct {
	center Center
}

// NewScheduler creates a scheduler on top of center
func NewScheduler(center Center) *Scheduler {
	return &Scheduler{center: center}
}

// Schedule places a daily reminder for a project, asking for authorization
// first if the user has not decided yet. It reports whether the reminder was placed.
func (s *Scheduler) Schedule(ctx context.Context, projectID, title, subtitle string, at model.TimeOfDay) bool {
	status, err := s.center.AuthorizationStatus(ctx)
	if err != nil {
		logger.Warn("Failed to read notification authorization", logger.F("error", err))
		return false
	}

	switch status {
	case NotDetermined:
		granted, err := s.center.RequestAuthorization(ctx)
		if err != nil {
			logger.Warn("Notification authorization request failed", logger.F("error", err))
			return false
		}
		if !granted {
			return false
		}
	case Authorized:
	default:
		return false
	}

	req := Request{ID: projectID, Title: title, Subtitle: subtitle, Time: at}
	if err := s.center.Add(ctx, req); err != nil {
		logger.Warn("Failed to place reminder", logger.F("project", projectID), logger.F("error", err))
		return false
	}
	logger.Debug("Reminder placed", logger.F("project", projectID), logger.F("time", at.String()))
	return true
}

// Cancel removes any pending reminder for a project
func (s *Scheduler) Cancel(ctx context.Context, projectID string) {
	if err := s.center.Remove(ctx, projectID); err != nil {
		logger.Warn("Failed to remove reminder", logger.F("project", projectID), logger.F("error", err))
	}
}
