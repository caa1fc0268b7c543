package model

import (
	"fmt"
	"strconv"
	"time"
)

// Display defaults for projects with unset fields
const (
	DefaultProjectTitle = "New Project"
	DefaultProjectColor = "Light Blue"
)

// FreeProjectLimit is the number of open projects allowed before the full version is unlocked
const FreeProjectLimit = 3

// Colors is the fixed palette a project color must name
var Colors = []string{
	"Pink",
	"Purple",
	"Red",
	"Orange",
	"Gold",
	"Green",
	"Teal",
	"Light Blue",
	"Dark Blue",
	"Midnight",
	"Dark Gray",
	"Gray",
}

// Project represents a collection of items
type Project struct {
	ID           string     `json:"id"`
	Title        *string    `json:"title,omitempty"`
	Detail       *string    `json:"detail,omitempty"`
	Color        *string    `json:"color,omitempty"`
	CreationDate time.Time  `json:"creation_date"`
	Closed       bool       `json:"closed"`
	ReminderTime *TimeOfDay `json:"reminder_time,omitempty"`
	Items        []Item     `json:"items,omitempty"`
}

// ProjectTitle returns the title, or "New Project" if unset
func ProjectTitle(p Project) string {
	if p.Title == nil {
		return DefaultProjectTitle
	}
	return *p.Title
}

// ProjectDetail returns the detail, or "" if unset
func ProjectDetail(p Project) string {
	if p.Detail == nil {
		return ""
	}
	return *p.Detail
}

// ProjectColor returns the palette color name. Unset or unknown colors fall back to Light Blue.
func ProjectColor(p Project) string {
	if p.Color == nil || !IsColor(*p.Color) {
		return DefaultProjectColor
	}
	return *p.Color
}

// IsColor reports whether name is part of the palette
func IsColor(name string) bool {
	for _, c := range Colors {
		if c == name {
			return true
		}
	}
	return false
}

// CompletionAmount returns the completed fraction of the project's items in [0, 1]
func CompletionAmount(p Project) float64 {
	if len(p.Items) == 0 {
		return 0
	}
	completed := 0
	for _, item := range p.Items {
		if item.Completed {
			completed++
		}
	}
	return float64(completed) / float64(len(p.Items))
}

// AccessibleLabel describes a project for screen readers, e.g. "Work, 3 items, 33.3333% complete"
func AccessibleLabel(p Project) string {
	percent := strconv.FormatFloat(CompletionAmount(p)*100, 'g', 6, 64)
	return fmt.Sprintf("%s, %d items, %s%% complete", ProjectTitle(p), len(p.Items), percent)
}

// CanAddProject reports whether another open project may be created
func CanAddProject(openProjects int, fullVersionUnlocked bool) bool {
	return fullVersionUnlocked || openProjects < FreeProjectLimit
}

// TimeOfDay is an hour and minute used for daily reminders
type TimeOfDay struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// ParseTimeOfDay parses "HH:MM" (24h)
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q, expected HH:MM", s)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// String returns the time formatted as HH:MM
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Matches reports whether the wall clock of now falls in this minute
func (t TimeOfDay) Matches(now time.Time) bool {
	return now.Hour() == t.Hour && now.Minute() == t.Minute
}
