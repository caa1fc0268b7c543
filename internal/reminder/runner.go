package reminder

import (
	"context"
	"time"

	"github.com/existflow/binge/internal/logger"
)

// Notification is a reminder that has come due
type Notification struct {
	ProjectID string
	Title     string
	Subtitle  string
	At        time.Time
}

// Deliverer shows a notification to the user
type Deliverer interface {
	Deliver(ctx context.Context, n Notification) error
}

// DelivererFunc adapts a function to Deliverer
type DelivererFunc func(ctx context.Context, n Notification) error

func (f DelivererFunc) Deliver(ctx context.Context, n Notification) error {
	return f(ctx, n)
}

// Runner fires due reminders, at most once per reminder per day
type Runner struct {
	center   *LocalCenter
	deliver  Deliverer
	interval time.Duration
	now      func() time.Time
}

// NewRunner creates a runner that checks every 20 seconds
func NewRunner(center *LocalCenter, deliver Deliverer) *Runner {
	return &Runner{
		center:   center,
		deliver:  deliver,
		interval: 20 * time.Second,
		now:      time.Now,
	}
}

// Tick delivers every reminder matching the current minute and returns how many fired
func (r *Runner) Tick(ctx context.Context) (int, error) {
	status, err := r.center.AuthorizationStatus(ctx)
	if err != nil {
		return 0, err
	}
	if status != Authorized {
		return 0, nil
	}

	pending, err := r.center.Pending(ctx)
	if err != nil {
		return 0, err
	}

	now := r.now()
	today := now.Format("2006-01-02")
	fired := 0
	for _, rem := range pending {
		if !rem.Time.Matches(now) || rem.LastFired == today {
			continue
		}

		n := Notification{ProjectID: rem.ProjectID, Title: rem.Title, Subtitle: rem.Subtitle, At: now}
		if err := r.deliver.Deliver(ctx, n); err != nil {
			logger.Warn("Failed to deliver reminder", logger.F("project", rem.ProjectID), logger.F("error", err))
			continue
		}
		if err := r.center.store.MarkReminderFired(ctx, rem.ProjectID, today); err != nil {
			return fired, err
		}
		fired++
	}
	return fired, nil
}

// Run ticks until ctx is cancelled
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	logger.Info("Reminder runner started", logger.F("interval", r.interval.String()))
	for {
		if _, err := r.Tick(ctx); err != nil {
			logger.Error("Reminder tick failed", logger.F("error", err))
		}

		select {
		case <-ctx.Done():
			logger.Info("Reminder runner stopped")
			return nil
		case <-ticker.C:
		}
	}
}
