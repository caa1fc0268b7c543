package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/existflow/binge/internal/config"
	"github.com/existflow/binge/internal/data"
	"github.com/existflow/binge/internal/db"
	"github.com/existflow/binge/internal/logger"
	"github.com/existflow/binge/internal/model"
	"github.com/existflow/binge/internal/reminder"
)

// cfg is loaded by the root command before any subcommand runs
var cfg = config.DefaultConfig()

// app bundles the store and the controller for one command invocation
type app struct {
	store  *db.DB
	ctrl   *data.Controller
	center *reminder.LocalCenter
}

func openApp() (*app, error) {
	store, err := db.Open(cfg.DatabasePath)
	if err != nil {
		logger.Error("Failed to open database", logger.F("error", err))
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return newApp(store, askNotificationPermission), nil
}

func newApp(store *db.DB, prompt reminder.Prompter) *app {
	center := reminder.NewLocalCenter(store, prompt)
	return &app{
		store:  store,
		center: center,
		ctrl: data.New(store, data.Options{
			Index:     store.SearchIndex(),
			Reminders: reminder.NewScheduler(center),
		}),
	}
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		logger.Warn("Failed to close database", logger.F("error", err))
	}
}

func sortOrder() model.SortOrder {
	order, err := model.ParseSortOrder(cfg.SortOrder)
	if err != nil {
		logger.Warn("Unknown sort order in config", logger.F("value", cfg.SortOrder))
	}
	return order
}

// findProject resolves an id prefix or a case-insensitive title
func (a *app) findProject(ctx context.Context, ref string) (model.Project, error) {
	projects, err := a.store.QueryProjects(ctx, db.ProjectQuery{})
	if err != nil {
		return model.Project{}, err
	}

	var matches []model.Project
	for _, p := range projects {
		if p.ID == ref {
			return p, nil
		}
		if strings.HasPrefix(p.ID, ref) || strings.EqualFold(model.ProjectTitle(p), ref) {
			matches = append(matches, p)
		}
	}

	switch len(matches) {
	case 0:
		return model.Project{}, fmt.Errorf("project %q: %w", ref, model.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return model.Project{}, fmt.Errorf("%q matches %d projects, use more of the id", ref, len(matches))
	}
}

// findItem resolves an item id prefix
func (a *app) findItem(ctx context.Context, ref string) (model.Item, error) {
	if it, err := a.store.GetItem(ctx, ref); err == nil {
		return it, nil
	} else if !errors.Is(err, model.ErrNotFound) {
		return model.Item{}, err
	}

	items, err := a.store.QueryItems(ctx, db.ItemQuery{})
	if err != nil {
		return model.Item{}, err
	}

	var matches []model.Item
	for _, it := range items {
		if strings.HasPrefix(it.ID, ref) {
			matches = append(matches, it)
		}
	}

	switch len(matches) {
	case 0:
		return model.Item{}, fmt.Errorf("item %q: %w", ref, model.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return model.Item{}, fmt.Errorf("%q matches %d items, use more of the id", ref, len(matches))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// confirm asks a yes/no question; non-interactive sessions answer no
func confirm(title string) bool {
	if !interactive() {
		return false
	}

	var ok bool
	err := huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(&ok).
		Run()
	if err != nil {
		logger.Debug("Confirmation aborted", logger.F("error", err))
		return false
	}
	return ok
}

// askNotificationPermission is the Prompter used the first time a reminder is set
func askNotificationPermission(ctx context.Context) (bool, error) {
	if !interactive() {
		return false, errors.New("cannot ask for notification permission without a terminal")
	}
	return confirm("Allow binge to show daily project reminders?"), nil
}
