// Package data composes the entity store with its collaborators: search
// indexing, reminders and the full-version flag.
package data

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/existflow/binge/internal/db"
	"github.com/existflow/binge/internal/logger"
	"github.com/existflow/binge/internal/model"
	"github.com/existflow/binge/internal/reminder"
	"github.com/existflow/binge/internal/search"
)

// Options configures the optional collaborators of a Controller
type Options struct {
	Index     search.Index        // Nil disables search indexing
	Reminders *reminder.Scheduler // Nil disables reminders
	Rand      *rand.Rand          // Source for sample data
	Now       func() time.Time
}

// Controller is the single entry point the CLI and TUI use to read and change data
type Controller struct {
	store     *db.DB
	index     search.Index
	reminders *reminder.Scheduler
	rng       *rand.Rand
	now       func() time.Time
	log       *logger.Logger
}

// New creates a controller and subscribes it to store changes
func New(store *db.DB, opts Options) *Controller {
	c := &Controller{
		store:     store,
		index:     opts.Index,
		reminders: opts.Reminders,
		rng:       opts.Rand,
		now:       opts.Now,
		log:       logger.WithFields(logger.F("component", "data")),
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if c.now == nil {
		c.now = time.Now
	}

	store.OnChange(c.handleChange)
	return c
}

// Store returns the underlying entity store
func (c *Controller) Store() *db.DB {
	return c.store
}

// handleChange keeps the search index and reminders in step with the store.
// Failures are logged only.
func (c *Controller) handleChange(ch db.Change) {
	ctx := context.Background()

	switch {
	case ch.Kind == db.KindItem && ch.Op != db.OpDeleted:
		if c.index == nil {
			return
		}
		it, err := c.store.GetItem(ctx, ch.ID)
		if err != nil {
			c.log.Warn("Failed to load item for indexing", logger.F("item", ch.ID), logger.F("error", err))
			return
		}
		if err := c.index.Index(ctx, search.ForItem(it)); err != nil {
			c.log.Warn("Failed to index item", logger.F("item", ch.ID), logger.F("error", err))
		}

	case ch.Kind == db.KindItem:
		if c.index == nil {
			return
		}
		if err := c.index.DeleteIDs(ctx, ch.ID); err != nil {
			c.log.Warn("Failed to remove item from index", logger.F("item", ch.ID), logger.F("error", err))
		}

	case ch.Kind == db.KindProject && ch.Op == db.OpDeleted:
		if c.index != nil {
			if err := c.index.DeleteGroups(ctx, ch.ID); err != nil {
				c.log.Warn("Failed to remove project from index", logger.F("project", ch.ID), logger.F("error", err))
			}
		}
		if c.reminders != nil {
			c.reminders.Cancel(ctx, ch.ID)
		}
	}
}

// AddProject creates a new open project unless the free limit is reached.
// It reports false, creating nothing, when the full version must be unlocked first.
func (c *Controller) AddProject(ctx context.Context, np db.NewProject) (model.Project, bool, error) {
	open, err := c.store.CountProjects(ctx, db.ProjectFilter{Closed: model.BoolPtr(false)})
	if err != nil {
		return model.Project{}, false, err
	}
	if !model.CanAddProject(open, c.FullVersionUnlocked(ctx)) {
		c.log.Info("Project limit reached", logger.F("open", open))
		return model.Project{}, false, nil
	}

	np.Closed = false
	np.CreationDate = c.now()
	p, err := c.store.CreateProject(ctx, np)
	if err != nil {
		return model.Project{}, false, err
	}
	c.store.Save()
	return p, true, nil
}

// AddItem creates an item in an existing project
func (c *Controller) AddItem(ctx context.Context, ni db.NewItem) (model.Item, error) {
	if ni.CreationDate.IsZero() {
		ni.CreationDate = c.now()
	}
	it, err := c.store.CreateItem(ctx, ni)
	if err != nil {
		return model.Item{}, err
	}
	c.store.Save()
	return it, nil
}

// Project returns a project with its items
func (c *Controller) Project(ctx context.Context, id string) (model.Project, error) {
	return c.store.GetProject(ctx, id)
}

// Item returns a single item
func (c *Controller) Item(ctx context.Context, id string) (model.Item, error) {
	return c.store.GetItem(ctx, id)
}

// UpdateProject changes project fields
func (c *Controller) UpdateProject(ctx context.Context, id string, u db.ProjectUpdate) error {
	if u.Color != nil && !model.IsColor(*u.Color) {
		return fmt.Errorf("unknown color %q", *u.Color)
	}
	if err := c.store.UpdateProject(ctx, id, u); err != nil {
		return err
	}
	c.store.Save()
	return nil
}

// UpdateItem changes item fields
func (c *Controller) UpdateItem(ctx context.Context, id string, u db.ItemUpdate) error {
	if err := c.store.UpdateItem(ctx, id, u); err != nil {
		return err
	}
	c.store.Save()
	return nil
}

// ToggleCompleted flips an item's completed flag and returns the new item
func (c *Controller) ToggleCompleted(ctx context.Context, id string) (model.Item, error) {
	it, err := c.store.GetItem(ctx, id)
	if err != nil {
		return model.Item{}, err
	}
	it.Completed = !it.Completed
	if err := c.UpdateItem(ctx, id, db.ItemUpdate{Completed: &it.Completed}); err != nil {
		return model.Item{}, err
	}
	return it, nil
}

// ToggleClosed flips a project's closed flag and returns the new project
func (c *Controller) ToggleClosed(ctx context.Context, id string) (model.Project, error) {
	p, err := c.store.GetProject(ctx, id)
	if err != nil {
		return model.Project{}, err
	}
	p.Closed = !p.Closed
	if err := c.UpdateProject(ctx, id, db.ProjectUpdate{Closed: &p.Closed}); err != nil {
		return model.Project{}, err
	}
	return p, nil
}

// DeleteProject removes a project and its items
func (c *Controller) DeleteProject(ctx context.Context, id string) error {
	if err := c.store.DeleteProject(ctx, id); err != nil {
		return err
	}
	c.store.Save()
	return nil
}

// DeleteItem removes one item
func (c *Controller) DeleteItem(ctx context.Context, id string) error {
	if err := c.store.DeleteItem(ctx, id); err != nil {
		return err
	}
	c.store.Save()
	return nil
}

// DeleteItems removes the items at the given positions of the project's list in the given order
func (c *Controller) DeleteItems(ctx context.Context, projectID string, order model.SortOrder, offsets []int) (int, error) {
	p, err := c.store.GetProject(ctx, projectID)
	if err != nil {
		return 0, err
	}

	items := model.ProjectItems(p, order)
	for _, off := range offsets {
		if off < 0 || off >= len(items) {
			return 0, fmt.Errorf("no item at position %d", off+1)
		}
	}

	seen := make(map[int]bool, len(offsets))
	deleted := 0
	for _, off := range offsets {
		if seen[off] {
			continue
		}
		seen[off] = true
		if err := c.store.DeleteItem(ctx, items[off].ID); err != nil {
			c.store.Save()
			return deleted, err
		}
		deleted++
	}
	c.store.Save()
	return deleted, nil
}

// ItemForSearchID resolves the unique id of a search record to its item
func (c *Controller) ItemForSearchID(ctx context.Context, uniqueID string) (model.Item, error) {
	return c.store.GetItem(ctx, uniqueID)
}

// Search looks items up through the search index. Stale records are skipped.
func (c *Controller) Search(ctx context.Context, query string, limit int) ([]model.Item, error) {
	if c.index == nil {
		return nil, errors.New("search is not available")
	}

	records, err := c.index.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	items := make([]model.Item, 0, len(records))
	for _, r := range records {
		it, err := c.ItemForSearchID(ctx, r.UniqueID)
		if errors.Is(err, model.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}

// Reindex rebuilds the search index from the store
func (c *Controller) Reindex(ctx context.Context) (int, error) {
	if c.index == nil {
		return 0, errors.New("search is not available")
	}

	projects, err := c.store.QueryProjects(ctx, db.ProjectQuery{})
	if err != nil {
		return 0, err
	}

	n := 0
	for _, p := range projects {
		if err := c.index.DeleteGroups(ctx, p.ID); err != nil {
			return n, err
		}
		records := make([]search.Record, len(p.Items))
		for i, it := range p.Items {
			records[i] = search.ForItem(it)
		}
		if err := c.index.Index(ctx, records...); err != nil {
			return n, err
		}
		n += len(records)
	}
	return n, nil
}

// FullVersionUnlocked reads the persistent unlock flag; read errors count as locked
func (c *Controller) FullVersionUnlocked(ctx context.Context) bool {
	unlocked, err := c.store.GetBool(ctx, db.SettingFullVersionUnlocked)
	if err != nil {
		c.log.Warn("Failed to read unlock flag", logger.F("error", err))
		return false
	}
	return unlocked
}

// SetFullVersionUnlocked stores the unlock flag
func (c *Controller) SetFullVersionUnlocked(ctx context.Context, unlocked bool) error {
	if err := c.store.SetBool(ctx, db.SettingFullVersionUnlocked, unlocked); err != nil {
		return err
	}
	return c.store.Flush()
}
