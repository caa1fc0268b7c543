package data

import (
	"context"

	"github.com/existflow/binge/internal/awards"
	"github.com/existflow/binge/internal/db"
	"github.com/existflow/binge/internal/model"
)

// Home feed sizes
const (
	homeFeedLimit = 10
	upNextCount   = 3
)

// Summary is a project with its derived completion figures
type Summary struct {
	Project    model.Project
	Completion float64
	Label      string
}

// Home is everything the home screen shows
type Home struct {
	Projects      []Summary
	UpNext        []model.Item
	MoreToExplore []model.Item
}

// WidgetEntry is one line of the widget feed
type WidgetEntry struct {
	Item         model.Item
	ProjectTitle string
	ProjectColor string
}

// HomeFeed returns open project summaries by title, and the ten most important
// unfinished items of open projects split into up next (3) and more to explore (7)
func (c *Controller) HomeFeed(ctx context.Context) (Home, error) {
	var home Home

	summaries, err := c.ProjectSummaries(ctx)
	if err != nil {
		return home, err
	}
	home.Projects = summaries

	items, err := c.topItems(ctx, homeFeedLimit)
	if err != nil {
		return home, err
	}
	if len(items) > upNextCount {
		home.UpNext = items[:upNextCount]
		home.MoreToExplore = items[upNextCount:]
	} else {
		home.UpNext = items
	}
	return home, nil
}

// ProjectSummaries returns open projects ordered by title
func (c *Controller) ProjectSummaries(ctx context.Context) ([]Summary, error) {
	projects, err := c.store.QueryProjects(ctx, db.ProjectQuery{
		Filter: db.ProjectFilter{Closed: model.BoolPtr(false)},
		Sort:   db.ProjectsByTitle,
	})
	if err != nil {
		return nil, err
	}

	summaries := make([]Summary, len(projects))
	for i, p := range projects {
		summaries[i] = Summary{
			Project:    p,
			Completion: model.CompletionAmount(p),
			Label:      model.AccessibleLabel(p),
		}
	}
	return summaries, nil
}

// OpenProjects returns open projects, newest first
func (c *Controller) OpenProjects(ctx context.Context) ([]model.Project, error) {
	return c.projects(ctx, false)
}

// ClosedProjects returns closed projects, newest first
func (c *Controller) ClosedProjects(ctx context.Context) ([]model.Project, error) {
	return c.projects(ctx, true)
}

func (c *Controller) projects(ctx context.Context, closed bool) ([]model.Project, error) {
	return c.store.QueryProjects(ctx, db.ProjectQuery{
		Filter: db.ProjectFilter{Closed: &closed},
		Sort:   db.ProjectsByCreationDesc,
	})
}

// Widget returns the n most important unfinished items of open projects
func (c *Controller) Widget(ctx context.Context, n int) ([]WidgetEntry, error) {
	items, err := c.topItems(ctx, n)
	if err != nil {
		return nil, err
	}

	titles := map[string]model.Project{}
	entries := make([]WidgetEntry, 0, len(items))
	for _, it := range items {
		p, ok := titles[it.ProjectID]
		if !ok {
			p, err = c.store.GetProject(ctx, it.ProjectID)
			if err != nil {
				return nil, err
			}
			titles[it.ProjectID] = p
		}
		entries = append(entries, WidgetEntry{
			Item:         it,
			ProjectTitle: model.ProjectTitle(p),
			ProjectColor: model.ProjectColor(p),
		})
	}
	return entries, nil
}

func (c *Controller) topItems(ctx context.Context, limit int) ([]model.Item, error) {
	return c.store.QueryItems(ctx, db.ItemQuery{
		Filter: db.ItemFilter{
			Completed:     model.BoolPtr(false),
			ProjectClosed: model.BoolPtr(false),
		},
		Sort:  db.ItemsByPriority,
		Limit: limit,
	})
}

// CountItems counts every item
func (c *Controller) CountItems(ctx context.Context) (int, error) {
	return c.store.CountItems(ctx, db.ItemFilter{})
}

// CountCompletedItems counts completed items
func (c *Controller) CountCompletedItems(ctx context.Context) (int, error) {
	return c.store.CountItems(ctx, db.ItemFilter{Completed: model.BoolPtr(true)})
}

// HasEarned reports whether an award has been earned
func (c *Controller) HasEarned(ctx context.Context, a awards.Award) bool {
	return awards.HasEarned(ctx, a, c)
}

// EarnedAwards returns the earned awards of the built-in catalog
func (c *Controller) EarnedAwards(ctx context.Context) []awards.Award {
	return awards.Earned(ctx, awards.All(), c)
}
