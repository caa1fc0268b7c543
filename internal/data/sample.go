package data

import (
	"context"
	"fmt"

	"github.com/existflow/binge/internal/db"
	"github.com/existflow/binge/internal/logger"
	"github.com/existflow/binge/internal/model"
)

// CreateSampleData adds 5 projects of 10 items each with random state
func (c *Controller) CreateSampleData(ctx context.Context) error {
	now := c.now()

	for pn := 1; pn <= model.SampleProjects; pn++ {
		p, err := c.store.CreateProject(ctx, db.NewProject{
			Title:        model.StringPtr(model.SampleProjectTitle(pn)),
			Closed:       c.rng.IntN(2) == 1,
			CreationDate: now,
		})
		if err != nil {
			c.store.Discard()
			return fmt.Errorf("failed to create sample project: %w", err)
		}

		for in := 1; in <= model.SampleItemsPerProject; in++ {
			_, err := c.store.CreateItem(ctx, db.NewItem{
				ProjectID:    p.ID,
				Title:        model.StringPtr(model.SampleItemTitle(in)),
				Completed:    c.rng.IntN(2) == 1,
				Priority:     model.PriorityLow + c.rng.IntN(3),
				CreationDate: now,
			})
			if err != nil {
				c.store.Discard()
				return fmt.Errorf("failed to create sample item: %w", err)
			}
		}
	}

	if err := c.store.Flush(); err != nil {
		return err
	}
	c.log.Info("Sample data created",
		logger.F("projects", model.SampleProjects),
		logger.F("items", model.SampleProjects*model.SampleItemsPerProject))
	return nil
}

// ResetSampleData wipes everything and creates fresh sample data
func (c *Controller) ResetSampleData(ctx context.Context) error {
	if err := c.DeleteAll(ctx); err != nil {
		return err
	}
	return c.CreateSampleData(ctx)
}

// DeleteAll removes every project and item
func (c *Controller) DeleteAll(ctx context.Context) error {
	if err := c.store.DeleteAll(ctx); err != nil {
		return err
	}
	return c.store.Flush()
}
