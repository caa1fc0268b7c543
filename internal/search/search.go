// Package search describes the searchable index that items are published to.
package search

import (
	"context"

	"github.com/existflow/binge/internal/model"
)

// Record is one searchable entry. GroupID is the owning project so a whole
// project can be dropped at once.
type Record struct {
	UniqueID    string
	GroupID     string
	Title       string
	Description string
}

// Index is a full-text index of records
type Index interface {
	Index(ctx context.Context, records ...Record) error
	DeleteIDs(ctx context.Context, ids ...string) error
	DeleteGroups(ctx context.Context, groupIDs ...string) error
	Search(ctx context.Context, query string, limit int) ([]Record, error)
}

// ForItem builds the record published for an item
func ForItem(it model.Item) Record {
	return Record{
		UniqueID:    it.ID,
		GroupID:     it.ProjectID,
		Title:       model.ItemTitle(it),
		Description: model.ItemDetail(it),
	}
}
