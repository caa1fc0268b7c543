package model

import (
	"fmt"
	"sort"
	"strings"
)

// SortOrder selects how a project's items are ordered
type SortOrder int

const (
	SortOptimized SortOrder = iota // Incomplete first, then priority desc, then oldest first
	SortTitle
	SortCreationDate
)

// String returns the name used in config and flags
func (o SortOrder) String() string {
	switch o {
	case SortTitle:
		return "title"
	case SortCreationDate:
		return "created"
	default:
		return "optimized"
	}
}

// Next cycles through the available orders
func (o SortOrder) Next() SortOrder {
	return (o + 1) % 3
}

// ParseSortOrder converts a config/flag value to a SortOrder
func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "optimized", "optimised", "default":
		return SortOptimized, nil
	case "title", "name":
		return SortTitle, nil
	case "created", "creation", "creation-date", "date":
		return SortCreationDate, nil
	default:
		return SortOptimized, fmt.Errorf("unknown sort order %q", s)
	}
}

// ProjectItems returns a sorted copy of the project's items
func ProjectItems(p Project, order SortOrder) []Item {
	items := make([]Item, len(p.Items))
	copy(items, p.Items)
	SortItems(items, order)
	return items
}

// SortItems sorts items in place; the sort is stable
func SortItems(items []Item, order SortOrder) {
	switch order {
	case SortTitle:
		sort.SliceStable(items, func(i, j int) bool {
			return ItemTitle(items[i]) < ItemTitle(items[j])
		})
	case SortCreationDate:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].CreationDate.Before(items[j].CreationDate)
		})
	default:
		sort.SliceStable(items, func(i, j int) bool {
			return optimizedLess(items[i], items[j])
		})
	}
}

func optimizedLess(a, b Item) bool {
	if a.Completed != b.Completed {
		return !a.Completed
	}
	if a.Rank() != b.Rank() {
		return a.Rank() > b.Rank()
	}
	return a.CreationDate.Before(b.CreationDate)
}
