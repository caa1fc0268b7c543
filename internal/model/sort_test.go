package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func at(n int) time.Time {
	return epoch.Add(time.Duration(n) * time.Minute)
}

func TestOptimizedOrderExample(t *testing.T) {
	t.Parallel()

	p := Project{Items: []Item{
		{ID: "a", Completed: false, Priority: 1, CreationDate: at(2)},
		{ID: "b", Completed: false, Priority: 3, CreationDate: at(1)},
		{ID: "c", Completed: true, Priority: 3, CreationDate: at(0)},
	}}

	got := ProjectItems(p, SortOptimized)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"b", "a", "c"}, ids(got))

	// the project's own slice is left untouched
	assert.Equal(t, "a", p.Items[0].ID)
}

func TestOptimizedOrderInvariants(t *testing.T) {
	t.Parallel()

	var items []Item
	for i := 0; i < 30; i++ {
		items = append(items, Item{
			ID:           string(rune('A' + i)),
			Completed:    i%3 == 0,
			Priority:     i % 4, // includes unset
			CreationDate: at(30 - i),
		})
	}

	got := ProjectItems(Project{Items: items}, SortOptimized)
	for i := 1; i < len(got); i++ {
		prev, cur := got[i-1], got[i]
		if prev.Completed != cur.Completed {
			assert.False(t, prev.Completed, "incomplete items must come first")
			continue
		}
		assert.GreaterOrEqual(t, prev.Rank(), cur.Rank())
		if prev.Rank() == cur.Rank() {
			assert.False(t, cur.CreationDate.Before(prev.CreationDate))
		}
	}
}

func TestUnsetPriorityRanksLow(t *testing.T) {
	t.Parallel()

	items := []Item{
		{ID: "unset", CreationDate: at(0)},
		{ID: "medium", Priority: PriorityMedium, CreationDate: at(5)},
		{ID: "low", Priority: PriorityLow, CreationDate: at(1)},
	}
	SortItems(items, SortOptimized)
	assert.Equal(t, []string{"medium", "unset", "low"}, ids(items))
}

func TestTitleAndCreationOrders(t *testing.T) {
	t.Parallel()

	p := Project{Items: []Item{
		{ID: "1", Title: StringPtr("Milk"), CreationDate: at(3)},
		{ID: "2", CreationDate: at(1)},
		{ID: "3", Title: StringPtr("Bread"), CreationDate: at(2)},
	}}

	assert.Equal(t, []string{"3", "1", "2"}, ids(ProjectItems(p, SortTitle)))
	assert.Equal(t, []string{"2", "3", "1"}, ids(ProjectItems(p, SortCreationDate)))
}

func TestParseSortOrder(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]SortOrder{
		"":          SortOptimized,
		"optimized": SortOptimized,
		"Title":     SortTitle,
		"created":   SortCreationDate,
	} {
		got, err := ParseSortOrder(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseSortOrder("random")
	assert.Error(t, err)

	assert.Equal(t, SortOptimized, SortCreationDate.Next())
}

func ids(items []Item) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}
