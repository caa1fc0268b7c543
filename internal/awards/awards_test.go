package awards

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCounter struct {
	items     int
	completed int
	err       error
	calls     int
}

func (f *fakeCounter) CountItems(context.Context) (int, error) {
	f.calls++
	return f.items, f.err
}

func (f *fakeCounter) CountCompletedItems(context.Context) (int, error) {
	f.calls++
	return f.completed, f.err
}

func TestBuiltInCatalog(t *testing.T) {
	list := All()
	require.Len(t, list, 20)

	criteria := map[string]int{}
	for _, a := range list {
		assert.NotEmpty(t, a.Name, a.ID)
		assert.NotEmpty(t, a.Description, a.ID)
		assert.Positive(t, a.Value, a.ID)
		criteria[a.Criterion]++
	}
	assert.Equal(t, 6, criteria[CriterionItems])
	assert.Equal(t, 6, criteria[CriterionComplete])

	list[0].Name = "changed"
	assert.NotEqual(t, "changed", All()[0].Name)
}

func TestItemsCriterion(t *testing.T) {
	ctx := context.Background()
	award := Award{ID: "five", Criterion: CriterionItems, Value: 5}
	c := &fakeCounter{items: 4}

	assert.False(t, HasEarned(ctx, award, c))
	c.items = 5
	assert.True(t, HasEarned(ctx, award, c))
	assert.Equal(t, 2, c.calls)
}

func TestCompleteCriterion(t *testing.T) {
	ctx := context.Background()
	award := Award{ID: "done", Criterion: CriterionComplete, Value: 1}

	assert.False(t, HasEarned(ctx, award, &fakeCounter{items: 10}))
	assert.True(t, HasEarned(ctx, award, &fakeCounter{items: 10, completed: 1}))
}

func TestUnknownCriterionNeverEarned(t *testing.T) {
	ctx := context.Background()
	c := &fakeCounter{items: 1000, completed: 1000}

	assert.False(t, HasEarned(ctx, Award{Criterion: "xyz", Value: 0}, c))
	assert.False(t, HasEarned(ctx, Award{Criterion: "chat", Value: 1}, c))
	assert.Equal(t, 0, c.calls)
}

func TestCountFailureIsNotEarned(t *testing.T) {
	c := &fakeCounter{items: 100, err: errors.New("disk on fire")}
	assert.False(t, HasEarned(context.Background(), Award{Criterion: CriterionItems, Value: 1}, c))
}

func TestEarned(t *testing.T) {
	list := []Award{
		{ID: "a", Criterion: CriterionItems, Value: 1},
		{ID: "b", Criterion: CriterionItems, Value: 10},
		{ID: "c", Criterion: CriterionComplete, Value: 1},
		{ID: "d", Criterion: "unlock", Value: 1},
	}
	earned := Earned(context.Background(), list, &fakeCounter{items: 3, completed: 1})

	ids := make([]string, len(earned))
	for i, a := range earned {
		ids[i] = a.ID
	}
	assert.Equal(t, []string{"a", "c"}, ids)
}

func TestLoadRejectsDuplicates(t *testing.T) {
	_, err := Load(strings.NewReader("- id: a\n  criterion: items\n  value: 1\n- id: a\n  criterion: items\n  value: 2\n"))
	assert.Error(t, err)

	_, err = Load(strings.NewReader("- name: nameless\n"))
	assert.Error(t, err)

	list, err := Load(strings.NewReader("- id: x\n  criterion: complete\n  value: 3\n"))
	require.NoError(t, err)
	assert.Equal(t, []Award{{ID: "x", Criterion: "complete", Value: 3}}, list)
}
