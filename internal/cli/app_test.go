package cli

import (
	"bufio"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/existflow/binge/internal/db"
	"github.com/existflow/binge/internal/model"
)

func newTestApp(t *testing.T) *app {
	t.Helper()
	t.Setenv("BINGE_HOME", t.TempDir())

	store, err := db.Open(filepath.Join(t.TempDir(), "binge.db"))
	require.NoError(t, err)
	a := newApp(store, nil)
	t.Cleanup(a.Close)
	return a
}

func (a *app) mustProject(t *testing.T, title string) model.Project {
	t.Helper()
	p, ok, err := a.ctrl.AddProject(context.Background(), db.NewProject{Title: &title})
	require.NoError(t, err)
	require.True(t, ok)
	return p
}

func TestFindProject(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()
	garden := a.mustProject(t, "Garden")
	a.mustProject(t, "Reading")

	p, err := a.findProject(ctx, garden.ID)
	require.NoError(t, err)
	assert.Equal(t, garden.ID, p.ID)

	p, err = a.findProject(ctx, "gArDeN")
	require.NoError(t, err)
	assert.Equal(t, garden.ID, p.ID)

	p, err = a.findProject(ctx, garden.ID[:8])
	require.NoError(t, err)
	assert.Equal(t, garden.ID, p.ID)

	_, err = a.findProject(ctx, "Cooking")
	assert.True(t, errors.Is(err, model.ErrNotFound))

	_, err = a.findProject(ctx, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "matches 2 projects")
}

func TestFindItem(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()
	p := a.mustProject(t, "Garden")

	title := "Water"
	it, err := a.ctrl.AddItem(ctx, db.NewItem{ProjectID: p.ID, Title: &title})
	require.NoError(t, err)

	found, err := a.findItem(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, "Water", model.ItemTitle(found))

	found, err = a.findItem(ctx, shortID(it.ID))
	require.NoError(t, err)
	assert.Equal(t, it.ID, found.ID)

	_, err = a.findItem(ctx, "zzzz")
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestProjectRefUsesContext(t *testing.T) {
	t.Setenv("BINGE_HOME", t.TempDir())

	ref, err := projectRef("Garden")
	require.NoError(t, err)
	assert.Equal(t, "Garden", ref)

	_, err = projectRef("")
	require.Error(t, err)

	require.NoError(t, SetContext("abc123"))
	ref, err = projectRef("")
	require.NoError(t, err)
	assert.Equal(t, "abc123", ref)

	require.NoError(t, ClearContext())
	assert.Empty(t, GetCurrentContext())
	require.NoError(t, ClearContext())
}

func TestSortOrderFallsBackToOptimized(t *testing.T) {
	saved := cfg.SortOrder
	t.Cleanup(func() { cfg.SortOrder = saved })

	cfg.SortOrder = "title"
	assert.Equal(t, model.SortTitle, sortOrder())

	cfg.SortOrder = "bogus"
	assert.Equal(t, model.SortOptimized, sortOrder())
}

func TestUserLanguage(t *testing.T) {
	t.Setenv("LC_ALL", "")
	t.Setenv("LC_MONETARY", "")

	t.Setenv("LANG", "de_DE.UTF-8")
	base, _ := userLanguage().Base()
	assert.Equal(t, "de", base.String())

	t.Setenv("LANG", "C")
	assert.Equal(t, language.English, userLanguage())
}

func TestFormattingHelpers(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
	assert.Equal(t, "12345678", shortID("1234567890"))
	assert.Equal(t, "ab", shortID("ab"))

	assert.Equal(t, "high", priorityLabel(model.PriorityHigh))
	assert.Equal(t, "low", priorityLabel(model.PriorityUnset))

	bar := progressBar(0.5, 10)
	assert.Equal(t, 5, strings.Count(bar, "█"))
	assert.Equal(t, 5, strings.Count(bar, "·"))
	assert.Equal(t, 10, strings.Count(progressBar(1.2, 10), "█"))

	assert.Nil(t, optional(""))
	assert.Equal(t, "x", *optional("x"))
	assert.Equal(t, "closed", openState(true))
}

func TestCredentialChecks(t *testing.T) {
	assert.Error(t, validateCredentials("", "longenough"))
	assert.Error(t, validateCredentials("alice", "short"))
	assert.NoError(t, validateCredentials("alice", "longenough"))

	assert.Equal(t, "alice", ask(bufio.NewReader(strings.NewReader("bob\n")), "alice", "Username: "))
	assert.Equal(t, "bob", ask(bufio.NewReader(strings.NewReader("  bob \n")), "", "Username: "))
}
