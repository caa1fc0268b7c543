package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/text/language"

	"github.com/existflow/binge/internal/awards"
	"github.com/existflow/binge/internal/data"
	"github.com/existflow/binge/internal/db"
	"github.com/existflow/binge/internal/logger"
	"github.com/existflow/binge/internal/model"
	"github.com/existflow/binge/internal/unlock"
)

// Tab is one of the top-level screens
type Tab int

const (
	TabHome Tab = iota
	TabOpen
	TabClosed
	TabAwards
)

var tabNames = []string{"Home", "Open", "Closed", "Awards"}

// Pane represents which pane is focused on the project tabs
type Pane int

const (
	PaneProjects Pane = iota
	PaneItems
)

// Mode represents the current UI mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeAddItem
	ModeAddProject
	ModeUpsell
	ModeConfirmDelete
	ModeHelp
)

// RefreshMsg asks the model to reload everything from the store
type RefreshMsg struct{}

// ReminderMsg shows a reminder that came due while the UI runs
type ReminderMsg struct {
	Title    string
	Subtitle string
}

// unlockMsg carries the result of a storefront request
type unlockMsg struct {
	state unlock.RequestState
}

// Purchaser runs the unlock flow; *unlock.Manager satisfies it
type Purchaser interface {
	Start(ctx context.Context) unlock.RequestState
	Buy(ctx context.Context) unlock.RequestState
}

type awardRow struct {
	award  awards.Award
	earned bool
}

// Model is the main TUI model
type Model struct {
	ctx       context.Context
	ctrl      *data.Controller
	order     model.SortOrder
	purchaser Purchaser
	lang      language.Tag

	home     data.Home
	projects []model.Project // Projects of the Open or Closed tab
	items    []model.Item    // Items of the selected project in the current sort order
	awards   []awardRow

	// UI state
	width       int
	height      int
	tab         Tab
	pane        Pane
	mode        Mode
	projCursor  int
	itemCursor  int
	homeCursor  int
	awardCursor int

	input textinput.Model
	bar   progress.Model
	help  help.Model

	unlock       *unlock.RequestState
	pendingTitle string // Project title waiting for the unlock
	message      string
}

// NewModel creates a new TUI model
func NewModel(ctx context.Context, ctrl *data.Controller, order model.SortOrder) Model {
	logger.Info("Initializing TUI model")

	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 50

	m := Model{
		ctx:   ctx,
		ctrl:  ctrl,
		order: order,
		lang:  language.English,
		input: ti,
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(20), progress.WithoutPercentage()),
		help:  help.New(),
	}
	m.loadData()
	logger.Debug("TUI model initialized",
		logger.F("projects", len(m.home.Projects)),
		logger.F("upNext", len(m.home.UpNext)))
	return m
}

// SetPurchaser enables buying the full version from the upsell prompt.
// Prices are shown for lang.
func (m *Model) SetPurchaser(p Purchaser, lang language.Tag) {
	m.purchaser = p
	m.lang = lang
}

// Notify returns a store observer that refreshes the running program.
// Observers may run inside Update, so they never block; a burst of changes
// collapses into at most one pending refresh.
func Notify(p *tea.Program) func(db.Change) {
	return coalesce(p.Send)
}

func coalesce(send func(tea.Msg)) func(db.Change) {
	pending := make(chan struct{}, 1)
	go func() {
		for range pending {
			send(RefreshMsg{})
		}
	}()
	return func(db.Change) {
		select {
		case pending <- struct{}{}:
		default:
		}
	}
}

func (m *Model) loadData() {
	home, err := m.ctrl.HomeFeed(m.ctx)
	if err != nil {
		m.fail("Failed to load home", err)
	}
	m.home = home
	m.homeCursor = clamp(m.homeCursor, len(m.feed()))

	switch m.tab {
	case TabOpen:
		m.projects, err = m.ctrl.OpenProjects(m.ctx)
	case TabClosed:
		m.projects, err = m.ctrl.ClosedProjects(m.ctx)
	default:
		m.projects = nil
	}
	if err != nil {
		m.fail("Failed to load projects", err)
	}
	m.projCursor = clamp(m.projCursor, len(m.projects))

	m.items = nil
	if p := m.currentProject(); p != nil {
		m.items = model.ProjectItems(*p, m.order)
	}
	m.itemCursor = clamp(m.itemCursor, len(m.items))

	all := awards.All()
	m.awards = make([]awardRow, len(all))
	for i, a := range all {
		m.awards[i] = awardRow{award: a, earned: m.ctrl.HasEarned(m.ctx, a)}
	}
	m.awardCursor = clamp(m.awardCursor, len(m.awards))
}

func (m *Model) fail(msg string, err error) {
	logger.Error(msg, logger.F("error", err))
	m.message = msg + ": " + err.Error()
}

// feed is the home item list: up next followed by more to explore
func (m *Model) feed() []model.Item {
	out := make([]model.Item, 0, len(m.home.UpNext)+len(m.home.MoreToExplore))
	out = append(out, m.home.UpNext...)
	return append(out, m.home.MoreToExplore...)
}

func (m *Model) currentProject() *model.Project {
	if m.projCursor < len(m.projects) {
		return &m.projects[m.projCursor]
	}
	return nil
}

// currentItem is the item under the cursor on the home feed or the item pane
func (m *Model) currentItem() *model.Item {
	switch {
	case m.tab == TabHome:
		feed := m.feed()
		if m.homeCursor < len(feed) {
			return &feed[m.homeCursor]
		}
	case m.pane == PaneItems && m.itemCursor < len(m.items):
		return &m.items[m.itemCursor]
	}
	return nil
}
