package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/existflow/binge/internal/db"
	"github.com/existflow/binge/internal/logger"
	"github.com/existflow/binge/internal/model"
	"github.com/existflow/binge/internal/unlock"
)

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case RefreshMsg:
		m.loadData()
		return m, nil

	case ReminderMsg:
		m.message = "🔔 " + msg.Title
		if msg.Subtitle != "" {
			m.message += " · " + msg.Subtitle
		}
		return m, nil

	case unlockMsg:
		return m.handleUnlock(msg.state)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case ModeAddItem, ModeAddProject:
			return m.updateInput(msg)
		case ModeUpsell:
			return m.updateUpsell(msg)
		case ModeConfirmDelete:
			return m.updateConfirmDelete(msg)
		case ModeHelp:
			m.mode = ModeNormal
			return m, nil
		}
		return m.handleNormalKeys(msg)
	}

	return m, nil
}

// handleNormalKeys handles key presses in normal mode
func (m Model) handleNormalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.message = ""

	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.NextTab):
		m.switchTab((m.tab + 1) % Tab(len(tabNames)))

	case key.Matches(msg, keys.PrevTab):
		m.switchTab((m.tab + Tab(len(tabNames)) - 1) % Tab(len(tabNames)))

	case key.Matches(msg, keys.Left):
		m.pane = PaneProjects

	case key.Matches(msg, keys.Right):
		if len(m.items) > 0 {
			m.pane = PaneItems
		}

	case key.Matches(msg, keys.Up):
		m.move(-1)

	case key.Matches(msg, keys.Down):
		m.move(1)

	case key.Matches(msg, keys.Bottom):
		m.move(1 << 20)

	case key.Matches(msg, keys.Enter):
		if (m.tab == TabOpen || m.tab == TabClosed) && m.pane == PaneProjects {
			if len(m.items) > 0 {
				m.pane = PaneItems
			}
			return m, nil
		}
		m.handleToggleDone()

	case key.Matches(msg, keys.Done):
		m.handleToggleDone()

	case key.Matches(msg, keys.Priority):
		m.handlePriority(int(msg.String()[0] - '0'))

	case key.Matches(msg, keys.Add):
		if m.currentProject() == nil {
			m.message = "Select a project on the Open or Closed tab first"
			return m, nil
		}
		return m.startInput(ModeAddItem, "Enter item...")

	case key.Matches(msg, keys.Project):
		return m.startInput(ModeAddProject, "Enter project title...")

	case key.Matches(msg, keys.Close):
		m.handleToggleClosed()

	case key.Matches(msg, keys.Delete):
		if m.pane == PaneItems {
			m.handleDeleteItem()
		} else if m.currentProject() != nil {
			m.mode = ModeConfirmDelete
		}

	case key.Matches(msg, keys.Sort):
		m.order = m.order.Next()
		m.loadData()
		m.message = fmt.Sprintf("Sorted by %s", m.order)

	case key.Matches(msg, keys.Refresh):
		m.loadData()

	case key.Matches(msg, keys.Help):
		m.mode = ModeHelp
	}

	return m, nil
}

func (m *Model) switchTab(t Tab) {
	m.tab = t
	m.pane = PaneProjects
	m.projCursor, m.itemCursor = 0, 0
	m.loadData()
}

func (m *Model) move(delta int) {
	switch {
	case m.tab == TabHome:
		m.homeCursor = clamp(m.homeCursor+delta, len(m.feed()))
	case m.tab == TabAwards:
		m.awardCursor = clamp(m.awardCursor+delta, len(m.awards))
	case m.pane == PaneItems:
		m.itemCursor = clamp(m.itemCursor+delta, len(m.items))
	default:
		prev := m.projCursor
		m.projCursor = clamp(m.projCursor+delta, len(m.projects))
		if m.projCursor != prev {
			m.itemCursor = 0
			m.loadData()
		}
	}
}

func (m *Model) handleToggleDone() {
	it := m.currentItem()
	if it == nil {
		return
	}

	before := m.earnedCount()
	updated, err := m.ctrl.ToggleCompleted(m.ctx, it.ID)
	if err != nil {
		m.fail("Failed to update item", err)
		return
	}
	m.loadData()

	if updated.Completed {
		m.message = fmt.Sprintf("Completed: %s", model.ItemTitle(updated))
	} else {
		m.message = fmt.Sprintf("Reopened: %s", model.ItemTitle(updated))
	}
	if after := m.earnedCount(); after > before {
		m.message += "  🏆 Award unlocked!"
	}
}

func (m *Model) earnedCount() int {
	n := 0
	for _, a := range m.awards {
		if a.earned {
			n++
		}
	}
	return n
}

func (m *Model) handlePriority(p int) {
	it := m.currentItem()
	if it == nil || !model.ValidPriority(p) {
		return
	}
	if err := m.ctrl.UpdateItem(m.ctx, it.ID, db.ItemUpdate{Priority: &p}); err != nil {
		m.fail("Failed to set priority", err)
		return
	}
	m.loadData()
	m.message = fmt.Sprintf("Priority set to %d", p)
}

func (m *Model) handleToggleClosed() {
	p := m.currentProject()
	if p == nil {
		return
	}
	updated, err := m.ctrl.ToggleClosed(m.ctx, p.ID)
	if err != nil {
		m.fail("Failed to update project", err)
		return
	}
	m.pane = PaneProjects
	m.loadData()
	if updated.Closed {
		m.message = fmt.Sprintf("Closed %s", model.ProjectTitle(updated))
	} else {
		m.message = fmt.Sprintf("Reopened %s", model.ProjectTitle(updated))
	}
}

func (m *Model) handleDeleteItem() {
	it := m.currentItem()
	if it == nil {
		return
	}
	title := model.ItemTitle(*it)
	if err := m.ctrl.DeleteItem(m.ctx, it.ID); err != nil {
		m.fail("Failed to delete item", err)
		return
	}
	m.loadData()
	if len(m.items) == 0 {
		m.pane = PaneProjects
	}
	m.message = fmt.Sprintf("Deleted: %s", title)
}

func (m Model) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mode = ModeNormal
	if msg.String() != "y" && msg.String() != "Y" {
		m.message = "Cancelled"
		return m, nil
	}

	p := m.currentProject()
	if p == nil {
		return m, nil
	}
	title := model.ProjectTitle(*p)
	if err := m.ctrl.DeleteProject(m.ctx, p.ID); err != nil {
		m.fail("Failed to delete project", err)
		return m, nil
	}
	m.loadData()
	m.message = fmt.Sprintf("Deleted project %s", title)
	return m, nil
}

func (m Model) startInput(mode Mode, placeholder string) (tea.Model, tea.Cmd) {
	m.mode = mode
	m.input.SetValue("")
	m.input.Placeholder = placeholder
	m.input.Focus()
	return m, textinput.Blink
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Escape):
		m.mode = ModeNormal
		m.input.Blur()
		return m, nil

	case key.Matches(msg, keys.Enter):
		value := m.input.Value()
		mode := m.mode
		m.mode = ModeNormal
		m.input.Blur()
		if value == "" {
			return m, nil
		}

		if mode == ModeAddProject {
			return m.addProject(value)
		}

		p := m.currentProject()
		if p == nil {
			return m, nil
		}
		if _, err := m.ctrl.AddItem(m.ctx, db.NewItem{
			ProjectID: p.ID,
			Title:     &value,
			Priority:  model.PriorityMedium,
		}); err != nil {
			m.fail("Failed to add item", err)
			return m, nil
		}
		m.loadData()
		m.message = fmt.Sprintf("Added: %s", value)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// addProject creates a project or, past the free limit, opens the unlock prompt
func (m Model) addProject(title string) (tea.Model, tea.Cmd) {
	p, ok, err := m.ctrl.AddProject(m.ctx, db.NewProject{Title: &title})
	if err != nil {
		m.fail("Failed to create project", err)
		return m, nil
	}
	if !ok {
		logger.Info("Project limit reached, showing upsell")
		m.mode = ModeUpsell
		m.pendingTitle = title
		m.unlock = &unlock.RequestState{State: unlock.Loading}
		return m, m.unlockCmd(false)
	}

	m.pendingTitle = ""
	m.tab = TabOpen
	m.loadData()
	for i := range m.projects {
		if m.projects[i].ID == p.ID {
			m.projCursor = i
		}
	}
	m.pane = PaneProjects
	m.loadData()
	m.message = fmt.Sprintf("Created project: %s", title)
	return m, nil
}

// unlockCmd runs a storefront request off the update loop
func (m Model) unlockCmd(buy bool) tea.Cmd {
	if m.purchaser == nil {
		return nil
	}
	ctx, purchaser := m.ctx, m.purchaser
	return func() tea.Msg {
		if buy {
			return unlockMsg{state: purchaser.Buy(ctx)}
		}
		return unlockMsg{state: purchaser.Start(ctx)}
	}
}

func (m Model) handleUnlock(s unlock.RequestState) (tea.Model, tea.Cmd) {
	m.unlock = &s
	if s.State != unlock.Purchased {
		return m, nil
	}

	m.mode = ModeNormal
	m.unlock = nil
	if m.pendingTitle == "" {
		return m, nil
	}
	return m.addProject(m.pendingTitle)
}

func (m Model) updateUpsell(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Escape), key.Matches(msg, keys.Quit):
		m.mode = ModeNormal
		m.unlock = nil
		m.pendingTitle = ""
		return m, nil

	case msg.String() == "b":
		if m.unlock != nil && m.unlock.State == unlock.Loaded {
			m.unlock = &unlock.RequestState{State: unlock.Loading, Product: m.unlock.Product}
			return m, m.unlockCmd(true)
		}
	}
	return m, nil
}
