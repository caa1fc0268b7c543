package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/existflow/binge/internal/model"
	"github.com/existflow/binge/internal/unlock"
)

const sidebarWidth = 28

// View renders the UI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	bodyHeight := m.height - 4
	var body string
	switch m.tab {
	case TabHome:
		body = m.renderHome()
	case TabAwards:
		body = m.renderAwards()
	default:
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.renderProjects(bodyHeight), m.renderItems(bodyHeight))
	}

	var modal string
	switch m.mode {
	case ModeAddItem, ModeAddProject:
		modal = m.renderInputModal()
	case ModeUpsell:
		modal = m.renderUpsell()
	case ModeConfirmDelete:
		modal = m.renderConfirmDelete()
	case ModeHelp:
		modal = ModalStyle.Render(m.help.FullHelpView(keys.FullHelp()) + "\n\n" + HelpStyle.Render("Press any key to close"))
	}
	if modal != "" {
		body = lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, modal,
			lipgloss.WithWhitespaceChars(" "))
	} else {
		body = lipgloss.NewStyle().Height(bodyHeight).Render(body)
	}

	return lipgloss.JoinVertical(lipgloss.Left, m.renderTabs(), body, m.renderStatusBar())
}

func (m Model) renderTabs() string {
	tabs := make([]string, len(tabNames))
	for i, name := range tabNames {
		if Tab(i) == m.tab {
			tabs[i] = ActiveTabStyle.Render(name)
		} else {
			tabs[i] = TabStyle.Render(name)
		}
	}
	left := lipgloss.NewStyle().Bold(true).Foreground(Primary).Render("binge ") + strings.Join(tabs, "")
	right := HelpStyle.Render("sort: " + m.order.String())

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 1
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right + "\n"
}

func (m Model) renderHome() string {
	var s strings.Builder

	s.WriteString(SectionStyle.Render("Projects") + "\n\n")
	if len(m.home.Projects) == 0 {
		s.WriteString(HelpStyle.Render("  No open projects. Press 'p' to create one.") + "\n")
	}
	for _, sum := range m.home.Projects {
		title := lipgloss.NewStyle().Foreground(colorFor(model.ProjectColor(sum.Project))).
			Render(fmt.Sprintf("%-22s", truncate(model.ProjectTitle(sum.Project), 22)))
		fmt.Fprintf(&s, "  %s %s %s\n", title, m.bar.ViewAs(sum.Completion),
			HelpStyle.Render(fmt.Sprintf("%d items", len(sum.Project.Items))))
	}

	row := 0
	section := func(name string, items []model.Item) {
		if len(items) == 0 {
			return
		}
		s.WriteString("\n" + SectionStyle.Render(name) + "\n\n")
		for _, it := range items {
			s.WriteString(m.renderItem(it, m.tab == TabHome && row == m.homeCursor, m.width-8) + "\n")
			row++
		}
	}
	section("Up next", m.home.UpNext)
	section("More to explore", m.home.MoreToExplore)

	return ListStyle.Render(s.String())
}

func (m Model) renderProjects(height int) string {
	var s strings.Builder

	if len(m.projects) == 0 {
		if m.tab == TabOpen {
			s.WriteString(HelpStyle.Render("No open projects.\n'p' to create one."))
		} else {
			s.WriteString(HelpStyle.Render("No closed projects."))
		}
	}

	for i, p := range m.projects {
		style := RowStyle
		cursor := "  "
		if i == m.projCursor {
			cursor = "❯ "
			if m.pane == PaneProjects {
				style = RowSelectedStyle
			}
		}

		done := 0
		for _, it := range p.Items {
			if it.Completed {
				done++
			}
		}
		dot := lipgloss.NewStyle().Foreground(colorFor(model.ProjectColor(p))).Render("●")
		line := fmt.Sprintf("%s%s %-14s %d/%d", cursor, dot, truncate(model.ProjectTitle(p), 14), done, len(p.Items))
		s.WriteString(style.Render(line) + "\n")
	}

	return SidebarStyle.Width(sidebarWidth).Height(height).Render(s.String())
}

func (m Model) renderItems(height int) string {
	width := m.width - sidebarWidth - 4
	p := m.currentProject()
	if p == nil {
		return ListStyle.Width(width).Height(height).Render(HelpStyle.Render("No project selected"))
	}

	var s strings.Builder
	header := lipgloss.NewStyle().Bold(true).Foreground(colorFor(model.ProjectColor(*p))).Render(model.ProjectTitle(*p))
	s.WriteString(header + "  " + m.bar.ViewAs(model.CompletionAmount(*p)) + "\n")
	if d := model.ProjectDetail(*p); d != "" {
		s.WriteString(HelpStyle.Render(truncate(d, width-4)) + "\n")
	}
	if p.ReminderTime != nil {
		s.WriteString(HelpStyle.Render("⏰ daily at "+p.ReminderTime.String()) + "\n")
	}
	s.WriteString(lipgloss.NewStyle().Foreground(Border).Render(strings.Repeat("─", max(width-4, 1))) + "\n\n")

	if len(m.items) == 0 {
		s.WriteString(HelpStyle.Render("  No items. Press 'a' to add one."))
	}
	for i, it := range m.items {
		s.WriteString(m.renderItem(it, m.pane == PaneItems && i == m.itemCursor, width-4) + "\n")
	}

	return ListStyle.Width(width).Height(height).Render(s.String())
}

func (m Model) renderItem(it model.Item, selected bool, width int) string {
	cursor := "  "
	style := RowStyle
	if selected {
		cursor = "❯ "
		style = RowSelectedStyle
	}

	icon := "[ ]"
	if it.Completed {
		icon = "[x]"
		if !selected {
			style = RowDoneStyle
		}
	}

	titleWidth := max(width-14, 8)
	title := fmt.Sprintf(" %-*s ", titleWidth, truncate(model.ItemTitle(it), titleWidth))
	return style.Render(cursor+icon) + style.Render(title) + FormatPriority(it)
}

func (m Model) renderAwards() string {
	var s strings.Builder

	earned := 0
	for i, row := range m.awards {
		cursor := "  "
		if i == m.awardCursor {
			cursor = "❯ "
		}

		mark, name := "🔒", HelpStyle.Render(fmt.Sprintf("%-18s", row.award.Name))
		if row.earned {
			earned++
			mark = "🏆"
			name = lipgloss.NewStyle().Bold(true).Foreground(colorFor(row.award.Color)).
				Render(fmt.Sprintf("%-18s", row.award.Name))
		}
		fmt.Fprintf(&s, "%s%s %s %s\n", cursor, mark, name, HelpStyle.Render(row.award.Description))
	}

	header := SectionStyle.Render(fmt.Sprintf("Awards  %d/%d earned", earned, len(m.awards)))
	return ListStyle.Render(header + "\n\n" + s.String())
}

func (m Model) renderInputModal() string {
	title := "New Project"
	if m.mode == ModeAddItem {
		title = "Add Item"
		if p := m.currentProject(); p != nil {
			title = "Add Item to: " + model.ProjectTitle(*p)
		}
	}

	content := lipgloss.NewStyle().Bold(true).Render(title) + "\n\n"
	content += m.input.View() + "\n\n"
	content += HelpStyle.Render("Enter:save  Esc:cancel")
	return ModalStyle.Render(content)
}

func (m Model) renderUpsell() string {
	content := lipgloss.NewStyle().Bold(true).Foreground(Warning).Render("Project limit reached") + "\n\n"
	content += fmt.Sprintf("The free version keeps up to %d open projects.\n", model.FreeProjectLimit)
	content += "Close a project or unlock unlimited projects.\n\n"

	footer := "Esc:close"
	switch {
	case m.purchaser == nil || m.unlock == nil:
		content += HelpStyle.Render("Run 'binge unlock buy' to purchase.") + "\n"
	case m.unlock.State == unlock.Loading:
		content += HelpStyle.Render("Contacting store...") + "\n"
	case m.unlock.State == unlock.Loaded:
		p := m.unlock.Product
		content += fmt.Sprintf("%s  %s\n", lipgloss.NewStyle().Bold(true).Render(p.Title), p.LocalizedPrice(m.lang))
		if p.Description != "" {
			content += HelpStyle.Render(p.Description) + "\n"
		}
		footer = "b:buy  Esc:close"
	case m.unlock.State == unlock.Deferred:
		content += HelpStyle.Render("Purchase is waiting for approval.") + "\n"
	case m.unlock.State == unlock.Failed:
		content += lipgloss.NewStyle().Foreground(PriorityHigh).Render(fmt.Sprintf("Store unavailable: %v", m.unlock.Err)) + "\n"
	}

	return ModalStyle.Width(56).Render(content + "\n" + HelpStyle.Render(footer))
}

func (m Model) renderConfirmDelete() string {
	p := m.currentProject()
	if p == nil {
		return ""
	}
	content := lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("Delete %q?", model.ProjectTitle(*p))) + "\n\n"
	content += fmt.Sprintf("Its %d items are deleted too.\n\n", len(p.Items))
	content += HelpStyle.Render("y:delete  any other key:cancel")
	return ModalStyle.Render(content)
}

func (m Model) renderStatusBar() string {
	if m.message != "" {
		return StatusBarStyle.Width(m.width).Render(m.message)
	}
	return StatusBarStyle.Width(m.width).Render(m.help.ShortHelpView(keys.ShortHelp()))
}
