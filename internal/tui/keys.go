package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all key bindings
type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	Bottom   key.Binding
	NextTab  key.Binding
	PrevTab  key.Binding
	Enter    key.Binding
	Add      key.Binding
	Done     key.Binding
	Delete   key.Binding
	Project  key.Binding
	Close    key.Binding
	Priority key.Binding
	Sort     key.Binding
	Refresh  key.Binding
	Help     key.Binding
	Quit     key.Binding
	Escape   key.Binding
}

var keys = keyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Left:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "projects")),
	Right:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "items")),
	Bottom:   key.NewBinding(key.WithKeys("G"), key.WithHelp("G", "bottom")),
	NextTab:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
	PrevTab:  key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous tab")),
	Enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open/toggle")),
	Add:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add item")),
	Done:     key.NewBinding(key.WithKeys("x", " "), key.WithHelp("x", "toggle done")),
	Delete:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	Project:  key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "new project")),
	Close:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "close/reopen")),
	Priority: key.NewBinding(key.WithKeys("1", "2", "3"), key.WithHelp("1-3", "priority")),
	Sort:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort order")),
	Refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Escape:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextTab, k.Done, k.Add, k.Project, k.Delete, k.Sort, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right, k.Bottom, k.NextTab, k.PrevTab},
		{k.Enter, k.Done, k.Add, k.Delete, k.Priority},
		{k.Project, k.Close, k.Sort, k.Refresh, k.Help, k.Quit},
	}
}
