package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Collapse key.Binding
	Expand   key.Binding
	Child    key.Binding
	Sibling  key.Binding
	Root     key.Binding
	Rename   key.Binding
	Delete   key.Binding
	Save     key.Binding
	Copy     key.Binding
	Preview  key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
		Down:     key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
		Collapse: key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "collapse/parent")),
		Expand:   key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "expand/child")),
		Child:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "add child")),
		Sibling:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "add sibling")),
		Root:     key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "add root")),
		Rename:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "rename")),
		Delete:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Save:     key.NewBinding(key.WithKeys("s", "ctrl+s"), key.WithHelp("s", "save")),
		Copy:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy address")),
		Preview:  key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "preview")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Child, k.Sibling, k.Rename, k.Delete, k.Save, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Collapse, k.Expand},
		{k.Child, k.Sibling, k.Root, k.Rename, k.Delete},
		{k.Save, k.Copy, k.Preview, k.Help, k.Quit},
	}
}
