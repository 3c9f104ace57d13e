package ui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

func isQuit(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return true
	}
	return false
}

func helpText(canPreview bool, hasNext bool) string {
	s := "tab/shift+tab candidate"
	if canPreview {
		s += "  p preview"
	}
	if hasNext {
		s += "  n next file"
	}
	s += "  q quit"
	return s
}

func browserHelpKeys() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "analyze all")),
	}
}
