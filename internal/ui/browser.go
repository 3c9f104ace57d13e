package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/olivier-w/syncframe/internal/media"
)

// BrowserResult holds the outcome of the file browser.
type BrowserResult struct {
	Paths     []string
	Cancelled bool
}

// BrowserSelectedMsg is sent by an embedded browser when files are chosen.
type BrowserSelectedMsg struct {
	Paths []string
}

// BrowserCancelledMsg is sent by an embedded browser when the user quits.
type BrowserCancelledMsg struct{}

type fileItem struct {
	name string
	ext  string
}

func (i fileItem) Title() string { return i.name }

func (i fileItem) Description() string {
	switch {
	case media.IsVideoExt(i.ext):
		return i.ext + "  video"
	case media.KindOf(i.ext) == media.KindRaw:
		return i.ext + "  raw pcm"
	}
	return i.ext + "  audio"
}

func (i fileItem) FilterValue() string { return i.name }

func (i fileItem) path() string { return i.name + i.ext }

// BrowserModel is the Bubbletea model for the file browser screen.
type BrowserModel struct {
	list     list.Model
	embedded bool
	result   *BrowserResult
	err      error
}

// NewBrowser creates a standalone file browser scanning the current
// directory. It quits the program when done; read the choice with Result.
func NewBrowser() BrowserModel {
	return newBrowser(false)
}

// NewEmbeddedBrowser creates a browser that reports its outcome as
// [BrowserSelectedMsg] or [BrowserCancelledMsg] instead of quitting.
func NewEmbeddedBrowser() BrowserModel {
	return newBrowser(true)
}

func newBrowser(embedded bool) BrowserModel {
	entries, err := os.ReadDir(".")
	if err != nil {
		return BrowserModel{err: fmt.Errorf("cannot read directory: %w", err), embedded: embedded}
	}

	var items []list.Item
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if !media.IsSupportedExt(ext) {
			continue
		}
		items = append(items, fileItem{name: strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())), ext: filepath.Ext(e.Name())})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return strings.ToLower(items[i].(fileItem).name) < strings.ToLower(items[j].(fileItem).name)
	})

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(lipgloss.AdaptiveColor{Light: "#333333", Dark: "#FFFFFF"}).
		BorderLeftForeground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#AAAAAA"})
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#888888"}).
		BorderLeftForeground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#AAAAAA"})

	l := list.New(items, delegate, 80, 20)
	l.Title = "syncframe"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = headerStyle
	l.AdditionalShortHelpKeys = browserHelpKeys
	l.AdditionalFullHelpKeys = browserHelpKeys

	return BrowserModel{list: l, embedded: embedded}
}

// HasError returns true if the browser could not be initialized.
func (m BrowserModel) HasError() bool {
	return m.err != nil
}

// Error returns the initialization error, if any.
func (m BrowserModel) Error() error {
	return m.err
}

// Result returns the browser result after the program finishes.
func (m BrowserModel) Result() BrowserResult {
	if m.result != nil {
		return *m.result
	}
	return BrowserResult{Cancelled: true}
}

func (m BrowserModel) Init() tea.Cmd {
	return tea.SetWindowTitle("syncframe")
}

func (m BrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Don't intercept keys when filtering
		if m.list.FilterState() == list.Filtering {
			break
		}

		switch msg.String() {
		case "enter":
			if item, ok := m.list.SelectedItem().(fileItem); ok {
				return m.finish([]string{item.path()})
			}
		case "a":
			var paths []string
			for _, it := range m.list.VisibleItems() {
				if item, ok := it.(fileItem); ok {
					paths = append(paths, item.path())
				}
			}
			if len(paths) > 0 {
				return m.finish(paths)
			}
			return m, nil
		case "q", "esc", "ctrl+c":
			return m.cancel()
		}

	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)
		m.list.SetHeight(msg.Height)
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m BrowserModel) finish(paths []string) (tea.Model, tea.Cmd) {
	if m.embedded {
		return m, func() tea.Msg { return BrowserSelectedMsg{Paths: paths} }
	}
	m.result = &BrowserResult{Paths: paths}
	return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)
}

func (m BrowserModel) cancel() (tea.Model, tea.Cmd) {
	if m.embedded {
		return m, func() tea.Msg { return BrowserCancelledMsg{} }
	}
	m.result = &BrowserResult{Cancelled: true}
	return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)
}

func (m BrowserModel) View() string {
	return m.list.View()
}
