package main

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/olivier-w/syncframe/internal/queue"
	"github.com/olivier-w/syncframe/internal/ui"
)

type startupPhase uint8

const (
	phaseBrowse startupPhase = iota
	phaseAnalyzing
)

type startupResolvedMsg struct {
	queue   *queue.Queue
	outcome *ui.Outcome
	err     error
}

// startupModel lets the user pick files, then analyzes the first one before
// handing over to the result screen.
type startupModel struct {
	opts    ui.Options
	browser ui.BrowserModel
	phase   startupPhase
	errMsg  string
	width   int
	height  int

	spinner     spinner.Model
	progress    progress.Model
	current     string
	percent     float64
	hasProgress bool
	progressCh  chan ui.ProgressMsg
	cancel      context.CancelFunc

	// initCmd starts the analysis when paths were given on the command line.
	initCmd tea.Cmd
}

func newStartupModel(opts ui.Options, paths []string) startupModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#AAAAAA"})

	p := progress.New(
		progress.WithScaledGradient("#FF8C00", "#FF5F1F"),
		progress.WithoutPercentage(),
	)

	m := startupModel{
		opts:     opts,
		browser:  ui.NewEmbeddedBrowser(),
		phase:    phaseBrowse,
		spinner:  s,
		progress: p,
	}
	if len(paths) > 0 {
		m, m.initCmd = m.startAnalysis(paths)
	}
	return m
}

func (m startupModel) Init() tea.Cmd {
	return tea.Batch(m.browser.Init(), m.spinner.Tick, m.initCmd)
}

func (m startupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = min(60, max(20, msg.Width-8))
		if m.phase == phaseBrowse {
			return m.updateBrowser(msg)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.phase == phaseAnalyzing {
			return m, cmd
		}
		return m, nil

	case ui.BrowserCancelledMsg:
		return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)

	case ui.BrowserSelectedMsg:
		var cmd tea.Cmd
		m, cmd = m.startAnalysis(msg.Paths)
		return m, tea.Batch(m.spinner.Tick, cmd)

	case ui.ProgressMsg:
		m.hasProgress = true
		if msg.Total > 0 {
			m.percent = math.Min(1, float64(msg.Done)/float64(msg.Total))
		}
		return m, ui.WaitForProgress(m.progressCh)

	case startupResolvedMsg:
		m.progressCh = nil
		m.cancel = nil
		if msg.err != nil {
			m.phase = phaseBrowse
			m.errMsg = msg.err.Error()
			m.hasProgress = false
			return m, nil
		}

		if msg.outcome.Title != "" {
			msg.queue.SetTitle(msg.queue.CurrentIndex(), msg.outcome.Title)
		}
		model := ui.New(msg.queue, msg.outcome, m.opts)
		cmds := []tea.Cmd{model.Init()}
		if m.width > 0 || m.height > 0 {
			w, h := m.width, m.height
			cmds = append(cmds, func() tea.Msg {
				return tea.WindowSizeMsg{Width: w, Height: h}
			})
		}
		return model, tea.Batch(cmds...)

	case tea.KeyMsg:
		if m.phase == phaseAnalyzing && startupIsQuit(msg) {
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)
		}
	}

	if m.phase == phaseBrowse {
		return m.updateBrowser(msg)
	}
	return m, nil
}

func (m startupModel) updateBrowser(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := m.browser.Update(msg)
	if browser, ok := model.(ui.BrowserModel); ok {
		m.browser = browser
	}
	return m, cmd
}

func (m startupModel) startAnalysis(paths []string) (startupModel, tea.Cmd) {
	q := queue.New(paths)
	path := q.Current().Path
	q.SetState(q.CurrentIndex(), queue.Analyzing, nil)

	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan ui.ProgressMsg, 16)
	m.phase = phaseAnalyzing
	m.errMsg = ""
	m.current = path
	m.percent = 0
	m.hasProgress = false
	m.progressCh = ch
	m.cancel = cancel

	analyze := m.opts.Analyze
	return m, tea.Batch(ui.WaitForProgress(ch), func() tea.Msg {
		defer close(ch)
		defer cancel()
		out, err := analyze(ctx, path, ui.ProgressSink(ch))
		return startupResolvedMsg{queue: q, outcome: out, err: err}
	})
}

func (m startupModel) View() string {
	if m.phase == phaseBrowse {
		if m.browser.HasError() {
			return "\n  syncframe\n\n  " + m.browser.Error().Error() + "\n"
		}
		if m.errMsg == "" {
			return m.browser.View()
		}
		return "\n  syncframe\n\n  " + startupErrorStyle.Render(m.errMsg) + "\n\n" + indentBlock(m.browser.View(), "  ")
	}
	return m.renderAnalyzingView()
}

func (m startupModel) renderAnalyzingView() string {
	var b strings.Builder
	b.WriteString("\n  ")
	b.WriteString(startupHeaderStyle.Render("syncframe"))
	b.WriteString("\n\n  ")
	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(startupStatusStyle.Render("Analyzing " + filepath.Base(m.current) + "..."))
	b.WriteString("\n")

	if m.hasProgress {
		b.WriteString("  ")
		b.WriteString(m.progress.ViewAs(m.percent))
		b.WriteString(fmt.Sprintf("  %.0f%%\n", m.percent*100))
	}

	b.WriteString("\n  ")
	b.WriteString(startupHelpStyle.Render("q quit"))
	b.WriteString("\n")
	return b.String()
}

func indentBlock(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i := range lines {
		if lines[i] != "" {
			lines[i] = prefix + lines[i]
		}
	}
	return strings.Join(lines, "\n")
}

func startupIsQuit(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return true
	}
	return false
}

var (
	startupHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#888888"})
	startupStatusStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BBBBBB"})
	startupHelpStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "#999999", Dark: "#666666"})
	startupErrorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "#A00000", Dark: "#FF8080"})
)
