package ui

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/olivier-w/syncframe/internal/chart"
	"github.com/olivier-w/syncframe/internal/preview"
	"github.com/olivier-w/syncframe/internal/queue"
)

const (
	chartHeight = 8
	thumbRows   = 12
)

// Model is the Bubbletea model for the syncframe result screen.
type Model struct {
	opts  Options
	queue *queue.Queue

	outcome  *Outcome
	cands    []candidateRef
	selected int

	chart     *chart.Chart
	animating bool

	thumb    string
	thumbErr string

	analyzing  bool
	progress   progress.Model
	progressCh chan ProgressMsg
	percent    float64
	cancel     context.CancelFunc

	// initCmd starts the first analysis when New was given no outcome.
	initCmd tea.Cmd

	status    string
	statusSeq int
	width     int
	height    int
	quitting  bool
}

// New creates the result screen for q. first is the outcome of q's current
// job, or nil to analyze it on start.
func New(q *queue.Queue, first *Outcome, opts Options) Model {
	m := Model{
		opts:  opts,
		queue: q,
		chart: chart.New(chartFPS),
		progress: progress.New(
			progress.WithScaledGradient("#FF8C00", "#FF5F1F"),
			progress.WithoutPercentage(),
		),
		width: 80,
	}
	m.chart.SetSize(m.width-4, chartHeight)
	if first != nil {
		m.queue.SetState(m.queue.CurrentIndex(), queue.Done, nil)
		m.setOutcome(first)
	} else {
		m, m.initCmd = m.startAnalysis()
	}
	return m
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tea.SetWindowTitle(m.windowTitle()), m.initCmd}
	if m.animating {
		cmds = append(cmds, chartTickCmd())
	}
	cmds = append(cmds, m.thumbnailCmd())
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if isQuit(msg) {
			m.quitting = true
			if m.cancel != nil {
				m.cancel()
			}
			if m.opts.Preview != nil {
				m.opts.Preview.Stop()
			}
			return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)
		}
		switch msg.String() {
		case "tab", "right", "l":
			return m.selectCandidate(m.selected + 1)
		case "shift+tab", "left", "h":
			return m.selectCandidate(m.selected - 1)
		case "p":
			return m.playPreview()
		case "n":
			if m.analyzing || !m.queue.Advance() {
				return m, nil
			}
			return m.startAnalysis()
		}
		return m, nil

	case chartTickMsg:
		if m.chart.Tick() {
			return m, chartTickCmd()
		}
		m.animating = false
		return m, nil

	case ProgressMsg:
		if msg.Total > 0 {
			m.percent = math.Min(1, float64(msg.Done)/float64(msg.Total))
		}
		return m, WaitForProgress(m.progressCh)

	case analyzedMsg:
		m.analyzing = false
		m.progressCh = nil
		m.cancel = nil
		if msg.err != nil {
			m.queue.SetState(msg.index, queue.Failed, msg.err)
			return m.setStatus(fmt.Sprintf("Analysis failed: %v", msg.err))
		}
		m.queue.SetState(msg.index, queue.Done, nil)
		if msg.outcome.Title != "" {
			m.queue.SetTitle(msg.index, msg.outcome.Title)
		}
		m.setOutcome(msg.outcome)
		return m, tea.Batch(chartTickCmd(), m.thumbnailCmd(), tea.SetWindowTitle(m.windowTitle()))

	case thumbnailMsg:
		ref, ok := m.selectedRef()
		if m.outcome == nil || msg.path != m.outcome.Path || !ok || msg.frame != ref.frame {
			return m, nil
		}
		m.thumb, m.thumbErr = msg.text, ""
		if msg.err != nil {
			m.thumb, m.thumbErr = "", msg.err.Error()
		}
		return m, nil

	case statusClearMsg:
		if msg.seq == m.statusSeq {
			m.status = ""
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.chart.SetSize(max(10, msg.Width-4), chartHeight)
		m.chart.Settle()
		m.progress.Width = min(60, max(20, msg.Width-8))
		return m, nil
	}

	return m, nil
}

func (m *Model) setOutcome(o *Outcome) {
	m.outcome = o
	m.cands = candidateList(o.Result)
	m.selected = 0
	m.thumb, m.thumbErr = "", ""
	m.chart.SetData(o.Result.Smoothed)
	m.chart.Mark(candidateFrames(m.cands), m.selectedFrame())
	m.animating = true
}

func (m Model) selectedRef() (candidateRef, bool) {
	if m.selected < 0 || m.selected >= len(m.cands) {
		return candidateRef{}, false
	}
	return m.cands[m.selected], true
}

func (m Model) selectedFrame() int {
	if ref, ok := m.selectedRef(); ok {
		return ref.frame
	}
	return -1
}

func (m Model) selectCandidate(i int) (tea.Model, tea.Cmd) {
	if len(m.cands) == 0 {
		return m, nil
	}
	m.selected = (i%len(m.cands) + len(m.cands)) % len(m.cands)
	m.chart.Mark(candidateFrames(m.cands), m.selectedFrame())
	m.thumb, m.thumbErr = "", ""
	return m, m.thumbnailCmd()
}

func (m Model) thumbnailCmd() tea.Cmd {
	ref, ok := m.selectedRef()
	if !ok || m.opts.Thumbnail == nil || !m.outcome.HasVideo() {
		return nil
	}
	thumbnail := m.opts.Thumbnail
	path, frameRate := m.outcome.Path, m.outcome.Result.FrameRate
	cols := max(16, min(64, m.width-4))
	return func() tea.Msg {
		text, err := thumbnail(context.Background(), path, ref.frame, frameRate, cols, thumbRows)
		return thumbnailMsg{path: path, frame: ref.frame, text: text, err: err}
	}
}

func (m Model) playPreview() (tea.Model, tea.Cmd) {
	ref, ok := m.selectedRef()
	if !ok || m.opts.Preview == nil || len(m.outcome.Captured) == 0 {
		return m, nil
	}
	res := m.outcome.Result
	span := max(1, int(math.Round(res.FrameRate)))
	clip, err := preview.Clip(m.outcome.Captured, res.Format, res.FrameRate, ref.frame, span)
	if err == nil {
		err = m.opts.Preview.Play(clip)
	}
	if err != nil {
		return m.setStatus(fmt.Sprintf("Preview failed: %v", err))
	}
	return m.setStatus(fmt.Sprintf("Playing ±1s around frame %d", ref.frame))
}

func (m Model) startAnalysis() (Model, tea.Cmd) {
	job := m.queue.Current()
	if job == nil || m.opts.Analyze == nil {
		return m, nil
	}
	idx := m.queue.CurrentIndex()
	m.queue.SetState(idx, queue.Analyzing, nil)

	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan ProgressMsg, 16)
	m.analyzing = true
	m.percent = 0
	m.progressCh = ch
	m.cancel = cancel

	analyze, path := m.opts.Analyze, job.Path
	return m, tea.Batch(WaitForProgress(ch), func() tea.Msg {
		defer close(ch)
		out, err := analyze(ctx, path, ProgressSink(ch))
		return analyzedMsg{index: idx, outcome: out, err: err}
	})
}

func (m Model) setStatus(s string) (tea.Model, tea.Cmd) {
	m.status = s
	m.statusSeq++
	return m, clearStatusCmd(m.statusSeq)
}

func (m Model) windowTitle() string {
	if m.outcome == nil {
		return "syncframe"
	}
	return m.outcome.Title + " — syncframe"
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n  " + headerStyle.Render("syncframe"))
	if n := m.queue.Len(); n > 1 {
		b.WriteString(timeStyle.Render(fmt.Sprintf("  file %d/%d", m.queue.CurrentIndex()+1, n)))
	}
	b.WriteString("\n\n")

	job := m.queue.Current()
	switch {
	case m.analyzing && job != nil:
		b.WriteString("  " + statusStyle.Render("Analyzing "+filepath.Base(job.Path)+"...") + "\n")
		b.WriteString("  " + m.progress.ViewAs(m.percent) + fmt.Sprintf("  %.0f%%\n", m.percent*100))
	case job != nil && job.State == queue.Failed:
		b.WriteString("  " + titleStyle.Render(filepath.Base(job.Path)) + "\n\n")
		b.WriteString("  " + errorStyle.Render(job.Err.Error()) + "\n")
	case m.outcome != nil:
		b.WriteString(m.renderOutcome())
	}

	if m.status != "" {
		b.WriteString("\n  " + helpStyle.Render(m.status) + "\n")
	}
	canPreview := m.opts.Preview != nil && m.outcome != nil && len(m.outcome.Captured) > 0
	b.WriteString("\n  " + helpStyle.Render(helpText(canPreview, m.queue.Next() != nil)) + "\n")
	return b.String()
}

func (m Model) renderOutcome() string {
	o := m.outcome
	res := o.Result
	var b strings.Builder

	b.WriteString("  " + titleStyle.Render(o.Title) + "\n")
	b.WriteString("  " + subtitleStyle.Render(fmt.Sprintf("%s · %.3f fps · %g Hz tone · %d frames",
		res.Format.String(), res.FrameRate, res.ToneHz, len(res.Raw))) + "\n\n")

	if view := m.chart.View(); view != "" {
		b.WriteString(indentBlock(chartStyle.Render(view), "  ") + "\n\n")
	}

	if len(m.cands) == 0 {
		b.WriteString("  " + statusStyle.Render("No sync tone found.") + "\n")
	}
	for i, ref := range m.cands {
		b.WriteString("  " + renderCandidate(ref, res.FrameRate, i == m.selected) + "\n")
	}

	switch {
	case m.thumb != "":
		b.WriteString("\n" + indentBlock(m.thumb, "  ") + "\n")
	case m.thumbErr != "":
		b.WriteString("\n  " + errorStyle.Render(m.thumbErr) + "\n")
	}
	return b.String()
}
