package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// chartFPS is the chart animation rate.
const chartFPS = 30

type chartTickMsg time.Time

type thumbnailMsg struct {
	path  string
	frame int
	text  string
	err   error
}

type analyzedMsg struct {
	index   int
	outcome *Outcome
	err     error
}

// ProgressMsg reports analysis progress in video frames.
type ProgressMsg struct {
	Done, Total int
}

type statusClearMsg struct{ seq int }

func chartTickCmd() tea.Cmd {
	return tea.Tick(time.Second/chartFPS, func(t time.Time) tea.Msg {
		return chartTickMsg(t)
	})
}

func clearStatusCmd(seq int) tea.Cmd {
	return tea.Tick(4*time.Second, func(time.Time) tea.Msg {
		return statusClearMsg{seq: seq}
	})
}
