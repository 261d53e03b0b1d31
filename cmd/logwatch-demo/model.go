package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/clarabennett2626/logwatch"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#333333")).
			Padding(0, 1)

	statusKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")).
			Background(lipgloss.Color("#333333")).
			Bold(true).
			Padding(0, 1)

	matchStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	lineStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
)

// recordMsg carries a freshly parsed Record into the TUI.
type recordMsg struct {
	rec     *logwatch.Record
	matched bool
}

// errMsg carries an upstream parse/I/O error into the TUI.
type errMsg struct{ err error }

// waitDoneMsg carries the outcome of the -wait-for goroutine, if one was
// started, and causes the program to quit once delivered.
type waitDoneMsg struct {
	rec *logwatch.Record
	err error
}

type model struct {
	vp         viewport.Model
	ready      bool
	lines      []string
	sourceName string
	matches    int
	errs       int
	waiting    bool
	waitResult *waitDoneMsg
	quitting   bool
}

func newModel(sourceName string, waiting bool) model {
	return model{sourceName: sourceName, waiting: waiting}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.vp, cmd = m.vp.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		headerHeight := lipgloss.Height(m.headerView())
		footerHeight := lipgloss.Height(m.footerView())
		vpHeight := msg.Height - headerHeight - footerHeight
		if vpHeight < 1 {
			vpHeight = 1
		}
		if !m.ready {
			m.vp = viewport.New(msg.Width, vpHeight)
			m.ready = true
		} else {
			m.vp.Width = msg.Width
			m.vp.Height = vpHeight
		}
		m.vp.SetContent(strings.Join(m.lines, "\n"))
		m.vp.GotoBottom()
		return m, nil

	case recordMsg:
		m.lines = append(m.lines, renderRecord(msg.rec, msg.matched))
		if msg.matched {
			m.matches++
		}
		if m.ready {
			m.vp.SetContent(strings.Join(m.lines, "\n"))
			m.vp.GotoBottom()
		}
		return m, nil

	case errMsg:
		m.errs++
		m.lines = append(m.lines, errStyle.Render("ERROR: "+msg.err.Error()))
		if m.ready {
			m.vp.SetContent(strings.Join(m.lines, "\n"))
			m.vp.GotoBottom()
		}
		return m, nil

	case waitDoneMsg:
		m.waitResult = &msg
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m model) View() string {
	if !m.ready {
		return "starting up..."
	}
	return m.headerView() + "\n" + m.vp.View() + "\n" + m.footerView()
}

func (m model) headerView() string {
	return titleStyle.Render("logwatch-demo") + " " + lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render(m.sourceName)
}

func (m model) footerView() string {
	left := statusKeyStyle.Render("Lines:") + statusBarStyle.Render(fmt.Sprintf(" %d ", len(m.lines)))
	mid := statusKeyStyle.Render("Matches:") + statusBarStyle.Render(fmt.Sprintf(" %d ", m.matches))
	right := statusKeyStyle.Render("Errors:") + statusBarStyle.Render(fmt.Sprintf(" %d ", m.errs))

	gap := m.vp.Width - lipgloss.Width(left) - lipgloss.Width(mid) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	statusLine := left + mid + strings.Repeat(" ", gap) + right
	return statusBarStyle.Render(statusLine)
}

func renderRecord(rec *logwatch.Record, matched bool) string {
	var parts []string
	for _, name := range rec.Names() {
		v, _ := rec.Get(name)
		parts = append(parts, fmt.Sprintf("%s=%v", name, v))
	}
	rendered := strings.Join(parts, " ")
	if matched {
		return matchStyle.Render("✓ " + rendered)
	}
	return lineStyle.Render("  " + rendered)
}
