// Package tui is the interactive sampling dashboard: a progress view while
// shots run, then a histogram, the routed circuit and the final qubit
// mapping.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"qroute/internal/interp"
	"qroute/internal/sampler"
	"qroute/internal/trace"
)

// Done carries the outcome of a sampling run into the model. It is sent
// to the running program once the sampler returns.
type Done struct {
	Result *sampler.Result
	Err    error
}

type progressMsg sampler.Progress

// Input wires a model to a running sampler.
type Input struct {
	Title    string
	Progress <-chan sampler.Progress

	// Preview is the traced first shot; either field may be nil.
	Circuit *trace.Recorder
	Quantum *interp.QuantumRegisters
}

// Model represents the dashboard state.
type Model struct {
	in       Input
	spinner  spinner.Model
	bar      progress.Model
	view     viewport.Model
	width    int
	height   int
	tab      tab
	startCol int
	showHelp bool

	done, total int
	finished    bool
	result      *sampler.Result
	err         error
}

// New returns a model waiting for in's sampler.
func New(in Input) Model {
	return Model{
		in:      in,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(titleStyle)),
		bar:     progress.New(progress.WithDefaultGradient()),
		view:    viewport.New(80, 20),
	}
}

// Outcome returns what the sampler reported; ok is false until it finishes.
func (m Model) Outcome() (d Done, ok bool) {
	return Done{Result: m.result, Err: m.err}, m.finished
}

func waitForProgress(ch <-chan sampler.Progress) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		p, ok := <-ch
		if !ok {
			return nil
		}
		return progressMsg(p)
	}
}

// ──────────────────────────── Init / Update ────────────────────────────

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForProgress(m.in.Progress))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = max(min(msg.Width-20, 60), 10)
		m.view.Width = max(msg.Width-4, 20)
		m.view.Height = max(msg.Height-8, 4)
		m.refresh()

	case spinner.TickMsg:
		if !m.finished {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case progressMsg:
		m.done = max(m.done, msg.Done)
		m.total = msg.Total
		cmds = append(cmds, waitForProgress(m.in.Progress))

	case Done:
		m.finished = true
		m.result, m.err = msg.Result, msg.Err
		if m.result != nil {
			m.done, m.total = m.result.Shots, m.result.Shots
		}
		m.refresh()

	case tea.KeyMsg:
		key := msg.String()
		if key == "ctrl+c" {
			return m, tea.Quit
		}
		if m.showHelp {
			m.showHelp = false
			break
		}
		switch key {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "?":
			m.showHelp = true
		case "right", "tab":
			m.tab = m.tab.next()
			m.view.GotoTop()
			m.refresh()
		case "left", "shift+tab":
			m.tab = m.tab.prev()
			m.view.GotoTop()
			m.refresh()
		case "l":
			if m.tab == tabCircuit && m.startCol < columnCount(m.in.Circuit)-1 {
				m.startCol++
				m.refresh()
			}
		case "h":
			if m.tab == tabCircuit && m.startCol > 0 {
				m.startCol--
				m.refresh()
			}
		default:
			var cmd tea.Cmd
			m.view, cmd = m.view.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

// refresh re-renders the active page into the viewport.
func (m *Model) refresh() {
	var content string
	switch m.tab {
	case tabHistogram:
		content = renderHistogram(m.result, m.view.Width)
	case tabCircuit:
		content = renderCircuit(m.in.Circuit, m.startCol, m.view.Width)
	case tabMapping:
		content = renderMapping(m.in.Quantum, m.result)
	}
	m.view.SetContent(content)
}

// ──────────────────────────── View ────────────────────────────

// View renders the UI.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}
	var body string
	switch {
	case !m.finished:
		body = m.renderSampling()
	case m.err != nil:
		body = errorStyle.Render("Sampling failed: ") + m.err.Error()
	default:
		body = renderTabs(m.tab, m.width-6) + "\n" + m.view.View()
	}

	title := titleStyle.Render(m.in.Title)
	footer := dimStyle.Render(m.footer())
	frame := panelStyle.Width(m.width - 2).Render(lipgloss.JoinVertical(lipgloss.Left, title, "", body, "", footer))

	if m.showHelp {
		frame = overlayAt(frame, renderHelp(), 4, 2)
	}
	return frame
}

func (m Model) renderSampling() string {
	pct := 0.0
	if m.total > 0 {
		pct = float64(m.done) / float64(m.total)
	}
	return fmt.Sprintf("%s Sampling %d/%d shots\n\n%s", m.spinner.View(), m.done, m.total, m.bar.ViewAs(pct))
}

func (m Model) footer() string {
	if !m.finished {
		return "q Quit"
	}
	return fmt.Sprintf("←→ Page  %s  ? Help  q Quit", tabs[m.tab].hint)
}

// renderHelp renders the key reference overlay.
func renderHelp() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Keys"))
	sb.WriteString("\n\n")
	for _, row := range [][2]string{
		{"←/→ tab", "switch page"},
		{"↑/↓ pgup/pgdn", "scroll"},
		{"h/l", "circuit columns"},
		{"?", "this help"},
		{"q esc ^C", "quit"},
	} {
		sb.WriteString(activeTabStyle.Render(fmt.Sprintf("%-14s", row[0])))
		sb.WriteString(row[1])
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(dimStyle.Render("any key closes"))
	return helpBoxStyle.Render(sb.String())
}
