// Package tui implements the live watch-mode dashboard: a bubbletea program
// listing the most recent run's cycles, updated as new analysis runs
// complete.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tscircular/internal/report"
)

var (
	titleStyle = lipgloss.NewStyle().
			MarginLeft(2).
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true).
			Render

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	cycleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

type item struct {
	title, desc string
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.title + i.desc }

// UpdateMsg carries one completed analysis run's results into the running
// program.
type UpdateMsg struct {
	Report report.JSONOutput
}

type model struct {
	list       list.Model
	report     report.JSONOutput
	lastUpdate time.Time
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v-4)
	case UpdateMsg:
		m.report = msg.Report
		m.lastUpdate = time.Now()

		items := make([]list.Item, 0, len(m.report.Cycles))
		for _, c := range m.report.Cycles {
			nodes := make([]string, 0, len(c.Edges)+1)
			for _, e := range c.Edges {
				nodes = append(nodes, e.FromFile)
			}
			if len(c.Edges) > 0 {
				nodes = append(nodes, c.Edges[0].FromFile)
			}
			desc := strings.Join(nodes, " -> ")
			if c.Allowed {
				desc += " (allowed)"
			}
			items = append(items, item{title: "Circular dependency [" + c.Hash + "]", desc: desc})
		}
		m.list.SetItems(items)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m model) View() string {
	status := statusStyle.Render(fmt.Sprintf("Last update: %v | %d files",
		m.lastUpdate.Format("15:04:05"), m.report.TotalFiles))

	var summary string
	if len(m.report.Cycles) == 0 {
		summary = successStyle.Render("no circular dependencies")
	} else {
		summary = cycleStyle.Render(fmt.Sprintf("%d cycles", len(m.report.Cycles)))
	}

	header := fmt.Sprintf("%s\n%s | %s\n", titleStyle("Circular Dependency Monitor"), status, summary)
	return docStyle.Render(header + "\n" + m.list.View())
}

func initialModel() model {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Reported Cycles"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)

	return model{
		list:       l,
		lastUpdate: time.Now(),
	}
}

// Program wraps a bubbletea program so callers can push UpdateMsg values as
// each watch-mode run completes.
type Program struct {
	prog *tea.Program
}

// New creates a Program ready to Run in the foreground; feed it results via
// Send as they become available.
func New() *Program {
	return &Program{prog: tea.NewProgram(initialModel(), tea.WithAltScreen())}
}

// Send pushes a completed run's report into the running program.
func (p *Program) Send(out report.JSONOutput) {
	p.prog.Send(UpdateMsg{Report: out})
}

// Run blocks until the user quits the dashboard or Quit is called.
func (p *Program) Run() error {
	_, err := p.prog.Run()
	return err
}

// Quit stops the running program, e.g. on context cancellation.
func (p *Program) Quit() {
	p.prog.Quit()
}
