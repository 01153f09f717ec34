package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tscircular/internal/report"
)

func TestInitialModelStartsEmpty(t *testing.T) {
	m := initialModel()
	assert.Empty(t, m.list.Items())
	assert.NotPanics(t, func() { _ = m.View() })
}

func TestUpdateWithNoCyclesShowsSuccess(t *testing.T) {
	m := initialModel()

	next, _ := m.Update(UpdateMsg{Report: report.JSONOutput{TotalFiles: 3}})
	mm := next.(model)

	assert.Empty(t, mm.list.Items())
	assert.Contains(t, mm.View(), "no circular dependencies")
}

func TestUpdateWithCyclesPopulatesList(t *testing.T) {
	m := initialModel()

	out := report.JSONOutput{
		TotalFiles:  5,
		TotalCycles: 1,
		Cycles: []report.JSONCycle{
			{
				Hash: "abc123",
				Edges: []report.JSONEdge{
					{FromFile: "a.ts", ToFile: "b.ts", Line: 1, ImportText: "./b"},
					{FromFile: "b.ts", ToFile: "a.ts", Line: 1, ImportText: "./a"},
				},
				Allowed: false,
			},
		},
	}

	next, _ := m.Update(UpdateMsg{Report: out})
	mm := next.(model)

	require.Len(t, mm.list.Items(), 1)
	it, ok := mm.list.Items()[0].(item)
	require.True(t, ok)
	assert.Contains(t, it.title, "abc123")
	assert.Contains(t, it.desc, "a.ts")
	assert.Contains(t, it.desc, "b.ts")
	assert.NotContains(t, it.desc, "(allowed)")

	assert.Contains(t, mm.View(), "1 cycles")
}

func TestUpdateMarksAllowedCycles(t *testing.T) {
	m := initialModel()

	out := report.JSONOutput{
		Cycles: []report.JSONCycle{
			{
				Hash:    "def456",
				Edges:   []report.JSONEdge{{FromFile: "x.ts", ToFile: "y.ts", Line: 2, ImportText: "./y"}},
				Allowed: true,
			},
		},
	}

	next, _ := m.Update(UpdateMsg{Report: out})
	mm := next.(model)

	require.Len(t, mm.list.Items(), 1)
	it := mm.list.Items()[0].(item)
	assert.True(t, strings.HasSuffix(it.desc, "(allowed)"))
}

func TestUpdateWindowSizeResizesList(t *testing.T) {
	m := initialModel()

	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	mm := next.(model)

	assert.Greater(t, mm.list.Width(), 0)
}

func TestUpdateQuitKeyReturnsQuitCommand(t *testing.T) {
	m := initialModel()

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	msg := cmd()
	_, ok := msg.(tea.QuitMsg)
	assert.True(t, ok)
}

func TestUpdateCtrlCReturnsQuitCommand(t *testing.T) {
	m := initialModel()

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	msg := cmd()
	_, ok := msg.(tea.QuitMsg)
	assert.True(t, ok)
}

func TestInitCommandIsNil(t *testing.T) {
	m := initialModel()
	assert.Nil(t, m.Init())
}
