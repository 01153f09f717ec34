package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	styleOK      = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	styleBad     = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	styleIndex   = lipgloss.NewStyle().Foreground(lipgloss.Color("4")).Bold(true)
	styleDim     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleFile    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	styleLine    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	styleArrow   = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	styleAllowed = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
)

// PrintHuman renders the cycle list in the style of a colorized changelog:
// one numbered block per cycle, each edge shown as file:line followed by
// its import text, closed with a cycle marker on the last edge.
func PrintHuman(w io.Writer, out JSONOutput) {
	if len(out.Cycles) == 0 {
		fmt.Fprintln(w, styleOK.Render("no circular dependencies found."))
		return
	}

	fmt.Fprintf(w, "%s Found %s circular dependencies!\n\n",
		styleBad.Render("x"), styleBad.Render(fmt.Sprintf("%d", len(out.Cycles))))

	for i, cycle := range out.Cycles {
		fmt.Fprintln(w, styleIndex.Render(fmt.Sprintf("%d)", i+1))+
			" Circular dependency ["+styleDim.Render(cycle.Hash)+"]:"+allowedSuffix(cycle))

		for j, edge := range cycle.Edges {
			fmt.Fprintf(w, "   %s:%s\n", styleFile.Render(edge.FromFile), styleLine.Render(fmt.Sprintf("%d", edge.Line)))
			fmt.Fprintf(w, "   %s %s\n", styleDim.Render("|"), styleDim.Render(strings.TrimSpace(edge.ImportText)))
			if j < len(cycle.Edges)-1 {
				fmt.Fprintln(w, "   "+styleArrow.Render("v"))
			} else {
				fmt.Fprintln(w, "   "+styleArrow.Render("^--")+" (cycle)")
			}
		}
		fmt.Fprintln(w)
	}
}

func allowedSuffix(cycle JSONCycle) string {
	if cycle.Allowed {
		return " " + styleAllowed.Render("(allowed)")
	}
	return ""
}
