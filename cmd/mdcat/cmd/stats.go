package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/elseano/mdcat/pkg/renderer"
	"github.com/elseano/mdcat/pkg/util"
)

var (
	statsTitle = lipgloss.NewStyle().Bold(true)
	statsRule  = lipgloss.NewStyle().Faint(true)
	statsLabel = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"})
)

// printStats writes the statistics report. Without styling it is exactly the plain
// report format; styled, the values line up in one column.
func printStats(w io.Writer, stats renderer.Stats, styled bool) {
	if !styled {
		fmt.Fprint(w, stats.String())
		return
	}

	fmt.Fprintln(w, statsTitle.Render("Document Statistics:"))
	fmt.Fprintln(w, statsRule.Render(strings.Repeat("─", 19)))

	rows := stats.Rows()
	labels := make([]string, len(rows))
	widest := 0
	for i, row := range rows {
		labels[i] = statsLabel.Render(row[0] + ":")
		widest = max(widest, util.DisplayWidth(labels[i]))
	}
	for i, row := range rows {
		pad := strings.Repeat(" ", widest-util.DisplayWidth(labels[i]))
		fmt.Fprintf(w, "%s%s %s\n", labels[i], pad, row[1])
	}
}
