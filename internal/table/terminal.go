package table

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	zebraStyle  = cellStyle.Faint(true)
)

// Terminal renders the grid as a bordered table for terminal output.
// Short rows are padded with empty cells so columns stay aligned.
func (g Grid) Terminal() string {
	width := len(g.Header)
	for _, r := range g.Rows {
		width = max(width, len(r))
	}

	rows := make([][]string, len(g.Rows))
	for i, r := range g.Rows {
		rows[i] = pad(r, width)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row%2 == 1:
				return zebraStyle
			default:
				return cellStyle
			}
		}).
		Rows(rows...)

	if g.Header != nil {
		t = t.Headers(pad(g.Header, width)...)
	}

	return t.String()
}

func pad(r []string, width int) []string {
	if len(r) >= width {
		return r
	}
	out := make([]string, width)
	copy(out, r)
	return out
}
