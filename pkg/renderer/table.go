package renderer

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/elseano/mdcat/pkg/markdown"
	"github.com/elseano/mdcat/pkg/output"
	"github.com/elseano/mdcat/pkg/styles"
)

const (
	cellSeparator = " │ "
	ruleJoint     = "─┼─"
)

// Tables are buffered until the whole table is known, then written with every column as
// wide as its widest cell. Cells are never wrapped or truncated.
type table struct {
	alignments []markdown.Alignment
	rows       []*row
}

type row struct {
	header bool
	cells  []*cell
}

type cell struct {
	runs  []output.Run
	width int
	align markdown.Alignment
}

func (c *cell) add(run output.Run) {
	c.runs = append(c.runs, run)
	if run.Kind == output.TextRun {
		c.width += runewidth.StringWidth(run.Text)
	}
}

func (t *table) addRow(header bool) {
	t.rows = append(t.rows, &row{header: header})
}

func (t *table) addCell(align markdown.Alignment) *cell {
	if len(t.rows) == 0 {
		t.addRow(false)
	}
	r := t.rows[len(t.rows)-1]
	c := &cell{align: align}
	r.cells = append(r.cells, c)
	return c
}

func (t *table) widths() []int {
	columns := len(t.alignments)
	for _, r := range t.rows {
		if len(r.cells) > columns {
			columns = len(r.cells)
		}
	}

	widths := make([]int, columns)
	for _, r := range t.rows {
		for i, c := range r.cells {
			if c.width > widths[i] {
				widths[i] = c.width
			}
		}
	}
	return widths
}

func (t *table) alignment(column int, c *cell) markdown.Alignment {
	if c != nil && c.align != markdown.AlignNone {
		return c.align
	}
	if column < len(t.alignments) {
		return t.alignments[column]
	}
	return markdown.AlignNone
}

func (r *Renderer) renderTable(t *table) {
	widths := t.widths()
	if len(widths) == 0 {
		return
	}

	border := r.resolver.Resolve(styles.TableBorder)

	for _, row := range t.rows {
		r.startLine()
		for i, width := range widths {
			if i > 0 {
				r.emitText(border, cellSeparator)
			}

			var c *cell
			if i < len(row.cells) {
				c = row.cells[i]
			}

			content := 0
			if c != nil {
				content = c.width
			}

			left, right := padding(t.alignment(i, c), width-content)
			if i == len(widths)-1 {
				right = 0
			}

			r.emitText(styles.Style{}, strings.Repeat(" ", left))
			if c != nil {
				for _, run := range c.runs {
					r.emit(run)
				}
				r.column += c.width
			}
			r.emitText(styles.Style{}, strings.Repeat(" ", right))
		}
		r.newline()

		if row.header {
			parts := make([]string, len(widths))
			for i, width := range widths {
				parts[i] = strings.Repeat("─", width)
			}
			r.startLine()
			r.emitText(border, strings.Join(parts, ruleJoint))
			r.newline()
		}
	}
}

func padding(align markdown.Alignment, extra int) (int, int) {
	if extra <= 0 {
		return 0, 0
	}

	switch align {
	case markdown.AlignRight:
		return extra, 0
	case markdown.AlignCenter:
		return extra / 2, extra - extra/2
	default:
		return 0, extra
	}
}
