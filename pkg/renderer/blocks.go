package renderer

import (
	"context"
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/elseano/mdcat/pkg/markdown"
	"github.com/elseano/mdcat/pkg/output"
	"github.com/elseano/mdcat/pkg/styles"
	"github.com/elseano/mdcat/pkg/util"
)

func (r *Renderer) enterBlock(e markdown.Event) {
	top := r.stack.Peek()

	switch e.Kind {
	case markdown.Paragraph:
		r.beginBlock()
		r.stack.Push(&frame{kind: markdown.Paragraph, tightParagraph: e.Tight})

	case markdown.Heading:
		r.beginBlock()
		r.stats.Headings++
		style := r.resolver.Resolve(styles.Heading(e.Level))
		f := r.stack.Push(&frame{kind: markdown.Heading, style: style, anchor: len(r.stats.Anchors) + 1})
		r.stats.Anchors = append(r.stats.Anchors, Anchor{ID: f.anchor, Level: e.Level})

		r.startLine()
		if r.caps.JumpMarks {
			r.emit(output.Control(jumpMark, ""))
		}
		r.emitText(r.stack.Style(), strings.Repeat("#", clamp(e.Level, 1, 6))+" ")
		r.indent = r.column

	case markdown.BlockQuote:
		r.beginBlock()
		r.stack.Push(&frame{
			kind:        markdown.BlockQuote,
			prefix:      quoteMarker,
			prefixStyle: r.resolver.Resolve(styles.QuoteMarker),
		})

	case markdown.List:
		r.beginBlock()
		r.stats.Lists++
		r.stack.Push(&frame{kind: markdown.List, ordered: e.Ordered, next: e.Start, tight: e.Tight})

	case markdown.Item:
		r.beginBlock()

		var marker string
		if top.ordered {
			marker = fmt.Sprintf("%d. ", top.next)
			top.next++
		} else {
			depth := r.stack.Count(markdown.List) - 1
			marker = bullets[depth%len(bullets)] + " "
		}

		r.stack.Push(&frame{
			kind:        markdown.Item,
			marker:      marker,
			markerStyle: r.resolver.Resolve(styles.ListMarker),
			prefix:      strings.Repeat(" ", runewidth.StringWidth(marker)),
		})

	case markdown.CodeBlock:
		r.beginBlock()
		r.stats.CodeBlocks++
		r.stack.Push(&frame{kind: markdown.CodeBlock, prefix: codeIndent, language: e.Language})

	case markdown.Table:
		r.beginBlock()
		r.stats.Tables++
		r.stack.Push(&frame{kind: markdown.Table, table: &table{alignments: e.Alignments}})

	case markdown.TableHead:
		top.table.addRow(true)
		r.stack.Push(&frame{kind: markdown.TableHead, style: r.resolver.Resolve(styles.TableHeader), table: top.table})

	case markdown.TableRow:
		top.table.addRow(false)
		r.stack.Push(&frame{kind: markdown.TableRow, table: top.table})

	case markdown.TableCell:
		c := top.table.addCell(e.Align)
		r.stack.Push(&frame{kind: markdown.TableCell, table: top.table, cell: c})
	}
}

func (r *Renderer) exitBlock(ctx context.Context, f *frame) {
	switch f.kind {
	case markdown.Paragraph:
		r.finishLine()
		r.stack.Pop()
		if !f.tightParagraph {
			r.separate = true
		}

	case markdown.Heading:
		r.finishLine()
		r.stack.Pop()
		r.stats.Anchors[f.anchor-1].Title = strings.TrimSpace(f.text.String())
		r.separate = true

	case markdown.List:
		r.finishLine()
		r.stack.Pop()
		r.separate = true
		if parent := r.stack.Peek(); parent.kind == markdown.Item {
			if list := r.stack.Below(parent); list != nil {
				r.separate = !list.tight
			}
		}

	case markdown.Item:
		// An empty item still shows its marker.
		if f.marker != "" {
			r.startLine()
		}
		r.finishLine()
		r.stack.Pop()
		r.separate = !r.stack.Peek().tight

	case markdown.CodeBlock:
		r.code(f.collected.String(), f.language)
		r.stack.Pop()
		r.separate = true

	case markdown.Table:
		r.finishLine()
		r.renderTable(f.table)
		r.stack.Pop()
		r.separate = true

	default:
		r.finishLine()
		r.stack.Pop()
		if f.kind == markdown.BlockQuote {
			r.separate = true
		}
	}
}

// code writes a code block line by line. Code is never wrapped.
func (r *Renderer) code(code, language string) {
	for _, line := range r.highlightLines(code, language) {
		if len(line) == 0 {
			r.blankLine()
			continue
		}

		r.startLine()
		for _, run := range line {
			r.emitText(run.Style, run.Text)
		}
		r.newline()
	}
}

// highlightLines splits highlighted code into lines of runs. Code the highlighter can't
// handle comes back unstyled.
func (r *Renderer) highlightLines(code, language string) [][]output.Run {
	var lines [][]output.Run
	var current []output.Run

	add := func(style styles.Style, text string) {
		for {
			i := strings.IndexByte(text, '\n')
			if i < 0 {
				if text != "" {
					current = append(current, output.Text(style, text))
				}
				return
			}
			if i > 0 {
				current = append(current, output.Text(style, strings.TrimSuffix(text[:i], "\r")))
			}
			lines = append(lines, current)
			current = nil
			text = text[i+1:]
		}
	}

	if r.highlighter == nil || r.caps.Plain {
		add(styles.Style{}, code)
	} else if spans, err := r.highlighter.Highlight(code, language); err != nil {
		log := util.Component("renderer")
		log.Debug().Err(err).Str("language", language).Msg("Code left unhighlighted")
		add(styles.Style{}, code)
	} else {
		for _, span := range spans {
			add(r.resolver.Stack(styles.CodeBlock, styles.TokenClass(span.Token)), code[span.Start:span.End])
		}
	}

	if current != nil {
		lines = append(lines, current)
	}
	return lines
}

func (r *Renderer) rule() {
	r.beginBlock()
	r.startLine()
	r.emitText(r.resolver.Resolve(styles.Rule), strings.Repeat(ruleChar, r.available()))
	r.newline()
	r.separate = true
}

func (r *Renderer) html(e markdown.Event) {
	if strings.TrimSpace(e.Text) == "" {
		return
	}

	style := r.resolver.Resolve(styles.HTML)

	if !e.Block {
		if c := r.cell(); c != nil {
			c.add(output.Text(r.stack.Style().Combine(style), e.Text))
			return
		}
		r.words(r.stack.Style().Combine(style), e.Text)
		return
	}

	r.beginBlock()
	for _, line := range strings.Split(strings.TrimRight(e.Text, "\n"), "\n") {
		r.startLine()
		r.emitText(style, line)
		r.newline()
	}
	r.separate = true
}

func (r *Renderer) taskMarker(checked bool) {
	marker := "☐ "
	if checked {
		marker = "☒ "
	}

	item := r.stack.Nearest(markdown.Item)
	if item == nil || item.marker == "" {
		r.words(r.stack.Style(), marker)
		return
	}

	item.marker = marker
	item.prefix = strings.Repeat(" ", runewidth.StringWidth(marker))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
