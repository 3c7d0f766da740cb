package markdown

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	emojiast "github.com/yuin/goldmark-emoji/ast"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/elseano/mdcat/pkg/util"
)

// Parser turns CommonMark with GitHub extensions into a flat event stream.
type Parser struct {
	md goldmark.Markdown
}

func NewParser() *Parser {
	return &Parser{
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				emoji.Emoji,
			),
		),
	}
}

// Parse returns the events of source in document order. Every Enter is matched by an Exit.
func Parse(source []byte) []Event {
	return NewParser().Parse(source)
}

func (p *Parser) Parse(source []byte) []Event {
	doc := p.md.Parser().Parse(text.NewReader(source))

	w := &walker{source: source}
	if err := ast.Walk(doc, w.walk); err != nil {
		util.Logger.Error().Err(err).Msg("Walking markdown document failed")
	}

	return w.events
}

type walker struct {
	source []byte
	events []Event
}

func (w *walker) emit(events ...Event) {
	w.events = append(w.events, events...)
}

func (w *walker) block(entering bool, e Event) {
	if !entering {
		e = ExitEvent(e.Kind)
	}
	w.emit(e)
}

func (w *walker) walk(node ast.Node, entering bool) (ast.WalkStatus, error) {
	switch n := node.(type) {
	case *ast.Document:
		w.block(entering, EnterEvent(Document))

	case *ast.Paragraph:
		w.block(entering, EnterEvent(Paragraph))

	case *ast.TextBlock:
		w.block(entering, Event{Type: Enter, Kind: Paragraph, Tight: true})

	case *ast.Heading:
		w.block(entering, Event{Type: Enter, Kind: Heading, Level: n.Level})

	case *ast.Blockquote:
		w.block(entering, EnterEvent(BlockQuote))

	case *ast.List:
		w.block(entering, Event{Type: Enter, Kind: List, Ordered: n.IsOrdered(), Start: n.Start, Tight: n.IsTight})

	case *ast.ListItem:
		w.block(entering, EnterEvent(Item))

	case *ast.ThematicBreak:
		if entering {
			w.emit(Event{Type: Rule})
		}

	case *ast.FencedCodeBlock:
		if entering {
			w.emit(Event{Type: Enter, Kind: CodeBlock, Language: string(n.Language(w.source))})
			w.emit(TextEvent(w.lines(n.Lines())))
		} else {
			w.emit(ExitEvent(CodeBlock))
		}
		return ast.WalkSkipChildren, nil

	case *ast.CodeBlock:
		if entering {
			w.emit(EnterEvent(CodeBlock), TextEvent(w.lines(n.Lines())))
		} else {
			w.emit(ExitEvent(CodeBlock))
		}
		return ast.WalkSkipChildren, nil

	case *ast.HTMLBlock:
		if entering {
			raw := w.lines(n.Lines())
			if n.HasClosure() {
				raw += string(n.ClosureLine.Value(w.source))
			}
			w.emit(htmlEvents(raw, true)...)
		}
		return ast.WalkSkipChildren, nil

	case *ast.RawHTML:
		if entering {
			var raw strings.Builder
			for i := 0; i < n.Segments.Len(); i++ {
				segment := n.Segments.At(i)
				raw.Write(segment.Value(w.source))
			}
			w.emit(htmlEvents(raw.String(), false)...)
		}
		return ast.WalkSkipChildren, nil

	case *ast.Text:
		if entering {
			w.emit(TextEvent(string(n.Segment.Value(w.source))))
			if n.HardLineBreak() {
				w.emit(Event{Type: HardBreak})
			} else if n.SoftLineBreak() {
				w.emit(Event{Type: SoftBreak})
			}
		}

	case *ast.String:
		if entering {
			w.emit(TextEvent(string(n.Value)))
		}

	case *ast.CodeSpan:
		if entering {
			w.emit(EnterEvent(CodeSpan), TextEvent(w.inlineText(n)), ExitEvent(CodeSpan))
		}
		return ast.WalkSkipChildren, nil

	case *ast.Emphasis:
		kind := Emphasis
		if n.Level >= 2 {
			kind = Strong
		}
		w.block(entering, EnterEvent(kind))

	case *ast.Link:
		w.block(entering, Event{Type: Enter, Kind: Link, Destination: string(n.Destination), Title: string(n.Title)})

	case *ast.AutoLink:
		if entering {
			w.emit(
				Event{Type: Enter, Kind: Link, Destination: string(n.URL(w.source))},
				TextEvent(string(n.Label(w.source))),
				ExitEvent(Link),
			)
		}
		return ast.WalkSkipChildren, nil

	case *ast.Image:
		w.block(entering, Event{Type: Enter, Kind: Image, Destination: string(n.Destination), Title: string(n.Title)})

	case *east.Strikethrough:
		w.block(entering, EnterEvent(Strikethrough))

	case *east.TaskCheckBox:
		if entering {
			w.emit(Event{Type: TaskMarker, Checked: n.IsChecked})
		}

	case *east.Table:
		alignments := make([]Alignment, len(n.Alignments))
		for i, a := range n.Alignments {
			alignments[i] = alignment(a)
		}
		w.block(entering, Event{Type: Enter, Kind: Table, Alignments: alignments})

	case *east.TableHeader:
		w.block(entering, EnterEvent(TableHead))

	case *east.TableRow:
		w.block(entering, EnterEvent(TableRow))

	case *east.TableCell:
		w.block(entering, Event{Type: Enter, Kind: TableCell, Align: alignment(n.Alignment)})

	case *emojiast.Emoji:
		if entering {
			if n.Value != nil && len(n.Value.Unicode) > 0 {
				w.emit(TextEvent(string(n.Value.Unicode)))
			} else {
				w.emit(TextEvent(":" + string(n.ShortName) + ":"))
			}
		}
		return ast.WalkSkipChildren, nil

	default:
		if entering && node.Type() == ast.TypeBlock && !node.HasChildren() {
			util.Logger.Debug().Str("kind", node.Kind().String()).Msg("Skipping unsupported block")
		}
	}

	return ast.WalkContinue, nil
}

func (w *walker) lines(lines *text.Segments) string {
	var buf bytes.Buffer
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		buf.Write(segment.Value(w.source))
	}
	return buf.String()
}

func (w *walker) inlineText(node ast.Node) string {
	var buf bytes.Buffer
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(w.source))
		case *ast.String:
			buf.Write(t.Value)
		}
	}
	return buf.String()
}

func alignment(a east.Alignment) Alignment {
	switch a {
	case east.AlignLeft:
		return AlignLeft
	case east.AlignCenter:
		return AlignCenter
	case east.AlignRight:
		return AlignRight
	}
	return AlignNone
}
