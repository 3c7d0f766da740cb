// Package renderer turns a markdown event stream into styled terminal output.
package renderer

import (
	"context"
	"fmt"

	"github.com/mattn/go-runewidth"

	"github.com/elseano/mdcat/pkg/errs"
	"github.com/elseano/mdcat/pkg/highlight"
	"github.com/elseano/mdcat/pkg/images"
	"github.com/elseano/mdcat/pkg/markdown"
	"github.com/elseano/mdcat/pkg/output"
	"github.com/elseano/mdcat/pkg/styles"
	"github.com/elseano/mdcat/pkg/terminal"
	"github.com/elseano/mdcat/pkg/util"
)

const (
	jumpMark = "\x1b]1337;SetMark\a"

	quoteMarker = "┃ "
	codeIndent  = "    "
	ruleChar    = "─"
)

var bullets = []string{"•", "◦", "▪"}

// Sink receives the rendered runs. *output.Writer is the usual implementation.
type Sink interface {
	Write(run output.Run) error
}

// Embedder turns an image reference into protocol runs or fallback text.
type Embedder interface {
	Embed(ctx context.Context, ref images.Ref, box images.Box, caps terminal.Capabilities) images.Result
}

type Options struct {
	// Width overrides the capability width when greater than zero.
	Width int

	// LineNumberWidth is the counter width of the line-number overlay, zero when the
	// overlay is off. Wrapping leaves room for it.
	LineNumberWidth int

	// ImageMaxHeight limits images to this many rows when greater than zero.
	ImageMaxHeight int

	// SourceLines is reported in the statistics.
	SourceLines int

	// BaseDir resolves relative link destinations when no image pipeline is configured.
	BaseDir string
}

type Config struct {
	Caps        terminal.Capabilities
	Theme       *styles.Theme
	Highlighter highlight.Highlighter
	Images      Embedder
	Options     Options
}

// Renderer renders one document. It keeps state between events and must not be shared.
type Renderer struct {
	out         Sink
	caps        terminal.Capabilities
	resolver    styles.Resolver
	highlighter highlight.Highlighter
	images      Embedder
	opts        Options
	width       int

	stack *contextStack
	stats Stats

	// Current line.
	lineStarted bool
	column      int
	indent      int

	// A space waits to be written until the next word shows whether the line wraps.
	space      bool
	spaceStyle styles.Style

	// Control runs that must immediately precede the next word.
	pending []pendingControl

	// A blank line goes before the next block.
	separate  bool
	hasOutput bool

	err error
}

type pendingControl struct {
	run   output.Run
	owner *frame
}

func New(out Sink, cfg Config) *Renderer {
	theme := cfg.Theme
	if theme == nil {
		theme, _ = styles.Builtin(styles.DefaultTheme)
	}

	width := cfg.Caps.Width
	if cfg.Options.Width > 0 {
		width = cfg.Options.Width
	}
	if cfg.Options.LineNumberWidth > 0 {
		width -= cfg.Options.LineNumberWidth + runewidth.StringWidth(" │ ")
	}
	if width < 1 {
		width = 1
	}

	return &Renderer{
		out:         out,
		caps:        cfg.Caps,
		resolver:    styles.NewResolver(theme, cfg.Caps),
		highlighter: cfg.Highlighter,
		images:      cfg.Images,
		opts:        cfg.Options,
		width:       width,
	}
}

// Render writes the document described by events. It fails with a fatal error when the
// stream is unbalanced, and with errs.ErrOutputClosed once the sink stops accepting runs.
func (r *Renderer) Render(ctx context.Context, events []markdown.Event) (Stats, error) {
	r.reset()

	for _, e := range events {
		if err := ctx.Err(); err != nil {
			return r.stats, fmt.Errorf("%w: %v", errs.ErrInterrupted, err)
		}

		if err := r.handle(ctx, e); err != nil {
			return r.stats, err
		}
		if r.err != nil {
			return r.stats, r.err
		}
	}

	if r.stack.Depth() > 1 {
		return r.stats, errs.Fatalf(r.stack.Depth(), "document ended while %s is open", r.stack.Peek().kind)
	}
	if r.stack.opened && !r.stack.closed {
		return r.stats, errs.Fatalf(r.stack.Depth(), "document ended without closing Document")
	}

	r.finishLine()
	return r.stats, r.err
}

func (r *Renderer) reset() {
	r.stack = newContextStack(&frame{kind: markdown.Document, style: r.resolver.Resolve(styles.Text)})
	r.stats = Stats{Lines: r.opts.SourceLines}
	r.lineStarted, r.column, r.indent = false, 0, 0
	r.space, r.pending = false, nil
	r.separate, r.hasOutput = false, false
	r.err = nil
}

func (r *Renderer) handle(ctx context.Context, e markdown.Event) error {
	if r.stack.closed {
		return errs.Fatalf(r.stack.Depth(), "%s after the document was closed", e)
	}

	switch e.Type {
	case markdown.Enter:
		if e.Kind.IsBlock() {
			r.stats.breakWord()
		}
		return r.enter(e)
	case markdown.Exit:
		if e.Kind.IsBlock() {
			r.stats.breakWord()
		}
		return r.exit(ctx, e)
	case markdown.Text:
		r.text(e.Text)
	case markdown.SoftBreak:
		r.stats.breakWord()
		r.softBreak()
	case markdown.HardBreak:
		r.stats.breakWord()
		r.hardBreak()
	case markdown.Rule:
		r.rule()
	case markdown.TaskMarker:
		r.taskMarker(e.Checked)
	case markdown.HTML:
		r.html(e)
	}

	return nil
}

func (r *Renderer) enter(e markdown.Event) error {
	top := r.stack.Peek()

	switch e.Kind {
	case markdown.Document:
		if r.stack.Depth() > 1 || r.stack.opened {
			return errs.Fatalf(r.stack.Depth(), "nested Document inside %s", top.kind)
		}
		r.stack.opened = true
		return nil

	case markdown.TableHead, markdown.TableRow:
		if top.kind != markdown.Table {
			return errs.Fatalf(r.stack.Depth(), "%s outside of a table", e.Kind)
		}
	case markdown.TableCell:
		if top.kind != markdown.TableHead && top.kind != markdown.TableRow {
			return errs.Fatalf(r.stack.Depth(), "TableCell outside of a table row")
		}
	case markdown.Item:
		if top.kind != markdown.List {
			return errs.Fatalf(r.stack.Depth(), "Item outside of a list")
		}
	}

	if e.Kind.IsBlock() {
		r.enterBlock(e)
	} else {
		r.enterInline(e)
	}
	return nil
}

func (r *Renderer) exit(ctx context.Context, e markdown.Event) error {
	top := r.stack.Peek()

	if e.Kind == markdown.Document && r.stack.Depth() == 1 {
		if !r.stack.opened {
			return errs.Fatalf(r.stack.Depth(), "exit Document with no open frame")
		}
		r.stack.closed = true
		return nil
	}

	if r.stack.Depth() == 1 {
		return errs.Fatalf(r.stack.Depth(), "exit %s with no open frame", e.Kind)
	}
	if top.kind != e.Kind {
		return errs.Fatalf(r.stack.Depth(), "exit %s while %s is open", e.Kind, top.kind)
	}

	if e.Kind.IsBlock() {
		r.exitBlock(ctx, top)
	} else {
		r.exitInline(ctx, top)
	}
	return nil
}

// emit writes one run, remembering the first error.
func (r *Renderer) emit(run output.Run) {
	if r.err != nil {
		return
	}
	if err := r.out.Write(run); err != nil {
		r.err = err
		log := util.Component("renderer")
		log.Debug().Err(err).Msg("Output rejected run")
	}
}

func (r *Renderer) emitText(style styles.Style, text string) {
	if text == "" {
		return
	}
	r.emit(output.Text(style, text))
	r.column += runewidth.StringWidth(text)
}

// startLine writes the prefixes of every open block.
func (r *Renderer) startLine() {
	if r.lineStarted {
		return
	}

	r.lineStarted = true
	r.hasOutput = true
	r.column = 0
	for _, run := range r.stack.Prefix(false) {
		r.emitText(run.Style, run.Text)
	}
	r.indent = r.column
	r.space = false
}

func (r *Renderer) newline() {
	r.emit(output.Text(styles.Style{}, "\n"))
	r.lineStarted = false
	r.column = 0
	r.space = false
}

func (r *Renderer) finishLine() {
	if r.lineStarted {
		r.newline()
	}
	r.space = false
}

func (r *Renderer) blankLine() {
	for _, run := range r.stack.Prefix(true) {
		r.emit(output.Text(run.Style, run.Text))
	}
	r.emit(output.Text(styles.Style{}, "\n"))
	r.lineStarted = false
	r.column = 0
}

// beginBlock ends the current line and separates the new block from the previous one.
func (r *Renderer) beginBlock() {
	r.finishLine()
	if r.separate && r.hasOutput {
		r.blankLine()
	}
	r.separate = false
}

// prefixWidth is the width of the block prefixes of the current line.
func (r *Renderer) prefixWidth() int {
	width := 0
	for _, f := range r.stack.frames {
		if f.marker != "" {
			width += runewidth.StringWidth(f.marker)
		} else {
			width += runewidth.StringWidth(f.prefix)
		}
	}
	return width
}

// available is the number of columns left for content after the block prefixes.
func (r *Renderer) available() int {
	w := r.width - r.prefixWidth()
	if w < 1 {
		w = 1
	}
	return w
}
