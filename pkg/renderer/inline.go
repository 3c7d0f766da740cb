package renderer

import (
	"context"
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"

	"github.com/elseano/mdcat/pkg/images"
	"github.com/elseano/mdcat/pkg/markdown"
	"github.com/elseano/mdcat/pkg/output"
	"github.com/elseano/mdcat/pkg/styles"
)

var inlineClasses = map[markdown.Kind]styles.Class{
	markdown.Emphasis:      styles.Emphasis,
	markdown.Strong:        styles.Strong,
	markdown.Strikethrough: styles.Strikethrough,
	markdown.CodeSpan:      styles.CodeSpan,
	markdown.Link:          styles.Link,
}

func (r *Renderer) enterInline(e markdown.Event) {
	f := &frame{kind: e.Kind}
	if class, ok := inlineClasses[e.Kind]; ok {
		f.style = r.resolver.Resolve(class)
	}

	switch e.Kind {
	case markdown.Link:
		r.stats.Links++
		f.destination = e.Destination
		if target := r.hyperlinkTarget(e.Destination); target != "" {
			f.hyperlink = true
			open := output.Hyperlink(target)
			if c := r.cell(); c != nil {
				c.add(open)
				f.opened = true
			} else {
				r.pending = append(r.pending, pendingControl{run: open, owner: f})
			}
		}
	case markdown.Image:
		r.stats.Images++
		f.destination = e.Destination
	}

	r.stack.Push(f)
}

func (r *Renderer) exitInline(ctx context.Context, f *frame) {
	r.stack.Pop()

	switch f.kind {
	case markdown.Link:
		r.closeLink(f)
	case markdown.Image:
		r.image(ctx, f)
	}
}

// hyperlinkTarget is the OSC 8 target for a link destination, or "" when the link can't
// or shouldn't be a hyperlink.
func (r *Renderer) hyperlinkTarget(destination string) string {
	if !r.caps.Hyperlinks || destination == "" || strings.HasPrefix(destination, "#") {
		return ""
	}

	u, err := images.ResolveReference(r.baseDir(), destination)
	if err != nil {
		return ""
	}
	return u.String()
}

func (r *Renderer) baseDir() string {
	if p, ok := r.images.(*images.Pipeline); ok {
		return p.BaseDir
	}
	return r.opts.BaseDir
}

func (r *Renderer) closeLink(f *frame) {
	if f.hyperlink {
		if f.opened {
			closing := output.EndHyperlink()
			if c := r.cell(); c != nil {
				c.add(closing)
			} else {
				r.emit(closing)
			}
			return
		}

		// Nothing was written inside the link, so it was never opened.
		kept := r.pending[:0]
		for _, p := range r.pending {
			if p.owner != f {
				kept = append(kept, p)
			}
		}
		r.pending = kept
		return
	}

	text := strings.TrimSpace(f.text.String())
	dest := f.destination
	if dest == "" || strings.HasPrefix(dest, "#") || text == dest || "mailto:"+text == dest {
		return
	}

	style := r.stack.Style().Combine(r.resolver.Resolve(styles.LinkURL))
	if c := r.cell(); c != nil {
		c.add(output.Text(style, " ("+dest+")"))
		return
	}
	r.words(style, " ("+dest+")")
}

func (r *Renderer) image(ctx context.Context, f *frame) {
	ref := images.Ref{Source: f.destination, Alt: f.collected.String()}

	c := r.cell()
	if c != nil || r.images == nil || r.stack.Nearest(markdown.Image) != nil {
		r.imageFallback(c, ref.Alt, images.DefaultPlaceholder)
		return
	}

	box := images.Box{Width: r.available(), MaxHeight: r.opts.ImageMaxHeight}
	result := r.images.Embed(ctx, ref, box, r.caps)
	if result.IsFallback() {
		r.imageFallback(nil, ref.Alt, result.Fallback)
		return
	}

	// Images sit on lines of their own.
	r.finishLine()
	r.startLine()
	r.flushPending()
	for _, run := range result.Runs {
		if run.Kind == output.TextRun && run.Text == "\n" {
			r.newline()
			r.startLine()
			continue
		}
		r.emit(run)
	}
	r.newline()
}

// imageFallback writes the text shown in place of an image. Alt text keeps the
// surrounding style, the bare placeholder gets its own.
func (r *Renderer) imageFallback(c *cell, alt, text string) {
	style := r.stack.Style()
	if strings.TrimSpace(alt) == "" {
		style = style.Combine(r.resolver.Resolve(styles.ImageFallback))
		if text == "" {
			text = images.DefaultPlaceholder
		}
	} else if text == images.DefaultPlaceholder || text == "" {
		text = strings.TrimSpace(alt)
	}

	if c != nil {
		c.add(output.Text(style, text))
		return
	}
	r.words(style, text)
}

func (r *Renderer) text(text string) {
	r.stats.countText(text)

	for _, kind := range []markdown.Kind{markdown.Heading, markdown.Link} {
		if f := r.stack.Nearest(kind); f != nil {
			f.text.WriteString(text)
		}
	}

	if img := r.stack.Nearest(markdown.Image); img != nil {
		img.collected.WriteString(text)
		return
	}

	top := r.stack.Peek()
	if top.kind == markdown.CodeBlock {
		top.collected.WriteString(text)
		return
	}

	style := r.stack.Style()
	if c := r.cell(); c != nil {
		c.add(output.Text(style, strings.ReplaceAll(text, "\n", " ")))
		return
	}
	if r.stack.Nearest(markdown.CodeSpan) != nil {
		r.word(style, strings.ReplaceAll(text, "\n", " "))
		return
	}
	r.words(style, text)
}

func (r *Renderer) softBreak() {
	r.breakInline(false)
}

func (r *Renderer) hardBreak() {
	r.breakInline(true)
}

func (r *Renderer) breakInline(hard bool) {
	if img := r.stack.Nearest(markdown.Image); img != nil {
		img.collected.WriteString(" ")
		return
	}
	if c := r.cell(); c != nil {
		c.add(output.Text(r.stack.Style(), " "))
		return
	}

	if !hard {
		r.space = true
		r.spaceStyle = r.stack.Style()
		return
	}

	r.startLine()
	r.newline()
}

// words writes text, wrapping at spaces so no line exceeds the width unless a single
// word does.
func (r *Renderer) words(style styles.Style, text string) {
	for text != "" {
		i := strings.IndexFunc(text, isBreakingSpace)
		if i == 0 {
			j := strings.IndexFunc(text, func(c rune) bool { return !isBreakingSpace(c) })
			if j < 0 {
				j = len(text)
			}
			r.space = true
			r.spaceStyle = style
			text = text[j:]
			continue
		}
		if i < 0 {
			i = len(text)
		}
		r.word(style, text[:i])
		text = text[i:]
	}
}

// word writes an unbreakable piece of text. A line only breaks where a space was
// pending, never in the middle of a word split across styles.
func (r *Renderer) word(style styles.Style, word string) {
	if word == "" {
		return
	}

	width := runewidth.StringWidth(word)
	if r.lineStarted && r.space && r.column > r.indent && r.column+1+width > r.width {
		r.newline()
	}

	r.startLine()
	if r.space {
		r.emitText(r.spaceStyle, " ")
		r.space = false
	}
	r.flushPending()
	r.emitText(style, word)
}

func (r *Renderer) flushPending() {
	for _, p := range r.pending {
		r.emit(p.run)
		p.owner.opened = true
	}
	r.pending = nil
}

// cell is the table cell currently collecting content, if any.
func (r *Renderer) cell() *cell {
	if f := r.stack.Nearest(markdown.TableCell); f != nil {
		return f.cell
	}
	return nil
}

func isBreakingSpace(c rune) bool {
	return c != '\u00a0' && unicode.IsSpace(c)
}
