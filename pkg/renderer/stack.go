package renderer

import (
	"strings"

	"github.com/elseano/mdcat/pkg/markdown"
	"github.com/elseano/mdcat/pkg/output"
	"github.com/elseano/mdcat/pkg/styles"
)

// frame is one open construct. Block frames contribute a line prefix, inline frames a style.
type frame struct {
	kind  markdown.Kind
	style styles.Style

	// prefix starts every line inside the frame. marker, when set, replaces it on the
	// first line and is then cleared.
	prefix      string
	prefixStyle styles.Style
	marker      string
	markerStyle styles.Style

	// Lists.
	ordered bool
	next    int
	tight   bool

	// Paragraphs inside tight lists.
	tightParagraph bool

	// Links. opened is set once the hyperlink sequence was written.
	destination string
	hyperlink   bool
	opened      bool
	text        strings.Builder

	// Images and code blocks collect their content instead of writing it.
	collected strings.Builder
	language  string

	// Headings.
	anchor int

	// Tables.
	table *table
	cell  *cell
}

// contextStack holds the open frames. The root frame at the bottom is never popped.
type contextStack struct {
	frames []*frame
	opened bool
	closed bool
}

func newContextStack(root *frame) *contextStack {
	return &contextStack{frames: []*frame{root}}
}

func (s *contextStack) Push(f *frame) *frame {
	s.frames = append(s.frames, f)
	return f
}

// Pop removes the top frame. It returns nil instead of removing the root.
func (s *contextStack) Pop() *frame {
	if len(s.frames) <= 1 {
		return nil
	}

	f := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	return f
}

func (s *contextStack) Peek() *frame {
	return s.frames[len(s.frames)-1]
}

func (s *contextStack) Depth() int {
	return len(s.frames)
}

// Nearest returns the innermost open frame of the given kind.
func (s *contextStack) Nearest(kind markdown.Kind) *frame {
	for i := len(s.frames) - 1; i > 0; i-- {
		if s.frames[i].kind == kind {
			return s.frames[i]
		}
	}
	return nil
}

// Below returns the frame under f, or nil.
func (s *contextStack) Below(f *frame) *frame {
	for i := len(s.frames) - 1; i > 0; i-- {
		if s.frames[i] == f {
			return s.frames[i-1]
		}
	}
	return nil
}

// Count returns how many frames of the given kind are open.
func (s *contextStack) Count(kind markdown.Kind) int {
	n := 0
	for _, f := range s.frames[1:] {
		if f.kind == kind {
			n++
		}
	}
	return n
}

// Style combines every frame's style from the outermost to the innermost.
func (s *contextStack) Style() styles.Style {
	var style styles.Style
	for _, f := range s.frames {
		style = style.Combine(f.style)
	}
	return style
}

// Prefix returns the runs which start a new line, consuming pending item markers. For
// blank lines markers are left alone and trailing whitespace is dropped.
func (s *contextStack) Prefix(blank bool) []output.Run {
	var runs []output.Run
	for _, f := range s.frames {
		switch {
		case f.marker != "" && !blank:
			runs = append(runs, output.Text(f.markerStyle, f.marker))
			f.marker = ""
		case f.prefix != "":
			runs = append(runs, output.Text(f.prefixStyle, f.prefix))
		}
	}

	if !blank {
		return runs
	}

	for len(runs) > 0 {
		last := &runs[len(runs)-1]
		last.Text = strings.TrimRight(last.Text, " ")
		if last.Text != "" {
			break
		}
		runs = runs[:len(runs)-1]
	}
	return runs
}
