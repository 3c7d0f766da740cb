package styles

import (
	"strings"

	"github.com/muesli/termenv"
)

const Reset = termenv.CSI + termenv.ResetSeq + "m"

// Style is a concrete set of terminal attributes. A nil colour means the terminal default.
type Style struct {
	Fg            termenv.Color
	Bg            termenv.Color
	Bold          bool
	Italic        bool
	Underline     bool
	Strikethrough bool
	Faint         bool
}

func (s Style) IsZero() bool {
	return s == Style{}
}

// Combine layers inner on top of s. Attributes are the union of both, colours come from
// inner where it sets them.
func (s Style) Combine(inner Style) Style {
	out := Style{
		Fg:            s.Fg,
		Bg:            s.Bg,
		Bold:          s.Bold || inner.Bold,
		Italic:        s.Italic || inner.Italic,
		Underline:     s.Underline || inner.Underline,
		Strikethrough: s.Strikethrough || inner.Strikethrough,
		Faint:         s.Faint || inner.Faint,
	}

	if inner.Fg != nil {
		out.Fg = inner.Fg
	}
	if inner.Bg != nil {
		out.Bg = inner.Bg
	}

	return out
}

// SGR is the select-graphic-rendition sequence which switches the terminal into s. The
// zero style yields an empty string.
func (s Style) SGR() string {
	var params []string

	if s.Bold {
		params = append(params, termenv.BoldSeq)
	}
	if s.Faint {
		params = append(params, termenv.FaintSeq)
	}
	if s.Italic {
		params = append(params, termenv.ItalicSeq)
	}
	if s.Underline {
		params = append(params, termenv.UnderlineSeq)
	}
	if s.Strikethrough {
		params = append(params, termenv.CrossOutSeq)
	}
	if s.Fg != nil {
		if seq := s.Fg.Sequence(false); seq != "" {
			params = append(params, seq)
		}
	}
	if s.Bg != nil {
		if seq := s.Bg.Sequence(true); seq != "" {
			params = append(params, seq)
		}
	}

	if len(params) == 0 {
		return ""
	}

	return termenv.CSI + strings.Join(params, ";") + "m"
}

// Wrap surrounds text with the style and a reset.
func (s Style) Wrap(text string) string {
	sgr := s.SGR()
	if sgr == "" {
		return text
	}
	return sgr + text + Reset
}
